package logging

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists movements to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS dock_movements (
        id TEXT PRIMARY KEY,
        record_id TEXT NOT NULL,
        vehicle_number TEXT NOT NULL,
        dock_number INTEGER NOT NULL,
        source TEXT,
        dock_in INTEGER NOT NULL,
        dock_out INTEGER
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the movement at dock-in.
func (s *SQLiteStore) Append(ctx context.Context, m Movement) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dock_movements (id, record_id, vehicle_number, dock_number, source, dock_in) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.RecordID, m.VehicleNumber, m.DockNumber, m.Source, m.DockIn.UnixNano())
	return err
}

// MarkDockOut completes the open movement with the given record id.
func (s *SQLiteStore) MarkDockOut(ctx context.Context, recordID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE dock_movements SET dock_out = ? WHERE record_id = ? AND dock_out IS NULL`,
		at.UnixNano(), recordID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no open movement for record %s", recordID)
	}
	return nil
}

// Query returns movements matching q in dock-in order.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]Movement, error) {
	query := `SELECT id, record_id, vehicle_number, dock_number, source, dock_in, dock_out FROM dock_movements WHERE 1=1`
	var args []any
	if !q.Start.IsZero() {
		query += ` AND dock_in >= ?`
		args = append(args, q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		query += ` AND dock_in <= ?`
		args = append(args, q.End.UnixNano())
	}
	if q.VehicleNumber != "" {
		query += ` AND vehicle_number = ?`
		args = append(args, q.VehicleNumber)
	}
	if q.DockNumber != 0 {
		query += ` AND dock_number = ?`
		args = append(args, q.DockNumber)
	}
	if q.OpenOnly {
		query += ` AND dock_out IS NULL`
	}
	query += ` ORDER BY dock_in`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []Movement
	for rows.Next() {
		var m Movement
		var in int64
		var out sql.NullInt64
		if err := rows.Scan(&m.ID, &m.RecordID, &m.VehicleNumber, &m.DockNumber, &m.Source, &in, &out); err != nil {
			return nil, err
		}
		m.DockIn = time.Unix(0, in)
		if out.Valid {
			t := time.Unix(0, out.Int64)
			m.DockOut = &t
		}
		res = append(res, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
