package logging

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"
)

const (
	kindDockIn  = "dock_in"
	kindDockOut = "dock_out"
)

// line is one JSONL entry. The file is append-only: dock-outs are written as
// separate completion lines and merged back onto their movement at read time.
type line struct {
	Kind string `json:"kind"`
	Movement
}

// JSONLStore stores movements in an append-only JSONL file.
type JSONLStore struct {
	path string
	mu   sync.Mutex
}

func NewJSONLStore(path string) (*JSONLStore, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	if cerr := f.Close(); cerr != nil {
		return nil, cerr
	}
	return &JSONLStore{path: path}, nil
}

func (s *JSONLStore) append(l line) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return json.NewEncoder(f).Encode(l)
}

// Append writes the movement at dock-in.
func (s *JSONLStore) Append(ctx context.Context, m Movement) error {
	return s.append(line{Kind: kindDockIn, Movement: m})
}

// MarkDockOut appends a completion line for the record id.
func (s *JSONLStore) MarkDockOut(ctx context.Context, recordID string, at time.Time) error {
	return s.append(line{Kind: kindDockOut, Movement: Movement{RecordID: recordID, DockOut: &at}})
}

// Query scans the file, merges completion lines onto their movements and
// returns matches in dock-in order.
func (s *JSONLStore) Query(ctx context.Context, q Query) ([]Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var all []Movement
	open := map[string]int{} // record id -> index of its open movement
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var l line
		if err := json.Unmarshal(scanner.Bytes(), &l); err != nil {
			continue
		}
		switch l.Kind {
		case kindDockIn:
			all = append(all, l.Movement)
			open[l.RecordID] = len(all) - 1
		case kindDockOut:
			if i, ok := open[l.RecordID]; ok {
				all[i].DockOut = l.DockOut
				delete(open, l.RecordID)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	var res []Movement
	for _, m := range all {
		if q.matches(m) {
			res = append(res, m)
		}
	}
	return res, nil
}

// Close is a no-op; the file is opened per operation.
func (s *JSONLStore) Close() error { return nil }
