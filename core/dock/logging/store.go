// Package logging persists dock movements: one record per assignment,
// appended at dock-in and completed with a dock-out timestamp on release.
// The stores are best-effort collaborators; the in-memory pool remains the
// source of truth for occupancy.
package logging

import (
	"context"
	"time"
)

// Movement is one vehicle's stay on a dock.
type Movement struct {
	ID            string     `json:"id"`
	RecordID      string     `json:"record_id"`
	VehicleNumber string     `json:"vehicle_number"`
	DockNumber    int        `json:"dock_number"`
	Source        string     `json:"source"`
	DockIn        time.Time  `json:"dock_in"`
	DockOut       *time.Time `json:"dock_out,omitempty"`
}

// Query defines filters for retrieving movements.
type Query struct {
	Start         time.Time
	End           time.Time
	VehicleNumber string
	DockNumber    int
	OpenOnly      bool
}

// Store persists movements and supports querying.
type Store interface {
	Append(ctx context.Context, m Movement) error
	// MarkDockOut completes the open movement with the given record id.
	MarkDockOut(ctx context.Context, recordID string, at time.Time) error
	Query(ctx context.Context, q Query) ([]Movement, error)
	Close() error
}

func (q Query) matches(m Movement) bool {
	if !q.Start.IsZero() && m.DockIn.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && m.DockIn.After(q.End) {
		return false
	}
	if q.VehicleNumber != "" && m.VehicleNumber != q.VehicleNumber {
		return false
	}
	if q.DockNumber != 0 && m.DockNumber != q.DockNumber {
		return false
	}
	if q.OpenOnly && m.DockOut != nil {
		return false
	}
	return true
}
