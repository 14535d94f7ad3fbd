package metrics

import "time"

// AssignmentEvent records one allocation decision for external sinks.
type AssignmentEvent struct {
	VehicleNumber string
	Source        string
	DockNumber    int
	Is3PL         bool
	Waitlisted    bool
	Timestamp     time.Time
}

// OccupancySample captures the pool state after a mutation.
type OccupancySample struct {
	OccupiedDocks int
	WaitingCount  int
	Timestamp     time.Time
}

// Sink receives allocation metrics. Implementations must not block the
// allocation path; callers invoke them after the in-memory mutation.
type Sink interface {
	RecordAssignments([]AssignmentEvent) error
	RecordOccupancy(OccupancySample) error
}

// NopSink discards all metrics.
type NopSink struct{}

func (NopSink) RecordAssignments([]AssignmentEvent) error { return nil }
func (NopSink) RecordOccupancy(OccupancySample) error     { return nil }
