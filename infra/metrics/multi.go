package metrics

import (
	"errors"

	coremetrics "github.com/kilianp07/dockyard/core/metrics"
)

// MultiSink fans metrics out to several sinks. Errors are joined, not
// short-circuited, so one failing sink cannot starve the others.
type MultiSink struct {
	sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) RecordAssignments(evs []coremetrics.AssignmentEvent) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordAssignments(evs); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordOccupancy(o coremetrics.OccupancySample) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordOccupancy(o); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
