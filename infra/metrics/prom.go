package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/dockyard/core/metrics"
)

// PromSink records allocation events in Prometheus metrics.
type PromSink struct {
	events  *prometheus.CounterVec
	waiting prometheus.Gauge
	docks   prometheus.Gauge
}

// NewPromSink registers allocation metrics on the default Prometheus
// registerer. The Prometheus server is started separately.
func NewPromSink(cfg coremetrics.Config) (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "allocation_events_total",
		Help: "Total number of allocation decisions",
	}, []string{"source", "is_3pl", "waitlisted"})
	waiting := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "allocation_waiting_vehicles",
		Help: "Vehicles currently on the waiting list",
	})
	docks := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "allocation_occupied_docks",
		Help: "Docks currently occupied",
	})

	if err := reg.Register(events); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			events = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(waiting); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			waiting = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(docks); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			docks = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}

	return &PromSink{events: events, waiting: waiting, docks: docks}, nil
}

// RecordAssignments increments the counter for each allocation decision.
func (s *PromSink) RecordAssignments(evs []coremetrics.AssignmentEvent) error {
	for _, e := range evs {
		s.events.WithLabelValues(e.Source, strconv.FormatBool(e.Is3PL), strconv.FormatBool(e.Waitlisted)).Inc()
	}
	return nil
}

// RecordOccupancy sets the occupancy gauges.
func (s *PromSink) RecordOccupancy(o coremetrics.OccupancySample) error {
	s.docks.Set(float64(o.OccupiedDocks))
	s.waiting.Set(float64(o.WaitingCount))
	return nil
}
