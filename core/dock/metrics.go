package dock

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	assignmentsTotal    *prometheus.CounterVec
	waitlistedTotal     *prometheus.CounterVec
	releasesTotal       prometheus.Counter
	rebalancePlacements prometheus.Counter
	rebalanceRunsTotal  prometheus.Counter
	waitingQueueLength  prometheus.Gauge
	occupiedDocks       prometheus.Gauge
	persistenceFailures prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec, prometheus.Counter, prometheus.Counter, prometheus.Counter, prometheus.Gauge, prometheus.Gauge, prometheus.Counter) {
	asn := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dock_assignments_total",
			Help: "Number of vehicles assigned to a dock",
		},
		[]string{"source"},
	)
	wait := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dock_waitlisted_total",
			Help: "Number of vehicles sent to the waiting list",
		},
		[]string{"source"},
	)
	rel := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dock_releases_total",
			Help: "Number of dock releases",
		},
	)
	place := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dock_rebalance_placements_total",
			Help: "Number of waiting vehicles placed by the rebalancer",
		},
	)
	runs := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dock_rebalance_runs_total",
			Help: "Number of rebalance sweeps",
		},
	)
	queue := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dock_waiting_queue_length",
			Help: "Current waiting list length",
		},
	)
	occ := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dock_occupied_docks",
			Help: "Docks currently holding at least one vehicle",
		},
	)
	pf := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dock_persistence_failures_total",
			Help: "Movement log writes that failed and were swallowed",
		},
	)
	return asn, wait, rel, place, runs, queue, occ, pf
}

func init() {
	assignmentsTotal, waitlistedTotal, releasesTotal, rebalancePlacements,
		rebalanceRunsTotal, waitingQueueLength, occupiedDocks, persistenceFailures = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dock metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(assignmentsTotal, waitlistedTotal, releasesTotal,
		rebalancePlacements, rebalanceRunsTotal, waitingQueueLength,
		occupiedDocks, persistenceFailures)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	assignmentsTotal, waitlistedTotal, releasesTotal, rebalancePlacements,
		rebalanceRunsTotal, waitingQueueLength, occupiedDocks, persistenceFailures = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
