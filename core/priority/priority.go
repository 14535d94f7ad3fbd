// Package priority implements the serving-order comparator applied to dock
// occupants and the waiting queue: FRK/GGN sources first, then
// lateness-vs-buffer against the route master schedule with the promise time
// as tie-break.
package priority

import (
	"sort"

	"github.com/kilianp07/dockyard/core/model"
	"github.com/kilianp07/dockyard/core/routes"
)

// LatenessBufferMinutes is the tolerance window separating "on schedule"
// from "delayed" vehicles.
const LatenessBufferMinutes = 30.0

func topPriority(source string) bool {
	return source == "FRK" || source == "GGN"
}

// Compare orders two sources for service. now is fractional minutes since
// midnight. A negative result means a serves before b. Sources missing from
// the route master compare equal, so ordering among them is whatever a
// stable sort preserves; callers must sort stably and treat that order as
// best-effort.
func Compare(table *routes.Table, now float64, a, b string) int {
	prioA, prioB := topPriority(a), topPriority(b)
	if prioA != prioB {
		if prioA {
			return -1
		}
		return 1
	}

	ra, okA := table.Lookup(a)
	rb, okB := table.Lookup(b)
	if !okA || !okB {
		return 0
	}

	lateA := now-ra.DockIn > LatenessBufferMinutes
	lateB := now-rb.DockIn > LatenessBufferMinutes
	if lateA != lateB {
		// The in-buffer vehicle serves first.
		if lateB {
			return -1
		}
		return 1
	}
	switch {
	case ra.Promise < rb.Promise:
		return -1
	case ra.Promise > rb.Promise:
		return 1
	}
	return 0
}

// SortWaiting reorders the waiting queue in place into service order.
func SortWaiting(table *routes.Table, now float64, entries []model.WaitingEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return Compare(table, now, entries[i].Source, entries[j].Source) < 0
	})
}

// RankDocks reorders docks in place for display: occupied docks in service
// order of their first occupant, empty docks after, by dock number.
func RankDocks(table *routes.Table, now float64, docks []model.Dock) {
	sort.SliceStable(docks, func(i, j int) bool {
		a, b := docks[i], docks[j]
		if a.Occupied() != b.Occupied() {
			return a.Occupied()
		}
		if !a.Occupied() {
			return a.Number < b.Number
		}
		return Compare(table, now, a.Records[0].Source, b.Records[0].Source) < 0
	})
}
