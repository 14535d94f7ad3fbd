package dock

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kilianp07/dockyard/core/model"
	"github.com/kilianp07/dockyard/core/pool"
	"github.com/kilianp07/dockyard/core/routes"
	"github.com/kilianp07/dockyard/infra/logger"
	"github.com/kilianp07/dockyard/internal/eventbus"
)

func testTable() *routes.Table {
	return routes.New([]routes.Record{
		{Source: "FRK", DockIn: 540, Promise: 700},
		{Source: "AAA", DockIn: 600, Promise: 650},
		{Source: "BBB", DockIn: 600, Promise: 640},
	})
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{}, testTable(), logger.NopLogger{})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	m.SetClock(func() time.Time {
		return time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)
	})
	return m
}

func req(vehicle, source string, is3PL bool) model.AssignmentRequest {
	return model.AssignmentRequest{VehicleNumber: vehicle, Source: source, UnloadingTime: "30", Is3PL: is3PL}
}

func fillPool(t *testing.T, m *Manager) {
	t.Helper()
	for i := 1; i <= 10; i++ {
		out, err := m.Assign(req(fmt.Sprintf("FILL%d", i), "X", false))
		if err != nil || !out.Assigned {
			t.Fatalf("fill %d: %+v %v", i, out, err)
		}
	}
}

func TestAssignThenWaitlist(t *testing.T) {
	m := newTestManager(t)
	fillPool(t, m)
	out, err := m.Assign(req("W1", "AAA", false))
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if !out.Waitlisted || out.Assigned {
		t.Fatalf("outcome %+v, want waitlisted", out)
	}
	snap := m.Status()
	if len(snap.WaitingVehicles) != 1 || snap.WaitingVehicles[0].VehicleNumber != "W1" {
		t.Fatalf("waiting list %+v", snap.WaitingVehicles)
	}
	if snap.WaitingVehicles[0].Sequence != 1 {
		t.Fatalf("sequence %d, want 1", snap.WaitingVehicles[0].Sequence)
	}
}

func TestDuplicateVehicleInPoolAndQueue(t *testing.T) {
	m := newTestManager(t)
	out, err := m.Assign(req("V1", "X", false))
	if err != nil || !out.Assigned {
		t.Fatalf("assign: %+v %v", out, err)
	}
	if _, err := m.Assign(req("V1", "X", false)); !errors.Is(err, pool.ErrDuplicateVehicle) {
		t.Fatalf("pool duplicate err = %v", err)
	}
	fillPool(t, m)
	if _, err := m.Assign(req("W1", "AAA", false)); err != nil {
		t.Fatalf("waitlist: %v", err)
	}
	if _, err := m.Assign(req("W1", "AAA", false)); !errors.Is(err, pool.ErrDuplicateVehicle) {
		t.Fatalf("queue duplicate err = %v", err)
	}
}

func TestReleaseRebalancesWaitingVehicle(t *testing.T) {
	m := newTestManager(t)
	fillPool(t, m)
	if _, err := m.Assign(req("W1", "AAA", false)); err != nil {
		t.Fatalf("waitlist: %v", err)
	}
	out, err := m.Release("FILL1-1")
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if out.DockNumber != 1 || out.VehicleNumber != "FILL1" {
		t.Fatalf("release outcome %+v", out)
	}
	snap := m.Status()
	if len(snap.WaitingVehicles) != 0 {
		t.Fatalf("waiting list not drained: %+v", snap.WaitingVehicles)
	}
	found := false
	for _, d := range snap.Docks {
		for _, r := range d.Records {
			if r.VehicleNumber == "W1" {
				found = true
				if d.DockNumber != 1 {
					t.Fatalf("W1 on dock %d, want freed dock 1", d.DockNumber)
				}
			}
		}
	}
	if !found {
		t.Fatal("W1 not placed after release")
	}
}

func TestRebalanceServesByPriority(t *testing.T) {
	m := newTestManager(t)
	fillPool(t, m)
	// BBB has the earlier promise, FRK has unconditional priority.
	for _, r := range []model.AssignmentRequest{req("A1", "AAA", false), req("B1", "BBB", false), req("F1", "FRK", false)} {
		if _, err := m.Assign(r); err != nil {
			t.Fatalf("waitlist %s: %v", r.VehicleNumber, err)
		}
	}
	snap := m.Status()
	order := []string{}
	for _, w := range snap.WaitingVehicles {
		order = append(order, w.VehicleNumber)
	}
	if order[0] != "F1" || order[1] != "B1" || order[2] != "A1" {
		t.Fatalf("service order %v, want [F1 B1 A1]", order)
	}
	if _, err := m.Release("FILL3-3"); err != nil {
		t.Fatalf("release: %v", err)
	}
	snap = m.Status()
	for _, w := range snap.WaitingVehicles {
		if w.VehicleNumber == "F1" {
			t.Fatal("F1 still waiting after a dock freed")
		}
	}
}

func TestRebalanceKeepsUnplaceableEntry(t *testing.T) {
	m := newTestManager(t)
	fillPool(t, m)
	// A 3PL vehicle can only use docks 7-9.
	if _, err := m.Assign(req("T1", "X", true)); err != nil {
		t.Fatalf("waitlist: %v", err)
	}
	// Freeing dock 2 opens capacity, but not for the 3PL head.
	if _, err := m.Release("FILL2-2"); err != nil {
		t.Fatalf("release: %v", err)
	}
	snap := m.Status()
	if len(snap.WaitingVehicles) != 1 || snap.WaitingVehicles[0].VehicleNumber != "T1" {
		t.Fatalf("3PL entry lost from queue: %+v", snap.WaitingVehicles)
	}
	// Freeing a zone dock places it.
	if _, err := m.Release("FILL8-8"); err != nil {
		t.Fatalf("release: %v", err)
	}
	snap = m.Status()
	if len(snap.WaitingVehicles) != 0 {
		t.Fatalf("3PL entry still waiting: %+v", snap.WaitingVehicles)
	}
}

func TestPHScenarioThroughManager(t *testing.T) {
	// Shrink to a single dock so PH capacity is the only capacity.
	mgr, err := NewManager(Config{Size: 1, ThreePLStart: 1, ThreePLEnd: 1, PHCapacity: 2}, testTable(), logger.NopLogger{})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })

	o1, err := mgr.Assign(req("P1", "PH", false))
	if err != nil || !o1.Assigned {
		t.Fatalf("P1: %+v %v", o1, err)
	}
	o2, err := mgr.Assign(req("P2", "PH", false))
	if err != nil || !o2.Assigned || o2.DockNumber != o1.DockNumber {
		t.Fatalf("P2 should share dock %d: %+v %v", o1.DockNumber, o2, err)
	}
	o3, err := mgr.Assign(req("P3", "PH", false))
	if err != nil || !o3.Waitlisted {
		t.Fatalf("P3 should wait: %+v %v", o3, err)
	}
	// Releasing one sibling leaves the dock shared and lets P3 in.
	if _, err := mgr.Release(o1.RecordID); err != nil {
		t.Fatalf("release: %v", err)
	}
	snap := mgr.Status()
	if len(snap.WaitingVehicles) != 0 {
		t.Fatalf("P3 still waiting: %+v", snap.WaitingVehicles)
	}
	if n := len(snap.Docks[0].Records); n != 2 {
		t.Fatalf("dock holds %d records, want 2", n)
	}
}

func TestInitializeClearsEverything(t *testing.T) {
	m := newTestManager(t)
	fillPool(t, m)
	if _, err := m.Assign(req("W1", "AAA", false)); err != nil {
		t.Fatalf("waitlist: %v", err)
	}
	m.Initialize()
	snap := m.Status()
	if len(snap.WaitingVehicles) != 0 {
		t.Fatal("waiting list survived initialize")
	}
	for _, d := range snap.Docks {
		if d.Status != model.StatusAvailable || len(d.Records) != 0 {
			t.Fatalf("dock %d not fresh: %+v", d.DockNumber, d)
		}
	}
	// Idempotent.
	m.Initialize()
	if snap := m.Status(); len(snap.Docks) != 10 {
		t.Fatalf("pool size %d after second initialize", len(snap.Docks))
	}
}

func TestDisabledDockReportedAndSkipped(t *testing.T) {
	m := newTestManager(t)
	if err := m.Disable(5); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if err := m.Disable(11); !errors.Is(err, pool.ErrDockNotFound) {
		t.Fatalf("disable unknown err = %v", err)
	}
	snap := m.Status()
	for _, d := range snap.Docks {
		if d.DockNumber == 5 && d.Status != model.StatusDisabled {
			t.Fatalf("dock 5 status %s", d.Status)
		}
	}
	for i := 0; i < 9; i++ {
		out, err := m.Assign(req(fmt.Sprintf("V%d", i), "X", false))
		if err != nil || !out.Assigned {
			t.Fatalf("assign %d: %+v %v", i, out, err)
		}
		if out.DockNumber == 5 {
			t.Fatal("assigned to disabled dock 5")
		}
	}
}

func TestEnableTriggersSweep(t *testing.T) {
	m := newTestManager(t)
	if err := m.Disable(10); err != nil {
		t.Fatalf("disable: %v", err)
	}
	for i := 1; i <= 9; i++ {
		if _, err := m.Assign(req(fmt.Sprintf("V%d", i), "X", false)); err != nil {
			t.Fatalf("assign: %v", err)
		}
	}
	if _, err := m.Assign(req("W1", "AAA", false)); err != nil {
		t.Fatalf("waitlist: %v", err)
	}
	if err := m.Enable(10); err != nil {
		t.Fatalf("enable: %v", err)
	}
	snap := m.Status()
	if len(snap.WaitingVehicles) != 0 {
		t.Fatalf("waiting vehicle not placed on enable: %+v", snap.WaitingVehicles)
	}
}

func TestRebalanceTickKeepsQueueIntact(t *testing.T) {
	m := newTestManager(t)
	fillPool(t, m)
	if _, err := m.Assign(req("W1", "AAA", false)); err != nil {
		t.Fatalf("waitlist: %v", err)
	}
	// No capacity: the periodic sweep must neither place nor drop the entry.
	m.Rebalance()
	snap := m.Status()
	if len(snap.WaitingVehicles) != 1 || snap.WaitingVehicles[0].VehicleNumber != "W1" {
		t.Fatalf("tick corrupted queue: %+v", snap.WaitingVehicles)
	}
	// Once capacity opens the same sweep places it.
	if _, err := m.Release("FILL4-4"); err != nil {
		t.Fatalf("release: %v", err)
	}
	m.Rebalance()
	if snap := m.Status(); len(snap.WaitingVehicles) != 0 {
		t.Fatalf("tick left waiting: %+v", snap.WaitingVehicles)
	}
}

func TestStatusEventPublished(t *testing.T) {
	m := newTestManager(t)
	bus := eventbus.New[model.Snapshot](4)
	m.SetEventBus(bus)
	sub := bus.Subscribe()
	if _, err := m.Assign(req("V1", "X", false)); err != nil {
		t.Fatalf("assign: %v", err)
	}
	select {
	case snap := <-sub:
		if snap.OccupiedDocks() != 1 {
			t.Fatalf("snapshot occupancy %d, want 1", snap.OccupiedDocks())
		}
	case <-time.After(time.Second):
		t.Fatal("no dockStatusUpdate event published")
	}
}
