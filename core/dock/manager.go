// Package dock orchestrates the dock pool, the waiting queue and the
// rebalancer behind one mutex. Every mutation is a single atomic state
// transition; external side effects (status events, movement log writes,
// metric sinks) fire only after the mutation, outside the lock.
package dock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/dockyard/core/dock/logging"
	"github.com/kilianp07/dockyard/core/logger"
	"github.com/kilianp07/dockyard/core/metrics"
	"github.com/kilianp07/dockyard/core/model"
	"github.com/kilianp07/dockyard/core/pool"
	"github.com/kilianp07/dockyard/core/priority"
	"github.com/kilianp07/dockyard/core/routes"
	"github.com/kilianp07/dockyard/internal/eventbus"
)

const sideEffectTimeout = 5 * time.Second

// Manager serializes all mutations of the dock pool and waiting queue.
type Manager struct {
	pool     *pool.Pool
	waiting  []model.WaitingEntry
	table    *routes.Table
	interval time.Duration

	log   logger.Logger
	bus   *eventbus.TypedBus[model.Snapshot]
	store logging.Store
	sink  metrics.Sink
	now   func() time.Time

	ops chan func()
}

// AssignOutcome reports where an assignment request ended up.
type AssignOutcome struct {
	Assigned   bool
	DockNumber int
	RecordID   string
	Waitlisted bool
}

// ReleaseOutcome identifies the freed dock and the vehicle that left.
type ReleaseOutcome struct {
	DockNumber    int
	VehicleNumber string
}

// placement is a rebalancer success, carried out of the critical section so
// side effects can fire after unlock.
type placement struct {
	record model.AssignmentRecord
	dock   int
}

// NewManager creates a manager over a fresh pool. The route table and logger
// are required; event bus, movement store and metric sink are optional
// collaborators attached via setters.
func NewManager(cfg Config, table *routes.Table, log logger.Logger) (*Manager, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("dock config: %w", err)
	}
	if table == nil || log == nil {
		return nil, fmt.Errorf("dock: nil parameter provided to NewManager")
	}
	m := &Manager{
		pool:     pool.New(cfg.Size, cfg.ThreePLStart, cfg.ThreePLEnd, cfg.PHCapacity),
		table:    table,
		interval: time.Duration(cfg.RebalanceSeconds) * time.Second,
		log:      log,
		now:      time.Now,
		ops:      make(chan func()),
	}
	go m.loop()
	return m, nil
}

// loop is the single-writer actor: every mutation and status read runs here,
// so no two read-modify-write sequences can interleave.
func (m *Manager) loop() {
	for op := range m.ops {
		op()
	}
}

// do runs fn on the actor goroutine and waits for it to finish.
func (m *Manager) do(fn func()) {
	done := make(chan struct{})
	m.ops <- func() {
		fn()
		close(done)
	}
	<-done
}

// SetEventBus configures the bus receiving status snapshots.
func (m *Manager) SetEventBus(bus *eventbus.TypedBus[model.Snapshot]) {
	m.do(func() { m.bus = bus })
}

// SetStore configures the movement log store.
func (m *Manager) SetStore(store logging.Store) {
	m.do(func() { m.store = store })
}

// SetSink configures the metric sink.
func (m *Manager) SetSink(sink metrics.Sink) {
	m.do(func() { m.sink = sink })
}

// SetClock overrides the time source. Intended for tests.
func (m *Manager) SetClock(now func() time.Time) {
	m.do(func() { m.now = now })
}

// Close stops the actor loop. Pending operations complete first.
func (m *Manager) Close() error {
	close(m.ops)
	return nil
}

// Assign routes the request through the allocation policy. On success the
// vehicle gets a dock; when the pool has no candidate the vehicle joins the
// waiting list and an opportunistic rebalance runs.
func (m *Manager) Assign(req model.AssignmentRequest) (AssignOutcome, error) {
	var (
		out    AssignOutcome
		outErr error
		snap   model.Snapshot
		rec    model.AssignmentRecord
		placed []placement
	)
	m.do(func() {
		for _, w := range m.waiting {
			if w.VehicleNumber == req.VehicleNumber {
				outErr = pool.ErrDuplicateVehicle
				return
			}
		}
		now := m.now()
		var dockNo int
		var err error
		rec, dockNo, err = m.pool.Assign(req, now)
		switch {
		case err == nil:
			out = AssignOutcome{Assigned: true, DockNumber: dockNo, RecordID: rec.ID}
		case errors.Is(err, pool.ErrNoDockAvailable):
			m.waiting = append(m.waiting, model.WaitingEntry{
				VehicleNumber: req.VehicleNumber,
				Source:        req.Source,
				UnloadingTime: req.UnloadingTime,
				Is3PL:         req.Is3PL,
				EnqueuedAt:    now,
			})
			placed = m.rebalance(now)
			out = AssignOutcome{Waitlisted: true}
		default:
			outErr = err
			return
		}
		snap = m.snapshot(now)
	})
	if outErr != nil {
		return AssignOutcome{}, outErr
	}
	if out.Assigned {
		assignmentsTotal.WithLabelValues(req.Source).Inc()
		m.persistDockIn(rec, out.DockNumber)
		m.recordAssignment(rec, out.DockNumber, false)
	} else {
		waitlistedTotal.WithLabelValues(req.Source).Inc()
		m.recordAssignment(model.AssignmentRecord{
			VehicleNumber: req.VehicleNumber,
			Source:        req.Source,
			Is3PL:         req.Is3PL,
		}, 0, true)
	}
	m.afterPlacements(placed)
	m.publish(snap)
	return out, nil
}

// Release frees the record with the given identity and drains the waiting
// list into whatever capacity opened up.
func (m *Manager) Release(recordID string) (ReleaseOutcome, error) {
	var (
		out    ReleaseOutcome
		outErr error
		snap   model.Snapshot
		placed []placement
		at     time.Time
	)
	m.do(func() {
		rec, dockNo, err := m.pool.Release(recordID)
		if err != nil {
			outErr = err
			return
		}
		at = m.now()
		out = ReleaseOutcome{DockNumber: dockNo, VehicleNumber: rec.VehicleNumber}
		placed = m.rebalance(at)
		snap = m.snapshot(at)
	})
	if outErr != nil {
		return ReleaseOutcome{}, outErr
	}
	releasesTotal.Inc()
	m.persistDockOut(recordID, at)
	m.afterPlacements(placed)
	m.publish(snap)
	return out, nil
}

// Disable marks a dock unusable for new assignments.
func (m *Manager) Disable(dockNumber int) error {
	var outErr error
	var snap model.Snapshot
	m.do(func() {
		if outErr = m.pool.Disable(dockNumber); outErr == nil {
			snap = m.snapshot(m.now())
		}
	})
	if outErr != nil {
		return outErr
	}
	m.publish(snap)
	return nil
}

// Enable marks a dock usable again and sweeps the waiting list, since the
// dock may immediately take a waiting vehicle.
func (m *Manager) Enable(dockNumber int) error {
	var outErr error
	var snap model.Snapshot
	var placed []placement
	m.do(func() {
		if outErr = m.pool.Enable(dockNumber); outErr != nil {
			return
		}
		now := m.now()
		placed = m.rebalance(now)
		snap = m.snapshot(now)
	})
	if outErr != nil {
		return outErr
	}
	m.afterPlacements(placed)
	m.publish(snap)
	return nil
}

// Initialize atomically replaces the pool with fresh docks and empties the
// waiting list. In-flight state is discarded, not persisted.
func (m *Manager) Initialize() {
	var snap model.Snapshot
	m.do(func() {
		m.pool.Initialize()
		m.waiting = nil
		snap = m.snapshot(m.now())
	})
	m.publish(snap)
}

// Rebalance runs one waiting-list sweep. The periodic timer and admin
// tooling call it; release and enable sweep on their own.
func (m *Manager) Rebalance() {
	var snap model.Snapshot
	var placed []placement
	m.do(func() {
		now := m.now()
		placed = m.rebalance(now)
		snap = m.snapshot(now)
	})
	rebalanceRunsTotal.Inc()
	m.afterPlacements(placed)
	if len(placed) > 0 {
		m.publish(snap)
	}
}

// Status returns the current snapshot.
func (m *Manager) Status() model.Snapshot {
	var snap model.Snapshot
	m.do(func() { snap = m.snapshot(m.now()) })
	return snap
}

// Run drives the periodic rebalance until the context is canceled.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.Rebalance()
		case <-ctx.Done():
			return
		}
	}
}

// rebalance drains the waiting queue into available capacity in priority
// order. Entries the policy cannot place this pass are re-enqueued, never
// lost; the queue is reprioritized before each pop since relative lateness
// moves with the clock. Runs on the actor goroutine.
func (m *Manager) rebalance(now time.Time) []placement {
	var placed []placement
	var skipped []model.WaitingEntry
	nowMin := routes.MinutesOfDay(now)
	for len(m.waiting) > 0 && m.pool.HasCapacity() {
		priority.SortWaiting(m.table, nowMin, m.waiting)
		head := m.waiting[0]
		m.waiting = m.waiting[1:]
		rec, dockNo, err := m.pool.Assign(head.Request(), now)
		if err != nil {
			// Source/PH/zone mismatch for this candidate; keep it for
			// the next pass.
			skipped = append(skipped, head)
			continue
		}
		m.log.Infof("vehicle %s assigned to dock %d from waiting list", head.VehicleNumber, dockNo)
		placed = append(placed, placement{record: rec, dock: dockNo})
	}
	m.waiting = append(m.waiting, skipped...)
	priority.SortWaiting(m.table, nowMin, m.waiting)
	return placed
}

// snapshot builds the status payload: occupied docks ranked for display,
// waiting vehicles in service order. Runs on the actor goroutine.
func (m *Manager) snapshot(now time.Time) model.Snapshot {
	nowMin := routes.MinutesOfDay(now)
	docks := m.pool.Docks()
	priority.RankDocks(m.table, nowMin, docks)

	snap := model.Snapshot{Docks: make([]model.DockView, len(docks))}
	for i, d := range docks {
		status := model.StatusAvailable
		switch {
		case !d.Enabled:
			status = model.StatusDisabled
		case d.Occupied():
			status = model.StatusOccupied
		}
		snap.Docks[i] = model.DockView{DockNumber: d.Number, Status: status, Records: d.Records}
	}

	waiting := append([]model.WaitingEntry(nil), m.waiting...)
	priority.SortWaiting(m.table, nowMin, waiting)
	snap.WaitingVehicles = make([]model.WaitingView, len(waiting))
	for i, w := range waiting {
		snap.WaitingVehicles[i] = model.WaitingView{
			Sequence:      i + 1,
			VehicleNumber: w.VehicleNumber,
			Source:        w.Source,
			UnloadingTime: w.UnloadingTime,
			Is3PL:         w.Is3PL,
			EnqueuedAt:    w.EnqueuedAt,
		}
	}
	return snap
}

// publish pushes the snapshot to listeners and refreshes gauges. Called
// outside the critical section.
func (m *Manager) publish(snap model.Snapshot) {
	waitingQueueLength.Set(float64(len(snap.WaitingVehicles)))
	occupiedDocks.Set(float64(snap.OccupiedDocks()))
	if m.bus != nil {
		m.bus.Publish(snap)
	}
	if m.sink != nil {
		sample := metrics.OccupancySample{
			OccupiedDocks: snap.OccupiedDocks(),
			WaitingCount:  len(snap.WaitingVehicles),
			Timestamp:     time.Now(),
		}
		go func() {
			if err := m.sink.RecordOccupancy(sample); err != nil {
				m.log.Errorf("occupancy sink: %v", err)
			}
		}()
	}
}

func (m *Manager) afterPlacements(placed []placement) {
	for _, p := range placed {
		assignmentsTotal.WithLabelValues(p.record.Source).Inc()
		rebalancePlacements.Inc()
		m.persistDockIn(p.record, p.dock)
		m.recordAssignment(p.record, p.dock, false)
	}
}

// persistDockIn appends the movement asynchronously. A slow or failing store
// never stalls or rolls back dock allocation.
func (m *Manager) persistDockIn(rec model.AssignmentRecord, dockNumber int) {
	if m.store == nil {
		return
	}
	mv := logging.Movement{
		ID:            uuid.NewString(),
		RecordID:      rec.ID,
		VehicleNumber: rec.VehicleNumber,
		DockNumber:    dockNumber,
		Source:        rec.Source,
		DockIn:        rec.AssignedAt,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()
		if err := m.store.Append(ctx, mv); err != nil {
			persistenceFailures.Inc()
			m.log.Errorf("movement append for %s: %v", mv.RecordID, err)
		}
	}()
}

func (m *Manager) persistDockOut(recordID string, at time.Time) {
	if m.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()
		if err := m.store.MarkDockOut(ctx, recordID, at); err != nil {
			persistenceFailures.Inc()
			m.log.Errorf("movement dock-out for %s: %v", recordID, err)
		}
	}()
}

func (m *Manager) recordAssignment(rec model.AssignmentRecord, dockNumber int, waitlisted bool) {
	if m.sink == nil {
		return
	}
	ev := metrics.AssignmentEvent{
		VehicleNumber: rec.VehicleNumber,
		Source:        rec.Source,
		DockNumber:    dockNumber,
		Is3PL:         rec.Is3PL,
		Waitlisted:    waitlisted,
		Timestamp:     time.Now(),
	}
	go func() {
		if err := m.sink.RecordAssignments([]metrics.AssignmentEvent{ev}); err != nil {
			m.log.Errorf("assignment sink: %v", err)
		}
	}()
}
