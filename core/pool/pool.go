// Package pool owns the dock pool state and the assignment policy: which
// dock an arriving vehicle receives, how PH vehicles share a bay and how
// docks are disabled, enabled and released. The pool is not safe for
// concurrent use on its own; the dock manager serializes access.
package pool

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/dockyard/core/model"
)

// MultiplexSource is the source code whose vehicles may share one dock.
const MultiplexSource = "PH"

// Pool is the fixed-size collection of dock slots.
type Pool struct {
	docks     []*model.Dock
	zoneStart int
	zoneEnd   int
	phCap     int
}

// New creates a pool of size enabled empty docks numbered 1..size. The
// inclusive zone [zoneStart, zoneEnd] is reserved for 3PL vehicles and phCap
// bounds concurrent PH occupants per dock.
func New(size, zoneStart, zoneEnd, phCap int) *Pool {
	p := &Pool{zoneStart: zoneStart, zoneEnd: zoneEnd, phCap: phCap}
	p.docks = freshDocks(size)
	return p
}

func freshDocks(size int) []*model.Dock {
	docks := make([]*model.Dock, size)
	for i := range docks {
		docks[i] = &model.Dock{Number: i + 1, Enabled: true}
	}
	return docks
}

// Initialize replaces every dock with a fresh, enabled, empty one. Existing
// assignments are discarded.
func (p *Pool) Initialize() {
	p.docks = freshDocks(len(p.docks))
}

// Size returns the fixed number of docks.
func (p *Pool) Size() int { return len(p.docks) }

// Docks returns a deep copy of the dock slots in dock-number order.
func (p *Pool) Docks() []model.Dock {
	out := make([]model.Dock, len(p.docks))
	for i, d := range p.docks {
		out[i] = *d
		out[i].Records = append([]model.AssignmentRecord(nil), d.Records...)
	}
	return out
}

// HasVehicle reports whether the vehicle already holds a live record.
func (p *Pool) HasVehicle(vehicleNumber string) bool {
	for _, d := range p.docks {
		for _, r := range d.Records {
			if r.VehicleNumber == vehicleNumber {
				return true
			}
		}
	}
	return false
}

// HasCapacity reports whether any dock could still accept some assignment:
// an enabled empty dock, or an enabled dock with PH room to spare.
func (p *Pool) HasCapacity() bool {
	for _, d := range p.docks {
		if !d.Enabled {
			continue
		}
		if len(d.Records) == 0 {
			return true
		}
		if p.phRoom(d) {
			return true
		}
	}
	return false
}

// Assign places the vehicle on a dock according to the allocation policy and
// returns the created record. Candidate order: the 3PL zone for 3PL
// vehicles, then the PH sharing path for PH vehicles, then the
// lowest-numbered enabled empty dock. A 3PL vehicle whose zone is full waits
// unless the PH path applies; it is never force-placed outside the zone.
func (p *Pool) Assign(req model.AssignmentRequest, at time.Time) (model.AssignmentRecord, int, error) {
	if p.HasVehicle(req.VehicleNumber) {
		return model.AssignmentRecord{}, 0, ErrDuplicateVehicle
	}
	if req.Is3PL {
		if d := p.firstEmptyInZone(); d != nil {
			return p.attach(d, req, at)
		}
		if req.Source != MultiplexSource {
			return model.AssignmentRecord{}, 0, ErrNoDockAvailable
		}
	}
	if req.Source == MultiplexSource {
		if d := p.sharedDockWithRoom(); d != nil {
			return p.attach(d, req, at)
		}
		if d := p.firstEmpty(); d != nil {
			return p.attach(d, req, at)
		}
		return model.AssignmentRecord{}, 0, ErrNoDockAvailable
	}
	if d := p.firstEmpty(); d != nil {
		return p.attach(d, req, at)
	}
	return model.AssignmentRecord{}, 0, ErrNoDockAvailable
}

// firstEmpty returns the lowest-numbered enabled dock with no records.
// Docks are held in ascending number order, which makes the lowest-number
// tie-break deterministic.
func (p *Pool) firstEmpty() *model.Dock {
	for _, d := range p.docks {
		if d.Enabled && len(d.Records) == 0 {
			return d
		}
	}
	return nil
}

func (p *Pool) firstEmptyInZone() *model.Dock {
	for _, d := range p.docks {
		if d.Number < p.zoneStart || d.Number > p.zoneEnd {
			continue
		}
		if d.Enabled && len(d.Records) == 0 {
			return d
		}
	}
	return nil
}

// sharedDockWithRoom returns the lowest-numbered enabled dock occupied only
// by PH vehicles with room under the cap.
func (p *Pool) sharedDockWithRoom() *model.Dock {
	for _, d := range p.docks {
		if d.Enabled && len(d.Records) > 0 && p.phRoom(d) {
			return d
		}
	}
	return nil
}

func (p *Pool) phRoom(d *model.Dock) bool {
	if len(d.Records) == 0 || len(d.Records) >= p.phCap {
		return false
	}
	for _, r := range d.Records {
		if r.Source != MultiplexSource {
			return false
		}
	}
	return true
}

func (p *Pool) attach(d *model.Dock, req model.AssignmentRequest, at time.Time) (model.AssignmentRecord, int, error) {
	rec := model.AssignmentRecord{
		ID:            recordID(req.VehicleNumber, d.Number),
		VehicleNumber: req.VehicleNumber,
		Source:        req.Source,
		UnloadingTime: req.UnloadingTime,
		Is3PL:         req.Is3PL,
		AssignedAt:    at,
	}
	// The composite key is a designed identity; collisions are checked
	// explicitly rather than assumed away.
	for _, existing := range p.docks {
		for _, r := range existing.Records {
			if r.ID == rec.ID {
				return model.AssignmentRecord{}, 0, fmt.Errorf("record id %s already live: %w", rec.ID, ErrDuplicateVehicle)
			}
		}
	}
	d.Records = append(d.Records, rec)
	return rec, d.Number, nil
}

func recordID(vehicleNumber string, dockNumber int) string {
	return fmt.Sprintf("%s-%d", vehicleNumber, dockNumber)
}

// Release removes the assignment record with the given identity and returns
// it together with its dock number. When two PH records share the dock only
// the matching one is removed and the sibling keeps the dock. An identity
// pointing at an existing empty dock yields ErrNotOccupied; anything else
// unknown yields ErrRecordNotFound.
func (p *Pool) Release(id string) (model.AssignmentRecord, int, error) {
	for _, d := range p.docks {
		for i, r := range d.Records {
			if r.ID == id {
				d.Records = append(d.Records[:i], d.Records[i+1:]...)
				return r, d.Number, nil
			}
		}
	}
	if n, ok := dockSuffix(id); ok {
		if d := p.dock(n); d != nil && len(d.Records) == 0 {
			return model.AssignmentRecord{}, 0, ErrNotOccupied
		}
	}
	return model.AssignmentRecord{}, 0, ErrRecordNotFound
}

// dockSuffix extracts the dock number from a composite record id.
func dockSuffix(id string) (int, bool) {
	i := strings.LastIndexByte(id, '-')
	if i < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(id[i+1:])
	if err != nil {
		return 0, false
	}
	return n, true
}

func (p *Pool) dock(number int) *model.Dock {
	if number < 1 || number > len(p.docks) {
		return nil
	}
	return p.docks[number-1]
}

// Disable marks the dock unusable for new assignments. Current occupants
// stay until released.
func (p *Pool) Disable(number int) error {
	d := p.dock(number)
	if d == nil {
		return ErrDockNotFound
	}
	d.Enabled = false
	return nil
}

// Enable marks the dock usable again. Occupancy is untouched.
func (p *Pool) Enable(number int) error {
	d := p.dock(number)
	if d == nil {
		return ErrDockNotFound
	}
	d.Enabled = true
	return nil
}
