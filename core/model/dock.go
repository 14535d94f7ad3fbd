package model

import "time"

// Dock status values reported in snapshots.
const (
	StatusAvailable = "available"
	StatusOccupied  = "occupied"
	StatusDisabled  = "disabled"
)

// AssignmentRequest describes an arriving vehicle asking for a dock.
type AssignmentRequest struct {
	VehicleNumber string `json:"vehicleNumber"`
	Source        string `json:"source"`
	UnloadingTime string `json:"unloadingTime"`
	Is3PL         bool   `json:"is3PL"`
}

// AssignmentRecord represents one vehicle's occupancy of one dock. Its ID is
// the composite "<vehicle>-<dock>" key used to release the dock later.
type AssignmentRecord struct {
	ID            string    `json:"id"`
	VehicleNumber string    `json:"vehicleNumber"`
	Source        string    `json:"source"`
	UnloadingTime string    `json:"unloadingTime"`
	Is3PL         bool      `json:"is3PL"`
	AssignedAt    time.Time `json:"assignedAt"`
}

// Dock is a single loading bay. A dock normally holds at most one record;
// PH vehicles may double up to two on the same dock.
type Dock struct {
	Number  int
	Enabled bool
	Records []AssignmentRecord
}

// Occupied reports whether the dock holds at least one live record.
func (d Dock) Occupied() bool { return len(d.Records) > 0 }

// WaitingEntry is a vehicle parked on the waiting list until a dock frees up.
type WaitingEntry struct {
	VehicleNumber string    `json:"vehicleNumber"`
	Source        string    `json:"source"`
	UnloadingTime string    `json:"unloadingTime"`
	Is3PL         bool      `json:"is3PL"`
	EnqueuedAt    time.Time `json:"enqueuedAt"`
}

// Request converts the entry back into the assignment request it came from.
func (e WaitingEntry) Request() AssignmentRequest {
	return AssignmentRequest{
		VehicleNumber: e.VehicleNumber,
		Source:        e.Source,
		UnloadingTime: e.UnloadingTime,
		Is3PL:         e.Is3PL,
	}
}

// DockView is the wire representation of a dock in status snapshots.
type DockView struct {
	DockNumber int                `json:"dockNumber"`
	Status     string             `json:"status"`
	Records    []AssignmentRecord `json:"records,omitempty"`
}

// WaitingView is the wire representation of a waiting vehicle. Sequence is
// 1-based service order.
type WaitingView struct {
	Sequence      int       `json:"sequence"`
	VehicleNumber string    `json:"vehicleNumber"`
	Source        string    `json:"source"`
	UnloadingTime string    `json:"unloadingTime"`
	Is3PL         bool      `json:"is3PL"`
	EnqueuedAt    time.Time `json:"enqueuedAt"`
}

// Snapshot is the full dock pool and waiting queue state pushed to listeners
// after every mutation and served by the status endpoint.
type Snapshot struct {
	Docks           []DockView    `json:"docks"`
	WaitingVehicles []WaitingView `json:"waitingVehicles"`
}

// OccupiedDocks counts docks holding at least one record.
func (s Snapshot) OccupiedDocks() int {
	n := 0
	for _, d := range s.Docks {
		if len(d.Records) > 0 {
			n++
		}
	}
	return n
}
