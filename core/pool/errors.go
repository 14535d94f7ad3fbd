package pool

import "errors"

var (
	// ErrDuplicateVehicle means the vehicle already holds a live assignment.
	ErrDuplicateVehicle = errors.New("vehicle already has an active assignment")
	// ErrDockNotFound means no dock carries the requested number.
	ErrDockNotFound = errors.New("dock not found")
	// ErrRecordNotFound means no live assignment record matches the identity.
	ErrRecordNotFound = errors.New("assignment record not found")
	// ErrNotOccupied means the targeted dock holds no live assignment record.
	ErrNotOccupied = errors.New("dock is not occupied")
	// ErrNoDockAvailable signals that the request must go to the waiting
	// list. It is a routing outcome, not a hard failure.
	ErrNoDockAvailable = errors.New("no dock available")
)
