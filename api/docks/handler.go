// Package docks exposes the dock allocation engine over HTTP: the six JSON
// endpoints callers depend on plus the websocket status stream.
package docks

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/kilianp07/dockyard/core/dock"
	"github.com/kilianp07/dockyard/core/logger"
	"github.com/kilianp07/dockyard/core/model"
	"github.com/kilianp07/dockyard/core/pool"
)

// Handler serves the dock management API.
type Handler struct {
	mgr *dock.Manager
	log logger.Logger
}

// New creates a Handler over the manager.
func New(mgr *dock.Manager, log logger.Logger) *Handler {
	return &Handler{mgr: mgr, log: log}
}

// Register attaches all endpoints to the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/", h.health)
	mux.HandleFunc("/api/assign-dock", h.assign)
	mux.HandleFunc("/api/release-dock", h.release)
	mux.HandleFunc("/api/initialize-docks", h.initialize)
	mux.HandleFunc("/api/disable-dock", h.disable)
	mux.HandleFunc("/api/enable-dock", h.enable)
	mux.HandleFunc("/api/dock-status", h.status)
}

type messageResponse struct {
	Message string `json:"message"`
}

type releaseResponse struct {
	Message       string `json:"message"`
	DockNumber    int    `json:"dockNumber"`
	VehicleNumber string `json:"vehicleNumber"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, messageResponse{Message: fmt.Sprintf(format, args...)})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeMessage(w, http.StatusOK, "Server is running fine!")
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req model.AssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.VehicleNumber == "" {
		writeMessage(w, http.StatusBadRequest, "vehicleNumber is required")
		return
	}
	out, err := h.mgr.Assign(req)
	if err != nil {
		if errors.Is(err, pool.ErrDuplicateVehicle) {
			writeMessage(w, http.StatusBadRequest, "Invalid Vehicle Number!")
			return
		}
		h.log.Errorf("assign %s: %v", req.VehicleNumber, err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	if out.Assigned {
		writeMessage(w, http.StatusOK, "Dock %d assigned to vehicle %s", out.DockNumber, req.VehicleNumber)
		return
	}
	writeMessage(w, http.StatusOK, "All docks are full or the vehicle is late, added to waiting list")
}

func (h *Handler) release(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		DockID string `json:"dockId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DockID == "" {
		writeMessage(w, http.StatusBadRequest, "dockId is required")
		return
	}
	out, err := h.mgr.Release(req.DockID)
	switch {
	case errors.Is(err, pool.ErrRecordNotFound), errors.Is(err, pool.ErrDockNotFound):
		writeMessage(w, http.StatusNotFound, "Dock not found.")
		return
	case errors.Is(err, pool.ErrNotOccupied):
		writeMessage(w, http.StatusBadRequest, "Dock is not occupied.")
		return
	case err != nil:
		h.log.Errorf("release %s: %v", req.DockID, err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, releaseResponse{
		Message:       fmt.Sprintf("Dock %d is now available. Vehicle %s has been undocked.", out.DockNumber, out.VehicleNumber),
		DockNumber:    out.DockNumber,
		VehicleNumber: out.VehicleNumber,
	})
}

func (h *Handler) initialize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.mgr.Initialize()
	writeMessage(w, http.StatusOK, "Docks are initialized")
}

func (h *Handler) disable(w http.ResponseWriter, r *http.Request) {
	h.setEnabled(w, r, false)
}

func (h *Handler) enable(w http.ResponseWriter, r *http.Request) {
	h.setEnabled(w, r, true)
}

func (h *Handler) setEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		DockNumber int `json:"dockNumber"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DockNumber == 0 {
		writeMessage(w, http.StatusBadRequest, "dockNumber is required")
		return
	}
	var err error
	if enabled {
		err = h.mgr.Enable(req.DockNumber)
	} else {
		err = h.mgr.Disable(req.DockNumber)
	}
	if errors.Is(err, pool.ErrDockNotFound) {
		writeMessage(w, http.StatusNotFound, "Dock %d does not exist.", req.DockNumber)
		return
	}
	if err != nil {
		h.log.Errorf("set enabled dock %d: %v", req.DockNumber, err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	writeMessage(w, http.StatusOK, "Dock %d is now %s", req.DockNumber, state)
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.mgr.Status())
}
