package docks

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kilianp07/dockyard/core/dock"
	"github.com/kilianp07/dockyard/core/logger"
	"github.com/kilianp07/dockyard/core/model"
	"github.com/kilianp07/dockyard/internal/eventbus"
)

const writeTimeout = 10 * time.Second

// statusEvent is the wire envelope pushed to websocket listeners.
type statusEvent struct {
	Event string         `json:"event"`
	Data  model.Snapshot `json:"data"`
}

// StreamHandler upgrades connections to websocket and pushes a
// dockStatusUpdate event after every successful mutation.
type StreamHandler struct {
	mgr      *dock.Manager
	bus      *eventbus.TypedBus[model.Snapshot]
	log      logger.Logger
	upgrader websocket.Upgrader
}

// NewStreamHandler creates the websocket status stream.
func NewStreamHandler(mgr *dock.Manager, bus *eventbus.TypedBus[model.Snapshot], log logger.Logger) *StreamHandler {
	return &StreamHandler{
		mgr: mgr,
		bus: bus,
		log: log,
		upgrader: websocket.Upgrader{
			// The status stream is read-only broadcast data.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("websocket upgrade: %v", err)
		return
	}
	defer func() { _ = conn.Close() }()

	sub := h.bus.Subscribe()
	defer h.bus.Unsubscribe(sub)

	// Drain reads so close frames are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.write(conn, h.mgr.Status()); err != nil {
		return
	}
	for {
		select {
		case snap, ok := <-sub:
			if !ok {
				return
			}
			if err := h.write(conn, snap); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *StreamHandler) write(conn *websocket.Conn, snap model.Snapshot) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	if err := conn.WriteJSON(statusEvent{Event: "dockStatusUpdate", Data: snap}); err != nil {
		h.log.Debugf("websocket write: %v", err)
		return err
	}
	return nil
}
