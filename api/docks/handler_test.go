package docks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/dockyard/core/dock"
	"github.com/kilianp07/dockyard/core/model"
	"github.com/kilianp07/dockyard/core/routes"
	"github.com/kilianp07/dockyard/infra/logger"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	table := routes.New([]routes.Record{
		{Source: "AAA", DockIn: 600, Promise: 650},
	})
	mgr, err := dock.NewManager(dock.Config{}, table, logger.NopLogger{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })

	mux := http.NewServeMux()
	New(mgr, logger.NopLogger{}).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) (*http.Response, messageResponse) {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	var msg messageResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&msg))
	return resp, msg
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var msg messageResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&msg))
	require.Equal(t, "Server is running fine!", msg.Message)
}

func TestAssignEndpoint(t *testing.T) {
	srv := newTestServer(t)
	req := model.AssignmentRequest{VehicleNumber: "V1", Source: "AAA", UnloadingTime: "30"}

	resp, msg := postJSON(t, srv.URL+"/api/assign-dock", req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Dock 1 assigned to vehicle V1", msg.Message)

	// Same vehicle again is rejected.
	resp, msg = postJSON(t, srv.URL+"/api/assign-dock", req)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Invalid Vehicle Number!", msg.Message)
}

func TestAssignEndpointValidation(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := postJSON(t, srv.URL+"/api/assign-dock", map[string]string{"source": "AAA"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	r, err := http.Get(srv.URL + "/api/assign-dock")
	require.NoError(t, err)
	_ = r.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, r.StatusCode)
}

func TestAssignEndpointWaitlists(t *testing.T) {
	srv := newTestServer(t)
	for i := 1; i <= 10; i++ {
		req := model.AssignmentRequest{VehicleNumber: fmt.Sprintf("V%d", i), Source: "X", UnloadingTime: "30"}
		resp, _ := postJSON(t, srv.URL+"/api/assign-dock", req)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, msg := postJSON(t, srv.URL+"/api/assign-dock", model.AssignmentRequest{VehicleNumber: "W1", Source: "AAA"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "All docks are full or the vehicle is late, added to waiting list", msg.Message)
}

func TestReleaseEndpoint(t *testing.T) {
	srv := newTestServer(t)
	_, _ = postJSON(t, srv.URL+"/api/assign-dock", model.AssignmentRequest{VehicleNumber: "V1", Source: "AAA"})

	buf, _ := json.Marshal(map[string]string{"dockId": "V1-1"})
	resp, err := http.Post(srv.URL+"/api/release-dock", "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rel releaseResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rel))
	require.Equal(t, 1, rel.DockNumber)
	require.Equal(t, "V1", rel.VehicleNumber)
	require.Equal(t, "Dock 1 is now available. Vehicle V1 has been undocked.", rel.Message)
}

func TestReleaseEndpointErrors(t *testing.T) {
	srv := newTestServer(t)

	// Dock 3 exists but nothing is on it.
	resp, msg := postJSON(t, srv.URL+"/api/release-dock", map[string]string{"dockId": "V9-3"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Dock is not occupied.", msg.Message)

	resp, msg = postJSON(t, srv.URL+"/api/release-dock", map[string]string{"dockId": "V9-42"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "Dock not found.", msg.Message)

	resp, _ = postJSON(t, srv.URL+"/api/release-dock", map[string]string{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDisableEnableEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, msg := postJSON(t, srv.URL+"/api/disable-dock", map[string]int{"dockNumber": 5})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Dock 5 is now disabled", msg.Message)

	resp, msg = postJSON(t, srv.URL+"/api/disable-dock", map[string]int{"dockNumber": 42})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "Dock 42 does not exist.", msg.Message)

	resp, msg = postJSON(t, srv.URL+"/api/enable-dock", map[string]int{"dockNumber": 5})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Dock 5 is now enabled", msg.Message)
}

func TestInitializeEndpoint(t *testing.T) {
	srv := newTestServer(t)
	_, _ = postJSON(t, srv.URL+"/api/assign-dock", model.AssignmentRequest{VehicleNumber: "V1", Source: "AAA"})

	resp, msg := postJSON(t, srv.URL+"/api/initialize-docks", map[string]string{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Docks are initialized", msg.Message)

	status, err := http.Get(srv.URL + "/api/dock-status")
	require.NoError(t, err)
	defer func() { _ = status.Body.Close() }()
	var snap model.Snapshot
	require.NoError(t, json.NewDecoder(status.Body).Decode(&snap))
	require.Len(t, snap.Docks, 10)
	require.Equal(t, 0, snap.OccupiedDocks())
}

func TestStatusEndpoint(t *testing.T) {
	srv := newTestServer(t)
	_, _ = postJSON(t, srv.URL+"/api/assign-dock", model.AssignmentRequest{VehicleNumber: "V1", Source: "AAA"})

	resp, err := http.Get(srv.URL + "/api/dock-status")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap model.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	require.Len(t, snap.Docks, 10)
	require.Equal(t, 1, snap.OccupiedDocks())

	bad, err := http.Post(srv.URL+"/api/dock-status", "application/json", nil)
	require.NoError(t, err)
	_ = bad.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, bad.StatusCode)
}
