package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"vmtracker/config"
	"vmtracker/internal/app"
	"vmtracker/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	t      *testing.T
	fiber  *fiber.App
	app    *app.App
	clock  *testclock.Clock
	admin  string
	driver string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := config.Config{
		GeneralVersion: "test",
		ServerPort:     8080,
		DatabaseDriver: config.DriverMemory,
		JWTSecret:      "handler-test-secret",
		JWTIssuer:      "vmtracker",
		JWTAudience:    "vmtracker-api",
	}
	clk := testclock.NewClock(time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC))

	application, err := app.NewWithConfig(cfg, clk)
	require.NoError(t, err)

	server := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	server.Use(application.Middleware.TraceID())
	require.NoError(t, Router(server, application))

	ts := &testServer{t: t, fiber: server, app: application, clock: clk}
	ts.admin = ts.token("admin-sub", "admin", "Admin")
	ts.driver = ts.token("driver-sub", "driver", "User")
	return ts
}

func (ts *testServer) token(subject, username, role string) string {
	ts.t.Helper()

	token, err := ts.app.Services.Auth.SignToken(services.Claims{
		Username:         username,
		Email:            username + "@example.com",
		Role:             role,
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
	}, time.Hour)
	require.NoError(ts.t, err)
	return token
}

func (ts *testServer) do(method, path, token string, body any) (int, []byte) {
	ts.t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := ts.fiber.Test(req, -1)
	require.NoError(ts.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(ts.t, err)
	return resp.StatusCode, raw
}

func (ts *testServer) doJSON(method, path, token string, body any) (int, map[string]any) {
	ts.t.Helper()

	status, raw := ts.do(method, path, token, body)
	out := map[string]any{}
	require.NoError(ts.t, json.Unmarshal(raw, &out), string(raw))
	return status, out
}

func (ts *testServer) addService(name string, cost, minReading, maxReading int) int {
	ts.t.Helper()

	status, body := ts.doJSON(http.MethodPost, "/api/maintenance-services", ts.admin, map[string]any{
		"ServiceName":     name,
		"ServiceCost":     cost,
		"MinimumOdometer": minReading,
		"MaximumOdometer": maxReading,
	})
	require.Equal(ts.t, http.StatusOK, status, body)
	return int(body["service"].(map[string]any)["id"].(float64))
}

func (ts *testServer) addVehicle(plate string) int {
	ts.t.Helper()

	status, body := ts.doJSON(http.MethodPost, "/api/vehicles", ts.driver, map[string]any{
		"vehicleType":        "Sedan",
		"licensePlateNumber": plate,
		"manufactureYear":    2020,
	})
	require.Equal(ts.t, http.StatusCreated, status, body)
	return int(body["vehicle"].(map[string]any)["id"].(float64))
}

func (ts *testServer) openRequest(vehicleID, serviceID int) int {
	ts.t.Helper()

	status, body := ts.doJSON(http.MethodPost, "/api/maintenance", ts.driver, map[string]any{
		"VehicleId": vehicleID,
		"ServiceId": serviceID,
		"Reading":   1200,
	})
	require.Equal(ts.t, http.StatusCreated, status, body)
	return int(body["request"].(map[string]any)["id"].(float64))
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.doJSON(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "vmtracker_api", body["service"])
	assert.Equal(t, config.DriverMemory, body["driver"])
}

func TestAuthorization(t *testing.T) {
	ts := newTestServer(t)

	expired := ts.token("late-sub", "late", "User")
	ts.clock.Advance(2 * time.Hour)
	ts.admin = ts.token("admin-sub", "admin", "Admin")
	ts.driver = ts.token("driver-sub", "driver", "User")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{name: "missing token", method: http.MethodGet, path: "/api/maintenance-services", status: http.StatusUnauthorized},
		{name: "garbage token", method: http.MethodGet, path: "/api/vehicles", token: "not-a-jwt", status: http.StatusUnauthorized},
		{name: "expired token", method: http.MethodGet, path: "/api/vehicles", token: expired, status: http.StatusUnauthorized},
		{name: "user on admin list", method: http.MethodGet, path: "/api/admin/maintenance-requests", token: ts.driver, status: http.StatusForbidden},
		{name: "user on admin vehicles", method: http.MethodGet, path: "/api/vehicles/admin", token: ts.driver, status: http.StatusForbidden},
		{name: "user adding service", method: http.MethodPost, path: "/api/maintenance-services", token: ts.driver, status: http.StatusForbidden},
		{name: "user reads catalog", method: http.MethodGet, path: "/api/maintenance-services", token: ts.driver, status: http.StatusOK},
		{name: "admin list", method: http.MethodGet, path: "/api/admin/maintenance-requests", token: ts.admin, status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, raw := ts.do(tt.method, tt.path, tt.token, nil)
			assert.Equal(t, tt.status, status, string(raw))
			if status >= http.StatusBadRequest {
				var body map[string]any
				require.NoError(t, json.Unmarshal(raw, &body))
				assert.NotEmpty(t, body["message"])
			}
		})
	}
}

func TestCatalogEndpoints(t *testing.T) {
	ts := newTestServer(t)

	ts.addService("Oil Change", 500, 0, 5000)

	status, body := ts.doJSON(http.MethodPost, "/api/maintenance-services", ts.admin, map[string]any{
		"ServiceName":     "oil change",
		"ServiceCost":     600,
		"MinimumOdometer": 0,
		"MaximumOdometer": 5000,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, body["message"])

	_, raw := ts.do(http.MethodGet, "/api/maintenance-services", ts.driver, nil)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Oil Change", list[0]["name"])
	assert.Equal(t, float64(5000), list[0]["maxOdometer"])

	status, body = ts.doJSON(http.MethodGet, "/api/maintenance-services/999", ts.driver, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Service not found.", body["message"])

	status, _ = ts.doJSON(http.MethodGet, "/api/maintenance-services/abc", ts.driver, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw = ts.do(http.MethodGet, "/api/maintenance-services/recommended?reading=4000", ts.driver, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Len(t, list, 1)

	status, _ = ts.doJSON(http.MethodGet, "/api/maintenance-services/recommended?reading=-1", ts.driver, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCatalogUpdateAndDelete(t *testing.T) {
	ts := newTestServer(t)
	serviceID := ts.addService("Brake Check", 750, 0, 20000)
	path := fmt.Sprintf("/api/maintenance-services/%d", serviceID)

	status, body := ts.doJSON(http.MethodPut, path, ts.admin, map[string]any{
		"ServiceName":     "Brake Inspection",
		"ServiceCost":     800,
		"MinimumOdometer": 0,
		"MaximumOdometer": 25000,
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Service updated successfully.", body["message"])
	assert.Equal(t, float64(serviceID), body["serviceId"])

	vehicleID := ts.addVehicle("ab 123")
	ts.openRequest(vehicleID, serviceID)

	status, body = ts.doJSON(http.MethodDelete, path, ts.admin, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, true, body["hasReferences"])
	assert.Equal(t, "Cannot delete this service because it is associated with maintenance requests.", body["message"])
	assert.NotEmpty(t, body["detail"])

	unused := ts.addService("Wiper Blades", 50, 0, 100000)
	status, body = ts.doJSON(http.MethodDelete, fmt.Sprintf("/api/maintenance-services/%d", unused), ts.admin, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Service deleted successfully.", body["message"])

	status, _ = ts.doJSON(http.MethodGet, fmt.Sprintf("/api/maintenance-services/%d", unused), ts.driver, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestMaintenanceWorkflow(t *testing.T) {
	ts := newTestServer(t)
	serviceID := ts.addService("Oil Change", 500, 0, 5000)
	vehicleID := ts.addVehicle("WF-1")

	status, body := ts.doJSON(http.MethodPost, "/api/odometer", ts.driver, map[string]any{
		"VehicleId": vehicleID,
		"Reading":   1200,
	})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Len(t, body["recommendedServices"], 1)

	status, body = ts.doJSON(http.MethodPost, "/api/odometer", ts.driver, map[string]any{
		"VehicleId": vehicleID,
		"Reading":   1100,
	})
	assert.Equal(t, http.StatusBadRequest, status, body)

	requestID := ts.openRequest(vehicleID, serviceID)

	status, body = ts.doJSON(http.MethodGet, "/api/vehicles", ts.driver, nil)
	require.Equal(t, http.StatusOK, status)
	vehicles := body["vehicles"].([]any)
	require.Len(t, vehicles, 1)
	assert.Equal(t, "under_maintenance", vehicles[0].(map[string]any)["status"])

	statusPath := fmt.Sprintf("/api/maintenance/admin/%d", requestID)
	completionPath := fmt.Sprintf("/api/maintenance/admin/completion/%d", requestID)

	status, body = ts.doJSON(http.MethodPut, statusPath, ts.admin, map[string]any{"status": "in_progress"})
	assert.Equal(t, http.StatusConflict, status, body)

	for _, next := range []string{"approved", "in_progress"} {
		status, body = ts.doJSON(http.MethodPut, statusPath, ts.admin, map[string]any{"status": next})
		require.Equal(t, http.StatusOK, status, body)
	}

	status, body = ts.doJSON(http.MethodPut, completionPath, ts.admin, map[string]any{
		"completionDate": "2024-04-03T12:00:00.000Z",
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "2024-04-03", body["date"])
	assert.Equal(t, float64(requestID), body["requestId"])

	status, body = ts.doJSON(
		http.MethodPut,
		fmt.Sprintf("/api/maintenance/admin/note/%d", requestID),
		ts.admin,
		map[string]any{"adminNotes": "Filter replaced as well."},
	)
	require.Equal(t, http.StatusOK, status, body)

	status, body = ts.doJSON(http.MethodPut, statusPath, ts.admin, map[string]any{"status": "completed"})
	require.Equal(t, http.StatusOK, status, body)
	request := body["request"].(map[string]any)
	assert.Equal(t, "completed", request["status"])
	assert.Equal(t, "2024-04-03", request["completionDate"])
	assert.Equal(t, "Filter replaced as well.", request["adminNotes"])

	status, body = ts.doJSON(http.MethodPut, statusPath, ts.admin, map[string]any{"status": "cancelled"})
	assert.Equal(t, http.StatusConflict, status, body)

	status, body = ts.doJSON(http.MethodGet, "/api/admin/maintenance-requests/grouped", ts.admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["groups"], 1)

	status, body = ts.doJSON(http.MethodGet, "/api/maintenance", ts.driver, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["requests"], 1)
}

func TestCancelledRequestIsTerminal(t *testing.T) {
	ts := newTestServer(t)
	serviceID := ts.addService("Oil Change", 500, 0, 5000)
	requestID := ts.openRequest(ts.addVehicle("CX-9"), serviceID)
	path := fmt.Sprintf("/api/maintenance/admin/%d", requestID)

	status, body := ts.doJSON(http.MethodPut, path, ts.admin, map[string]any{"status": "cancelled"})
	require.Equal(t, http.StatusOK, status, body)

	status, body = ts.doJSON(http.MethodPut, path, ts.admin, map[string]any{"status": "approved"})
	assert.Equal(t, http.StatusConflict, status)
	assert.NotEmpty(t, body["message"])

	status, _ = ts.doJSON(http.MethodPut, "/api/maintenance/admin/404", ts.admin, map[string]any{"status": "approved"})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = ts.doJSON(http.MethodPut, path, ts.admin, map[string]any{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestVehicleEndpoints(t *testing.T) {
	ts := newTestServer(t)
	vehicleID := ts.addVehicle("VH-1")
	path := fmt.Sprintf("/api/vehicles/%d", vehicleID)

	status, body := ts.doJSON(http.MethodPost, "/api/vehicles", ts.driver, map[string]any{
		"vehicleType":        "Sedan",
		"licensePlateNumber": "vh-1",
		"manufactureYear":    2020,
	})
	assert.Equal(t, http.StatusBadRequest, status, body)

	other := ts.token("other-sub", "other", "User")
	status, _ = ts.doJSON(http.MethodPut, path, other, map[string]any{
		"vehicleType":        "Coupe",
		"licensePlateNumber": "VH-1",
		"manufactureYear":    2020,
	})
	assert.Equal(t, http.StatusNotFound, status)

	status, body = ts.doJSON(
		http.MethodPut,
		fmt.Sprintf("/api/vehicles/admin/update-status/%d", vehicleID),
		ts.admin,
		map[string]any{"status": "inactive"},
	)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "inactive", body["vehicle"].(map[string]any)["status"])

	status, body = ts.doJSON(http.MethodGet, "/api/vehicles/admin", ts.admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["vehicles"], 1)

	status, body = ts.doJSON(http.MethodDelete, path, ts.driver, nil)
	require.Equal(t, http.StatusOK, status, body)

	status, body = ts.doJSON(http.MethodGet, "/api/odometer/history", ts.driver, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["history"])
}

func TestMalformedBody(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/vehicles", bytes.NewBufferString("{"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+ts.driver)

	resp, err := ts.fiber.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))

	status, body := ts.doJSON(http.MethodGet, "/api/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotEmpty(t, body["message"])
}
