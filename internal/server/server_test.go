package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/me/cmdbot/internal/logging"
	"github.com/me/cmdbot/internal/telemetry"
	"github.com/me/cmdbot/pkg/model"
)

type fakeRobot struct {
	mu       sync.Mutex
	mode     model.Mode
	requests []model.Mode
	selected string
	full     bool
}

func (f *fakeRobot) Status() model.RobotStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return model.RobotStatus{Mode: f.mode, Tick: 42, Active: []string{"HealthCheck"}, SelectedAuto: f.selected}
}

func (f *fakeRobot) RequestMode(m model.Mode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full {
		return errors.New("mode request queue full")
	}
	f.requests = append(f.requests, m)
	return nil
}

func (f *fakeRobot) Autos() []model.AutoOption {
	return []model.AutoOption{
		{Key: "b", Description: "Drive up and balance", Default: true},
		{Key: "a", Description: "Do nothing"},
	}
}

func (f *fakeRobot) SelectAuto(key string) error {
	if key != "a" && key != "b" {
		return model.NewNotFoundError("auto", key)
	}
	f.mu.Lock()
	f.selected = key
	f.mu.Unlock()
	return nil
}

func testServer() (*Server, *telemetry.Table, *fakeRobot) {
	logger := logging.Discard()
	table := telemetry.NewTable()
	robot := &fakeRobot{mode: model.ModeDisabled, selected: "b"}
	return New(table, robot, logger), table, robot
}

// envelope is used to decode the standard response envelope.
type envelope struct {
	Status    string          `json:"status"`
	RequestID string          `json:"request_id"`
	Timestamp string          `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
	Error     *model.APIError `json:"error"`
}

func do(t *testing.T, srv *Server, method, path, body string, wantStatus int) envelope {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != wantStatus {
		t.Fatalf("%s %s: status=%d, want %d, body=%s", method, path, w.Code, wantStatus, w.Body.String())
	}
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: invalid JSON: %v", method, path, err)
	}
	return env
}

func TestDiscovery(t *testing.T) {
	srv, _, _ := testServer()
	env := do(t, srv, "GET", "/api/v1/", "", http.StatusOK)
	if env.Status != "ok" {
		t.Errorf("status = %q, want ok", env.Status)
	}
	if !strings.HasPrefix(env.RequestID, "req_") {
		t.Errorf("request_id = %q", env.RequestID)
	}

	var data struct {
		Endpoints []struct {
			Path string `json:"path"`
		} `json:"endpoints"`
	}
	json.Unmarshal(env.Data, &data)
	if len(data.Endpoints) != 7 {
		t.Errorf("endpoints count = %d, want 7", len(data.Endpoints))
	}
}

func TestHealth(t *testing.T) {
	srv, table, _ := testServer()
	table.Publish("Hardware/Drive", "OK")
	table.Publish("Hardware/Limelight", "DISCONNECTED: limelight")
	table.Publish("Robot/Mode", "disabled")

	env := do(t, srv, "GET", "/api/v1/health", "", http.StatusOK)
	var data healthResponse
	json.Unmarshal(env.Data, &data)
	if data.Status != "healthy" || data.Mode != "disabled" || data.Tick != 42 {
		t.Errorf("health = %+v", data)
	}
	if len(data.Hardware) != 2 || data.Hardware["Limelight"] != "DISCONNECTED: limelight" {
		t.Errorf("hardware = %v", data.Hardware)
	}
}

func TestTelemetry(t *testing.T) {
	srv, table, _ := testServer()
	table.Publish("Scheduler/Active", []string{"DriveWithJoystick"})
	table.Publish("Scheduler/Owners/Drive", "DriveWithJoystick")
	table.Publish("Robot/Mode", "teleop")

	env := do(t, srv, "GET", "/api/v1/telemetry?prefix=Scheduler/", "", http.StatusOK)
	var list []model.TelemetryEntry
	json.Unmarshal(env.Data, &list)
	if len(list) != 2 || list[0].Key != "Scheduler/Active" {
		t.Errorf("list = %+v", list)
	}

	env = do(t, srv, "GET", "/api/v1/telemetry/Scheduler/Owners/Drive", "", http.StatusOK)
	var e model.TelemetryEntry
	json.Unmarshal(env.Data, &e)
	if e.Value != "DriveWithJoystick" {
		t.Errorf("entry = %+v", e)
	}

	env = do(t, srv, "GET", "/api/v1/telemetry/Nope", "", http.StatusNotFound)
	if env.Error == nil || env.Error.Code != model.ErrNotFound {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestRobotStatus(t *testing.T) {
	srv, _, _ := testServer()
	env := do(t, srv, "GET", "/api/v1/robot", "", http.StatusOK)
	var st model.RobotStatus
	json.Unmarshal(env.Data, &st)
	if st.Mode != model.ModeDisabled || st.SelectedAuto != "b" || len(st.Active) != 1 {
		t.Errorf("status = %+v", st)
	}
}

func TestSetMode(t *testing.T) {
	srv, _, robot := testServer()
	do(t, srv, "PUT", "/api/v1/robot/mode", `{"mode":"teleop"}`, http.StatusAccepted)
	if len(robot.requests) != 1 || robot.requests[0] != model.ModeTeleop {
		t.Errorf("requests = %v", robot.requests)
	}

	env := do(t, srv, "PUT", "/api/v1/robot/mode", `{"mode":"flying"}`, http.StatusBadRequest)
	if env.Error == nil || env.Error.Code != model.ErrValidation {
		t.Errorf("error = %+v", env.Error)
	}
	do(t, srv, "PUT", "/api/v1/robot/mode", `{"mode":`, http.StatusBadRequest)
	do(t, srv, "PUT", "/api/v1/robot/mode", `{"mode":"teleop","extra":1}`, http.StatusBadRequest)

	robot.full = true
	env = do(t, srv, "PUT", "/api/v1/robot/mode", `{"mode":"test"}`, http.StatusInternalServerError)
	if env.Error == nil || env.Error.Code != model.ErrInternal {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestAutos(t *testing.T) {
	srv, _, robot := testServer()
	env := do(t, srv, "GET", "/api/v1/autos", "", http.StatusOK)
	var data autosResponse
	json.Unmarshal(env.Data, &data)
	if data.Selected != "b" || len(data.Options) != 2 || !data.Options[0].Default {
		t.Errorf("autos = %+v", data)
	}

	do(t, srv, "PUT", "/api/v1/autos/selected", `{"name":"a"}`, http.StatusOK)
	if robot.selected != "a" {
		t.Errorf("selected = %q", robot.selected)
	}
	do(t, srv, "PUT", "/api/v1/autos/selected", `{"name":"z"}`, http.StatusNotFound)
	do(t, srv, "PUT", "/api/v1/autos/selected", `{}`, http.StatusBadRequest)
}

func TestRequestIDPropagation(t *testing.T) {
	srv, _, _ := testServer()
	req := httptest.NewRequest("GET", "/api/v1/robot", nil)
	req.Header.Set("X-Request-ID", "req_dash0001")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "req_dash0001" {
		t.Errorf("X-Request-ID = %q", got)
	}
}

func TestTokenRequiredForWrites(t *testing.T) {
	logger := logging.Discard()
	robot := &fakeRobot{mode: model.ModeDisabled, selected: "b"}
	srv := New(telemetry.NewTable(), robot, logger, WithTokenSecret("s3cret"))

	// Reads stay open.
	do(t, srv, "GET", "/api/v1/robot", "", http.StatusOK)

	env := do(t, srv, "PUT", "/api/v1/robot/mode", `{"mode":"teleop"}`, http.StatusUnauthorized)
	if env.Error == nil || env.Error.Code != model.ErrUnauthorized {
		t.Errorf("error = %+v", env.Error)
	}

	put := func(token string) int {
		req := httptest.NewRequest("PUT", "/api/v1/autos/selected", strings.NewReader(`{"name":"a"}`))
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)
		return w.Code
	}

	good, err := IssueToken([]byte("s3cret"), "operator", time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	wrongKey, _ := IssueToken([]byte("other"), "operator", time.Minute)
	expired, _ := IssueToken([]byte("s3cret"), "operator", -time.Minute)

	for _, tt := range []struct {
		name  string
		token string
		want  int
	}{
		{"garbage", "not-a-jwt", http.StatusUnauthorized},
		{"wrong key", wrongKey, http.StatusUnauthorized},
		{"expired", expired, http.StatusUnauthorized},
		{"valid", good, http.StatusOK},
	} {
		if got := put(tt.token); got != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.name, got, tt.want)
		}
	}
	if robot.selected != "a" {
		t.Errorf("selected = %q, want a", robot.selected)
	}
}

func TestIssueTokenEmptySecret(t *testing.T) {
	if _, err := IssueToken(nil, "x", time.Minute); err == nil {
		t.Error("expected error for empty secret")
	}
}
