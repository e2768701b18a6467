package monitor

import (
	"encoding/json"
	"errors"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/eleven-am/careflow/internal/shared"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// writeTestJPEG writes frame.jpg into a fresh directory and returns it.
func writeTestJPEG(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "frame.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, testImage(), nil); err != nil {
		t.Fatal(err)
	}
	return dir
}

func newTestHandler(t *testing.T, devices Devices) (*Handler, *Manager) {
	t.Helper()
	m := newTestManager()
	t.Cleanup(func() { _ = m.Close() })
	return NewHandler(m, devices, discardLogger()), m
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected echo.HTTPError, got %v", err)
	}
	return httpErr.Code
}

func TestHandler_RegisterRoutes(t *testing.T) {
	h, _ := newTestHandler(t, Devices{})
	e := echo.New()
	h.RegisterRoutes(e.Group("/v1/monitor/sessions"))

	expected := []string{
		"POST /v1/monitor/sessions",
		"GET /v1/monitor/sessions",
		"GET /v1/monitor/sessions/:id",
		"POST /v1/monitor/sessions/:id/open",
		"POST /v1/monitor/sessions/:id/close",
		"DELETE /v1/monitor/sessions/:id",
		"GET /v1/monitor/sessions/:id/ws",
	}
	routes := make(map[string]bool)
	for _, r := range e.Routes() {
		routes[r.Method+" "+r.Path] = true
	}
	for _, want := range expected {
		if !routes[want] {
			t.Errorf("expected route %s", want)
		}
	}
}

func TestHandler_CreateFileSession(t *testing.T) {
	h, m := newTestHandler(t, Devices{FileRoot: writeTestJPEG(t)})
	e := echo.New()

	body := `{"label":"Room 12","device":"file","path":"frame.jpg"}`
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/v1/monitor/sessions", body), rec)

	if err := h.Create(c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var snap Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.State != StateOpen || snap.Label != "Room 12" {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if snap.Status.Text != waitingText {
		t.Errorf("expected waiting text, got %q", snap.Status.Text)
	}
	if m.SessionCount() != 1 {
		t.Errorf("expected 1 session, got %d", m.SessionCount())
	}
}

func TestHandler_CreateDeviceUnavailable(t *testing.T) {
	h, m := newTestHandler(t, Devices{FileRoot: t.TempDir()})
	e := echo.New()

	body := `{"label":"Room 12","device":"file","path":"missing.jpg"}`
	c := e.NewContext(jsonRequest(http.MethodPost, "/v1/monitor/sessions", body), httptest.NewRecorder())

	err := h.Create(c)
	if code := httpCode(t, err); code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", code)
	}
	apiErr := err.(*echo.HTTPError).Message.(*shared.APIError)
	if apiErr.Code != "device_unavailable" {
		t.Errorf("expected device_unavailable, got %s", apiErr.Code)
	}
	if m.SessionCount() != 0 {
		t.Error("failed session should not be kept")
	}
}

func TestHandler_CreateRejectsBadDevices(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"webcam disabled", `{"device":"webcam"}`},
		{"file disabled", `{"device":"file","path":"/tmp/x.jpg"}`},
		{"rtc disabled", `{"device":"rtc","sdp":"v=0"}`},
		{"unknown kind", `{"device":"thermal"}`},
		{"bad json", `{"device":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t, Devices{})
			e := echo.New()
			c := e.NewContext(jsonRequest(http.MethodPost, "/v1/monitor/sessions", tt.body), httptest.NewRecorder())

			if code := httpCode(t, h.Create(c)); code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", code)
			}
		})
	}
}

func TestHandler_CreateFileStaysInImageDirectory(t *testing.T) {
	root := writeTestJPEG(t)
	outside := filepath.Join(filepath.Dir(root), "outside.jpg")

	tests := []struct {
		name string
		path string
	}{
		{"absolute", filepath.Join(root, "frame.jpg")},
		{"parent", "../" + filepath.Base(outside)},
		{"nested parent", "sub/../../frame.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, m := newTestHandler(t, Devices{FileRoot: root})
			e := echo.New()
			body, _ := json.Marshal(CreateSessionRequest{Device: DeviceFile, Path: tt.path})
			c := e.NewContext(jsonRequest(http.MethodPost, "/v1/monitor/sessions", string(body)), httptest.NewRecorder())

			err := h.Create(c)
			if code := httpCode(t, err); code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", code)
			}
			if apiErr := err.(*echo.HTTPError).Message.(*shared.APIError); apiErr.Code != "invalid_path" {
				t.Errorf("expected invalid_path, got %s", apiErr.Code)
			}
			if m.SessionCount() != 0 {
				t.Error("rejected path should not create a session")
			}
		})
	}
}

func TestHandler_GetUnknown(t *testing.T) {
	h, _ := newTestHandler(t, Devices{})
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("mon_missing")

	if code := httpCode(t, h.Get(c)); code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
}

func TestHandler_Lifecycle(t *testing.T) {
	h, m := newTestHandler(t, Devices{Webcam: &fakeDevice{img: testImage()}})
	e := echo.New()
	s := m.Create("Room 7", &fakeDevice{img: testImage()})

	call := func(fn echo.HandlerFunc, method string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(method, "/", nil), rec)
		c.SetParamNames("id")
		c.SetParamValues(s.ID())
		if err := fn(c); err != nil {
			t.Fatalf("handler: %v", err)
		}
		return rec
	}

	rec := call(h.Open, http.MethodPost)
	if rec.Code != http.StatusOK || s.State() != StateOpen {
		t.Fatalf("open: %d %s", rec.Code, s.State())
	}

	rec = call(h.Get, http.MethodGet)
	var snap Snapshot
	_ = json.Unmarshal(rec.Body.Bytes(), &snap)
	if snap.ID != s.ID() || snap.State != StateOpen {
		t.Errorf("unexpected snapshot %+v", snap)
	}

	call(h.Close, http.MethodPost)
	if s.State() != StateClosed {
		t.Error("close should close the session")
	}

	rec = call(h.Delete, http.MethodDelete)
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if m.SessionCount() != 0 {
		t.Error("delete should remove the session")
	}
}

func TestHandler_List(t *testing.T) {
	h, m := newTestHandler(t, Devices{})
	m.Create("Room 1", &fakeDevice{})
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	if err := h.List(c); err != nil {
		t.Fatal(err)
	}
	var resp SessionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Sessions) != 1 || resp.Sessions[0].Label != "Room 1" {
		t.Errorf("unexpected list %+v", resp.Sessions)
	}
}

func TestHandler_StreamSendsStatuses(t *testing.T) {
	inf := &scriptedInferrer{replies: []string{replyOne}}
	m := NewManager(ManagerConfig{Inferrer: inf, Log: discardLogger()})
	defer m.Close()
	h := NewHandler(m, Devices{}, discardLogger())

	e := echo.New()
	h.RegisterRoutes(e.Group("/v1/monitor/sessions"))
	server := httptest.NewServer(e)
	defer server.Close()

	s := m.Create("Room 4", &fakeDevice{img: testImage()})
	epoch := openSession(t, s)

	wsURL := "ws" + server.URL[4:] + "/v1/monitor/sessions/" + s.ID() + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer ws.Close()
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))

	var initial Status
	if err := ws.ReadJSON(&initial); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if initial.Kind != StatusWaiting {
		t.Errorf("expected waiting first, got %s", initial.Kind)
	}

	runCycle(s, epoch, 1)

	var update Status
	if err := ws.ReadJSON(&update); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if update.Text != replyOne || update.Record == nil {
		t.Errorf("unexpected update %+v", update)
	}
}
