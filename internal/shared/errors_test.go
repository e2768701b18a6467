package shared

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestHTTPHelpers(t *testing.T) {
	tests := []struct {
		name   string
		err    *echo.HTTPError
		status int
		code   string
	}{
		{"bad request", BadRequest("invalid_device", "unknown device kind"), http.StatusBadRequest, "invalid_device"},
		{"not found", NotFound("session_not_found", "session not found"), http.StatusNotFound, "session_not_found"},
		{"unavailable", ServiceUnavailable("device_unavailable", "Camera error. Check device permissions."), http.StatusServiceUnavailable, "device_unavailable"},
		{"internal", InternalError("open_failed", "failed to open session"), http.StatusInternalServerError, "open_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, tt.err.Code)
			}
			apiErr, ok := tt.err.Message.(*APIError)
			if !ok {
				t.Fatalf("expected *APIError message, got %T", tt.err.Message)
			}
			if apiErr.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, apiErr.Code)
			}
		})
	}
}

func TestAPIError_WithDetails(t *testing.T) {
	err := NewAPIError("invalid_status", "status must be pending, completed or missed").
		WithDetails(map[string]string{"status": "done"})

	d, ok := err.Details.(map[string]string)
	if !ok || d["status"] != "done" {
		t.Errorf("unexpected details %v", err.Details)
	}
}

func TestAPIError_RenderedByEcho(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	e.HTTPErrorHandler(NotFound("event_not_found", "event not found"), c)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var body APIError
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Code != "event_not_found" || body.Message != "event not found" || body.Details != nil {
		t.Errorf("unexpected body %+v", body)
	}
}
