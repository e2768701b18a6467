package monitor

import (
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/eleven-am/careflow/internal/device"
	"github.com/eleven-am/careflow/internal/shared"
	"github.com/labstack/echo/v4"
)

type DeviceKind string

const (
	DeviceWebcam DeviceKind = "webcam"
	DeviceFile   DeviceKind = "file"
	DeviceRTC    DeviceKind = "rtc"
)

// Devices are the camera sources the HTTP surface may bind sessions to.
// A nil or empty field disables that kind. File sessions read images from
// FileRoot only.
type Devices struct {
	Webcam   device.Device
	RTC      *device.RTCEngine
	FileRoot string
}

type CreateSessionRequest struct {
	Label  string     `json:"label" example:"Room 12"`
	Device DeviceKind `json:"device" example:"rtc"`
	SDP    string     `json:"sdp,omitempty"`
	Path   string     `json:"path,omitempty"`
}

type OpenSessionRequest struct {
	SDP string `json:"sdp,omitempty"`
}

type SessionsResponse struct {
	Sessions []Snapshot `json:"sessions"`
}

type Handler struct {
	manager *Manager
	devices Devices
	logger  *slog.Logger
}

func NewHandler(manager *Manager, devices Devices, logger *slog.Logger) *Handler {
	return &Handler{
		manager: manager,
		devices: devices,
		logger:  logger.With("component", "monitor_handler"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("/:id/open", h.Open)
	g.POST("/:id/close", h.Close)
	g.DELETE("/:id", h.Delete)
	g.GET("/:id/ws", h.Stream)
}

func (h *Handler) resolve(kind DeviceKind, sdp, path string) (device.Device, error) {
	switch kind {
	case "", DeviceWebcam:
		if h.devices.Webcam == nil {
			return nil, shared.BadRequest("device_disabled", "webcam capture is not enabled")
		}
		return h.devices.Webcam, nil
	case DeviceRTC:
		if h.devices.RTC == nil {
			return nil, shared.BadRequest("device_disabled", "webrtc capture is not enabled")
		}
		if strings.TrimSpace(sdp) == "" {
			return nil, shared.BadRequest("invalid_request", "sdp offer is required for rtc sessions")
		}
		return h.devices.RTC.Device(sdp), nil
	case DeviceFile:
		if h.devices.FileRoot == "" {
			return nil, shared.BadRequest("device_disabled", "file capture is not enabled")
		}
		if strings.TrimSpace(path) == "" {
			return nil, shared.BadRequest("invalid_request", "path is required for file sessions")
		}
		if !filepath.IsLocal(path) {
			return nil, shared.BadRequest("invalid_path", "path must be relative to the image directory")
		}
		return &device.ImageFile{Path: filepath.Join(h.devices.FileRoot, path)}, nil
	default:
		return nil, shared.BadRequest("invalid_device", "device must be webcam, file or rtc")
	}
}

// Create godoc
// @Summary      Start a monitoring session
// @Description  Creates a session bound to a camera source and opens it immediately. File sessions take a path relative to the server's image directory.
// @Tags         monitor
// @Accept       json
// @Produce      json
// @Param        request  body      CreateSessionRequest  true  "Session"
// @Success      201      {object}  Snapshot
// @Failure      400      {object}  shared.APIError
// @Failure      503      {object}  shared.APIError  "Camera unavailable"
// @Router       /v1/monitor/sessions [post]
func (h *Handler) Create(c echo.Context) error {
	var req CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}

	dev, err := h.resolve(req.Device, req.SDP, req.Path)
	if err != nil {
		return err
	}

	session := h.manager.Create(strings.TrimSpace(req.Label), dev)
	if err := session.Open(c.Request().Context()); err != nil {
		_ = h.manager.Remove(session.ID())
		return h.openError(err)
	}

	return c.JSON(http.StatusCreated, session.Snapshot())
}

// List godoc
// @Summary      List monitoring sessions
// @Tags         monitor
// @Produce      json
// @Success      200  {object}  SessionsResponse
// @Router       /v1/monitor/sessions [get]
func (h *Handler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, SessionsResponse{Sessions: h.manager.List()})
}

// Get godoc
// @Summary      Get a monitoring session
// @Tags         monitor
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  Snapshot
// @Failure      404  {object}  shared.APIError
// @Router       /v1/monitor/sessions/{id} [get]
func (h *Handler) Get(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, session.Snapshot())
}

// Open godoc
// @Summary      Reopen a monitoring session
// @Description  Reacquires the camera with an empty observation window. RTC sessions need a fresh offer.
// @Tags         monitor
// @Accept       json
// @Produce      json
// @Param        id       path      string              true   "Session ID"
// @Param        request  body      OpenSessionRequest  false  "New SDP offer"
// @Success      200      {object}  Snapshot
// @Failure      404      {object}  shared.APIError
// @Failure      503      {object}  shared.APIError
// @Router       /v1/monitor/sessions/{id}/open [post]
func (h *Handler) Open(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}

	var req OpenSessionRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return shared.BadRequest("invalid_request", "invalid request body")
		}
	}
	if req.SDP != "" {
		dev, err := h.resolve(DeviceRTC, req.SDP, "")
		if err != nil {
			return err
		}
		session.UseDevice(dev)
	}

	if err := session.Open(c.Request().Context()); err != nil {
		return h.openError(err)
	}
	return c.JSON(http.StatusOK, session.Snapshot())
}

// Close godoc
// @Summary      Close a monitoring session
// @Tags         monitor
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  Snapshot
// @Failure      404  {object}  shared.APIError
// @Router       /v1/monitor/sessions/{id}/close [post]
func (h *Handler) Close(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}
	if err := session.Close(); err != nil {
		h.logger.Warn("session closed with errors", "error", err, "session_id", session.ID())
	}
	return c.JSON(http.StatusOK, session.Snapshot())
}

// Delete godoc
// @Summary      Remove a monitoring session
// @Tags         monitor
// @Param        id   path  string  true  "Session ID"
// @Success      204
// @Failure      404  {object}  shared.APIError
// @Router       /v1/monitor/sessions/{id} [delete]
func (h *Handler) Delete(c echo.Context) error {
	if err := h.manager.Remove(c.Param("id")); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("session_not_found", "session not found")
		}
		h.logger.Warn("session removed with errors", "error", err, "session_id", c.Param("id"))
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) session(c echo.Context) (*Session, error) {
	session, err := h.manager.Get(c.Param("id"))
	if err != nil {
		return nil, shared.NotFound("session_not_found", "session not found")
	}
	return session, nil
}

func (h *Handler) openError(err error) error {
	if errors.Is(err, device.ErrUnavailable) {
		return shared.ServiceUnavailable("device_unavailable", cameraErrorText)
	}
	h.logger.Error("failed to open session", "error", err)
	return shared.InternalError("open_failed", "failed to open session")
}
