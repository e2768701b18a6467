package events

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/eleven-am/careflow/internal/shared"
	"github.com/labstack/echo/v4"
)

type UpdateStatusRequest struct {
	ID     string `json:"id" example:"2f1c8a4e-8f0b-4b8e-9a55-0d6f1b2f3e10"`
	Status Status `json:"status" example:"completed"`
}

type UpdateStatusResponse struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
}

type CreateEventsRequest struct {
	Events []*Event `json:"events"`
}

type CreateEventsResponse struct {
	Inserted int `json:"inserted"`
}

type Handler struct {
	store  *Store
	logger *slog.Logger
}

func NewHandler(store *Store, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger.With("component", "events_handler"),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/get-events", h.List)
	e.POST("/update-event-status", h.UpdateStatus)
	e.POST("/events", h.Create)
}

// List godoc
// @Summary      List care-plan events
// @Tags         events
// @Produce      json
// @Success      200  {array}   Event
// @Failure      500  {object}  shared.APIError
// @Router       /get-events [get]
func (h *Handler) List(c echo.Context) error {
	events, err := h.store.List(c.Request().Context())
	if err != nil {
		h.logger.Error("failed to list events", "error", err)
		return shared.InternalError("list_failed", "failed to list events")
	}
	if events == nil {
		events = []*Event{}
	}
	return c.JSON(http.StatusOK, events)
}

// UpdateStatus godoc
// @Summary      Update an event's status
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        request  body      UpdateStatusRequest  true  "Status change"
// @Success      200      {object}  UpdateStatusResponse
// @Failure      400      {object}  shared.APIError
// @Failure      404      {object}  shared.APIError
// @Failure      500      {object}  shared.APIError
// @Router       /update-event-status [post]
func (h *Handler) UpdateStatus(c echo.Context) error {
	var req UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}
	if req.ID == "" {
		return shared.BadRequest("invalid_request", "id is required")
	}
	if !req.Status.Valid() {
		return shared.BadRequest("invalid_status", "status must be pending, completed or missed")
	}

	if err := h.store.UpdateStatus(c.Request().Context(), req.ID, req.Status); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("event_not_found", "event not found")
		}
		h.logger.Error("failed to update event status", "error", err, "event_id", req.ID)
		return shared.InternalError("update_failed", "failed to update event status")
	}

	h.logger.Info("event status updated", "event_id", req.ID, "status", req.Status)
	return c.JSON(http.StatusOK, UpdateStatusResponse{ID: req.ID, Status: req.Status})
}

// Create godoc
// @Summary      Insert care-plan events
// @Description  Stores structured events as pending
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        request  body      CreateEventsRequest  true  "Events"
// @Success      201      {object}  CreateEventsResponse
// @Failure      400      {object}  shared.APIError
// @Failure      500      {object}  shared.APIError
// @Router       /events [post]
func (h *Handler) Create(c echo.Context) error {
	var req CreateEventsRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}
	if len(req.Events) == 0 {
		return shared.BadRequest("invalid_request", "no events to insert")
	}
	for _, e := range req.Events {
		if e == nil || !e.Type.Valid() || e.EventHeader == "" {
			return shared.BadRequest("invalid_event", "each event needs a known type and a header")
		}
		e.Status = StatusPending
	}

	if err := h.store.Create(c.Request().Context(), req.Events...); err != nil {
		h.logger.Error("failed to insert events", "error", err)
		return shared.InternalError("insert_failed", "failed to insert events")
	}
	return c.JSON(http.StatusCreated, CreateEventsResponse{Inserted: len(req.Events)})
}
