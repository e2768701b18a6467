package status

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/eleven-am/careflow/internal/observation"
	"github.com/eleven-am/careflow/internal/shared"
	"github.com/labstack/echo/v4"
)

type HistoryResponse struct {
	Latest  *Entry               `json:"latest"`
	Records []observation.Record `json:"records"`
}

// Handler serves persisted statuses, which outlive the in-memory session.
type Handler struct {
	store  *Store
	logger *slog.Logger
}

func NewHandler(store *Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger.With("component", "status_handler")}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)
}

// Get godoc
// @Summary      Persisted session status
// @Description  Latest stored status and up to `limit` recent records, newest first
// @Tags         status
// @Produce      json
// @Param        id     path      string  true   "Session ID"
// @Param        limit  query     int     false  "Record limit (max 50)"
// @Success      200    {object}  HistoryResponse
// @Failure      404    {object}  shared.APIError
// @Failure      500    {object}  shared.APIError
// @Router       /v1/status/{id} [get]
func (h *Handler) Get(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()

	latest, err := h.store.Latest(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("status_not_found", "no status stored for session")
		}
		h.logger.Error("failed to load status", "error", err, "session_id", id)
		return shared.InternalError("status_failed", "failed to load status")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	records, err := h.store.Recent(ctx, id, limit)
	if err != nil {
		h.logger.Error("failed to load records", "error", err, "session_id", id)
		return shared.InternalError("status_failed", "failed to load records")
	}

	return c.JSON(http.StatusOK, HistoryResponse{Latest: latest, Records: records})
}

// Delete godoc
// @Summary      Forget a session's stored status
// @Tags         status
// @Param        id   path  string  true  "Session ID"
// @Success      204
// @Router       /v1/status/{id} [delete]
func (h *Handler) Delete(c echo.Context) error {
	if err := h.store.Delete(c.Request().Context(), c.Param("id")); err != nil {
		h.logger.Error("failed to delete status", "error", err)
		return shared.InternalError("status_failed", "failed to delete status")
	}
	return c.NoContent(http.StatusNoContent)
}
