package bootstrap

import (
	"log/slog"
	"net/http"

	"github.com/eleven-am/careflow/docs"
	"github.com/eleven-am/careflow/internal/events"
	"github.com/eleven-am/careflow/internal/monitor"
	"github.com/eleven-am/careflow/internal/status"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/fx"
)

type HandlerParams struct {
	fx.In

	MonitorHandler *monitor.Handler
	StatusHandler  *status.Handler
	EventsHandler  *events.Handler
	Config         *Config
}

func RegisterRoutes(e *echo.Echo, params HandlerParams) {
	api := e.Group("/v1")

	params.MonitorHandler.RegisterRoutes(api.Group("/monitor/sessions"))
	params.StatusHandler.RegisterRoutes(api.Group("/status"))
	params.EventsHandler.RegisterRoutes(e)

	e.GET("/swagger/*", echoSwagger.EchoWrapHandler())
	e.GET("/asyncapi.yaml", func(c echo.Context) error {
		return c.Blob(http.StatusOK, "application/yaml", docs.AsyncAPISpec)
	})

	e.Static("/assets", params.Config.StaticDir)
	e.GET("/*", func(c echo.Context) error {
		return c.File(params.Config.IndexHTML)
	})
}

func ProvideStatusHandler(store *status.Store, logger *slog.Logger) *status.Handler {
	return status.NewHandler(store, logger.With("handler", "status"))
}

func ProvideEventsHandler(store *events.Store, logger *slog.Logger) *events.Handler {
	return events.NewHandler(store, logger.With("handler", "events"))
}

var HandlersModule = fx.Options(
	fx.Provide(
		ProvideStatusHandler,
		ProvideEventsHandler,
	),
	fx.Invoke(RegisterRoutes),
)
