package bootstrap

import (
	"github.com/eleven-am/careflow/internal/health"
	"github.com/eleven-am/careflow/internal/monitor"
	"github.com/eleven-am/careflow/internal/status"
	"github.com/eleven-am/careflow/internal/vision"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

const version = "1.0.0"

func ProvideHealthHandler(
	db *gorm.DB,
	redis *redis.Client,
	publisher *status.Publisher,
	inferrer vision.Inferrer,
	manager *monitor.Manager,
) *health.Handler {
	return health.NewHandler(health.Deps{
		DB:       db,
		Redis:    redis,
		Broker:   publisher,
		Inferrer: inferrer,
		Monitor:  manager,
		Version:  version,
	})
}

func RegisterHealthRoutes(e *echo.Echo, h *health.Handler) {
	h.RegisterRoutes(e)
}

var HealthModule = fx.Options(
	fx.Provide(ProvideHealthHandler),
	fx.Invoke(RegisterHealthRoutes),
)
