package bootstrap

import (
	"github.com/eleven-am/careflow/internal/events"
	"github.com/eleven-am/careflow/internal/status"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideEventStore(db *gorm.DB) *events.Store {
	return events.NewStore(db)
}

func ProvideStatusStore(redisClient *redis.Client, cfg *Config) *status.Store {
	return status.NewStore(redisClient, cfg.StatusTTL)
}

func RunMigrations(eventStore *events.Store) error {
	return eventStore.Migrate()
}

var StoresModule = fx.Options(
	fx.Provide(
		ProvideEventStore,
		ProvideStatusStore,
	),
	fx.Invoke(RunMigrations),
)
