package bootstrap

import (
	"context"
	"log/slog"
	"os"

	"github.com/eleven-am/careflow/internal/device"
	"github.com/eleven-am/careflow/internal/status"
	"github.com/eleven-am/careflow/internal/vision"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ProvideLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
}

func ProvideRedisClient(cfg *Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

func ProvideDatabase(cfg *Config) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

func ProvidePublisher(lc fx.Lifecycle, cfg *Config, log *slog.Logger) (*status.Publisher, error) {
	pub, err := status.NewPublisher(status.MQTTConfig{
		Broker:      cfg.MQTTBroker,
		ClientID:    cfg.MQTTClientID,
		Username:    cfg.MQTTUsername,
		Password:    cfg.MQTTPassword,
		TopicPrefix: cfg.MQTTTopicPrefix,
	}, log.With("component", "mqtt"))
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			pub.Close()
			return nil
		},
	})
	return pub, nil
}

// InferenceConfig picks the credentials of the configured provider.
func InferenceConfig(cfg *Config) vision.Config {
	vc := vision.Config{
		Provider: vision.Provider(cfg.InferenceProvider),
		Timeout:  cfg.InferenceTimeout,
	}
	switch vc.Provider {
	case vision.ProviderOpenAI:
		vc.APIKey = cfg.OpenAIAPIKey
		vc.BaseURL = cfg.OpenAIBaseURL
		vc.Model = cfg.OpenAIModel
	default:
		vc.APIKey = cfg.GeminiAPIKey
		vc.BaseURL = cfg.GeminiBaseURL
		vc.Model = cfg.GeminiModel
	}
	return vc
}

func ProvideInferrer(cfg *Config) (vision.Inferrer, error) {
	return vision.New(InferenceConfig(cfg))
}

func ProvideEncoder(cfg *Config) *vision.Encoder {
	return vision.NewEncoder(cfg.JPEGQuality)
}

func WebcamConfig(cfg *Config, log *slog.Logger) device.WebcamConfig {
	return device.WebcamConfig{
		Paths:  cfg.WebcamDevices,
		Width:  cfg.WebcamWidth,
		Height: cfg.WebcamHeight,
		Logger: log.With("component", "webcam"),
	}
}

func ProvideWebcam(cfg *Config, log *slog.Logger) *device.Webcam {
	return device.NewWebcam(WebcamConfig(cfg, log))
}

func ProvideRTCEngine(cfg *Config, log *slog.Logger) (*device.RTCEngine, error) {
	servers := make([]device.ICEServer, 0, len(cfg.RTCICEServers))
	for _, s := range cfg.RTCICEServers {
		servers = append(servers, device.ICEServer{
			URLs:       s.URLs,
			Username:   s.Username,
			Credential: s.Credential,
		})
	}
	return device.NewRTCEngine(device.RTCConfig{
		ICEServers: servers,
		PortMin:    cfg.RTCPortMin,
		PortMax:    cfg.RTCPortMax,
		Logger:     log.With("component", "rtc"),
	})
}

var InfrastructureModule = fx.Options(
	fx.Provide(
		ProvideLogger,
		ProvideRedisClient,
		ProvideDatabase,
		ProvidePublisher,
		ProvideInferrer,
		ProvideEncoder,
		ProvideWebcam,
		ProvideRTCEngine,
	),
)
