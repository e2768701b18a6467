package bootstrap

import (
	"context"
	"log/slog"

	"github.com/eleven-am/careflow/internal/device"
	"github.com/eleven-am/careflow/internal/monitor"
	"github.com/eleven-am/careflow/internal/status"
	"github.com/eleven-am/careflow/internal/vision"
	"go.uber.org/fx"
)

type MonitorParams struct {
	fx.In

	Config    *Config
	Inferrer  vision.Inferrer
	Encoder   *vision.Encoder
	Store     *status.Store
	Publisher *status.Publisher
	Logger    *slog.Logger
}

func ProvideMonitorManager(lc fx.Lifecycle, p MonitorParams) *monitor.Manager {
	sinks := []monitor.StatusSink{p.Store}
	if p.Publisher.Enabled() {
		sinks = append(sinks, p.Publisher)
	}

	mgr := monitor.NewManager(monitor.ManagerConfig{
		Inferrer:         p.Inferrer,
		Encoder:          p.Encoder,
		Interval:         p.Config.CaptureInterval,
		HistoryLen:       p.Config.HistoryLen,
		InferenceTimeout: p.Config.InferenceTimeout,
		Sinks:            sinks,
		Log:              p.Logger.With("component", "monitor"),
	})

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return mgr.Close()
		},
	})
	return mgr
}

func ProvideMonitorHandler(mgr *monitor.Manager, webcam *device.Webcam, rtc *device.RTCEngine, cfg *Config, log *slog.Logger) *monitor.Handler {
	return monitor.NewHandler(mgr, monitor.Devices{
		Webcam:   webcam,
		RTC:      rtc,
		FileRoot: cfg.FileDeviceDir,
	}, log.With("handler", "monitor"))
}

var MonitorModule = fx.Options(
	fx.Provide(
		ProvideMonitorManager,
		ProvideMonitorHandler,
	),
)
