package health

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/eleven-am/careflow/internal/monitor"
	"github.com/eleven-am/careflow/internal/vision"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

type ComponentStatus struct {
	Status    Status `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type RuntimeStats struct {
	Goroutines         int    `json:"goroutines"`
	MemoryAllocMB      uint64 `json:"memory_alloc_mb"`
	MemoryTotalAllocMB uint64 `json:"memory_total_alloc_mb"`
	MemorySysMB        uint64 `json:"memory_sys_mb"`
	NumGC              uint32 `json:"num_gc"`
}

type SessionStats struct {
	Total    int `json:"total"`
	Open     int `json:"open"`
	InFlight int `json:"in_flight"`
}

type Stats struct {
	Sessions SessionStats `json:"sessions"`
	Runtime  RuntimeStats `json:"runtime"`
}

type HealthResponse struct {
	Status        Status                     `json:"status"`
	Timestamp     time.Time                  `json:"timestamp"`
	Version       string                     `json:"version"`
	UptimeSeconds int64                      `json:"uptime_seconds"`
	Stats         Stats                      `json:"stats"`
	Components    map[string]ComponentStatus `json:"components"`
}

type SessionsResponse struct {
	Total    int                `json:"total"`
	Sessions []monitor.Snapshot `json:"sessions"`
}

// Broker is the slice of the MQTT publisher the readiness check needs.
type Broker interface {
	Enabled() bool
	Connected() bool
}

type Deps struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Broker   Broker
	Inferrer vision.Inferrer
	Monitor  *monitor.Manager
	Version  string
}

type Handler struct {
	db        *gorm.DB
	redis     *redis.Client
	broker    Broker
	inferrer  vision.Inferrer
	monitor   *monitor.Manager
	version   string
	startTime time.Time
}

func NewHandler(deps Deps) *Handler {
	return &Handler{
		db:        deps.DB,
		redis:     deps.Redis,
		broker:    deps.Broker,
		inferrer:  deps.Inferrer,
		monitor:   deps.Monitor,
		version:   deps.Version,
		startTime: time.Now(),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Liveness)
	e.GET("/health/ready", h.Readiness)
	e.GET("/health/sessions", h.Sessions)
}

func (h *Handler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (h *Handler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	components := make(map[string]ComponentStatus)
	var mu sync.Mutex
	var wg sync.WaitGroup

	checks := []struct {
		name  string
		check func(context.Context) ComponentStatus
	}{
		{"database", h.checkDatabase},
		{"redis", h.checkRedis},
		{"mqtt", h.checkBroker},
		{"inference", h.checkInference},
	}

	wg.Add(len(checks))
	for _, check := range checks {
		go func(name string, fn func(context.Context) ComponentStatus) {
			defer wg.Done()
			status := fn(ctx)
			mu.Lock()
			components[name] = status
			mu.Unlock()
		}(check.name, check.check)
	}
	wg.Wait()

	overallStatus := h.computeOverallStatus(components)

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	resp := HealthResponse{
		Status:        overallStatus,
		Timestamp:     time.Now().UTC(),
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Stats: Stats{
			Sessions: h.sessionStats(),
			Runtime: RuntimeStats{
				Goroutines:         runtime.NumGoroutine(),
				MemoryAllocMB:      memStats.Alloc / 1024 / 1024,
				MemoryTotalAllocMB: memStats.TotalAlloc / 1024 / 1024,
				MemorySysMB:        memStats.Sys / 1024 / 1024,
				NumGC:              memStats.NumGC,
			},
		},
		Components: components,
	}

	statusCode := http.StatusOK
	if overallStatus == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	return c.JSON(statusCode, resp)
}

func (h *Handler) Sessions(c echo.Context) error {
	var sessions []monitor.Snapshot
	if h.monitor != nil {
		sessions = h.monitor.List()
	}
	if sessions == nil {
		sessions = []monitor.Snapshot{}
	}
	return c.JSON(http.StatusOK, SessionsResponse{
		Total:    len(sessions),
		Sessions: sessions,
	})
}

func (h *Handler) sessionStats() SessionStats {
	if h.monitor == nil {
		return SessionStats{}
	}
	stats := SessionStats{}
	for _, s := range h.monitor.List() {
		stats.Total++
		if s.State == monitor.StateOpen {
			stats.Open++
		}
		stats.InFlight += s.InFlight
	}
	return stats
}

func unhealthy(start time.Time, msg string) ComponentStatus {
	return ComponentStatus{
		Status:    StatusUnhealthy,
		LatencyMs: time.Since(start).Milliseconds(),
		Error:     msg,
	}
}

func (h *Handler) checkDatabase(ctx context.Context) ComponentStatus {
	start := time.Now()
	if h.db == nil {
		return unhealthy(start, "database not configured")
	}

	sqlDB, err := h.db.DB()
	if err != nil {
		return unhealthy(start, "failed to get underlying db")
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return unhealthy(start, "ping failed")
	}

	return ComponentStatus{
		Status:    h.evaluateDBStats(sqlDB.Stats()),
		LatencyMs: time.Since(start).Milliseconds(),
	}
}

func (h *Handler) evaluateDBStats(stats sql.DBStats) Status {
	if stats.OpenConnections >= stats.MaxOpenConnections && stats.MaxOpenConnections > 0 {
		return StatusDegraded
	}
	return StatusHealthy
}

func (h *Handler) checkRedis(ctx context.Context) ComponentStatus {
	start := time.Now()
	if h.redis == nil {
		return unhealthy(start, "redis not configured")
	}

	if err := h.redis.Ping(ctx).Err(); err != nil {
		return unhealthy(start, "ping failed")
	}

	return ComponentStatus{
		Status:    StatusHealthy,
		LatencyMs: time.Since(start).Milliseconds(),
	}
}

func (h *Handler) checkBroker(_ context.Context) ComponentStatus {
	start := time.Now()
	if h.broker == nil || !h.broker.Enabled() {
		return ComponentStatus{Status: StatusHealthy, Error: "publishing disabled"}
	}
	if !h.broker.Connected() {
		return ComponentStatus{
			Status:    StatusDegraded,
			LatencyMs: time.Since(start).Milliseconds(),
			Error:     "not connected",
		}
	}
	return ComponentStatus{
		Status:    StatusHealthy,
		LatencyMs: time.Since(start).Milliseconds(),
	}
}

func (h *Handler) checkInference(ctx context.Context) ComponentStatus {
	start := time.Now()
	if h.inferrer == nil {
		return unhealthy(start, "inference not configured")
	}

	prober, ok := h.inferrer.(vision.Prober)
	if !ok {
		return ComponentStatus{Status: StatusHealthy}
	}
	if !prober.IsAvailable(ctx) {
		return ComponentStatus{
			Status:    StatusDegraded,
			LatencyMs: time.Since(start).Milliseconds(),
			Error:     "model lookup failed",
		}
	}
	return ComponentStatus{
		Status:    StatusHealthy,
		LatencyMs: time.Since(start).Milliseconds(),
	}
}

func (h *Handler) computeOverallStatus(components map[string]ComponentStatus) Status {
	criticalComponents := []string{"database", "redis"}

	for _, name := range criticalComponents {
		if status, ok := components[name]; ok && status.Status == StatusUnhealthy {
			return StatusUnhealthy
		}
	}

	for _, status := range components {
		if status.Status != StatusHealthy {
			return StatusDegraded
		}
	}

	return StatusHealthy
}
