package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sahilchouksey/uniguide-api/repository"
	"github.com/sahilchouksey/uniguide-api/utils/cache"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"

	DependencyConnected    = "connected"
	DependencyDisconnected = "disconnected"
	DependencyDisabled     = "disabled"
)

// Pinger is satisfied by database.Storage.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

type HealthReport struct {
	Status      string     `json:"status"`
	Timestamp   time.Time  `json:"timestamp"`
	Database    string     `json:"database"`
	Cache       string     `json:"cache"`
	LastRefresh *time.Time `json:"last_refresh"`
}

type HealthService struct {
	db      Pinger
	cache   cache.Cache
	runs    repository.RefreshLogRepository
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewHealthService(db Pinger, c cache.Cache, runs repository.RefreshLogRepository, logger *zap.Logger) *HealthService {
	return &HealthService{
		db:      db,
		cache:   c,
		runs:    runs,
		logger:  logger,
		timeout: 3 * time.Second,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Check probes each dependency. Only a database outage marks the service unhealthy.
func (h *HealthService) Check(ctx context.Context) *HealthReport {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	report := &HealthReport{
		Status:    StatusHealthy,
		Timestamp: h.now(),
		Database:  DependencyConnected,
		Cache:     DependencyConnected,
	}

	if err := h.db.HealthCheck(ctx); err != nil {
		h.logger.Error("database health check failed", zap.Error(err))
		report.Database = DependencyDisconnected
		report.Status = StatusUnhealthy
	}

	if !h.cache.Enabled() {
		report.Cache = DependencyDisabled
	} else if err := h.cache.Ping(ctx); err != nil {
		h.logger.Warn("cache health check failed", zap.Error(err))
		report.Cache = DependencyDisconnected
	}

	if report.Database == DependencyConnected {
		last, err := h.runs.LastSuccessful(ctx)
		switch {
		case err == nil:
			report.LastRefresh = last.CompletedAt
		case !errors.Is(err, repository.ErrNotFound):
			h.logger.Warn("failed to read last refresh", zap.Error(err))
		}
	}

	return report
}
