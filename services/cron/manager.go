package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/sahilchouksey/uniguide-api/config"
	"github.com/sahilchouksey/uniguide-api/services"
)

// Refresher runs one catalog refresh.
type Refresher interface {
	Refresh(ctx context.Context, source string) (*services.RefreshResult, error)
}

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron      *cron.Cron
	refresher Refresher
	cfg       config.RefreshConfig
	logger    *zap.Logger
}

// NewCronManager creates a new cron manager
func NewCronManager(refresher Refresher, cfg config.RefreshConfig, logger *zap.Logger) *CronManager {
	cl := cronLogger{logger.Sugar().Named("cron")}

	// Create cron with seconds precision. Overlapping runs of a job are skipped.
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(time.UTC),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	return &CronManager{
		cron:      c,
		refresher: refresher,
		cfg:       cfg,
		logger:    logger,
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	m.logger.Info("starting cron jobs")

	// Register all jobs
	if err := m.registerJobs(); err != nil {
		return err
	}

	// Start the cron scheduler
	m.cron.Start()

	for _, e := range m.cron.Entries() {
		m.logger.Info("cron job scheduled", zap.Time("next", e.Next))
	}
	return nil
}

// Stop stops all cron jobs and waits for running ones to return.
func (m *CronManager) Stop() {
	m.logger.Info("stopping cron jobs")
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.logger.Info("cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// Daily catalog refresh, 02:00 UTC by default
	_, err := m.cron.AddFunc(m.cfg.Schedule, func() {
		m.RefreshCatalog()
	})
	if err != nil {
		return err
	}

	m.logger.Info("all cron jobs registered", zap.String("refresh_schedule", m.cfg.Schedule))
	return nil
}

func (m *CronManager) logJobStart(jobName string) time.Time {
	m.logger.Info("cron job started", zap.String("job", jobName))
	return time.Now()
}

func (m *CronManager) logJobComplete(jobName string, started time.Time, fields ...zap.Field) {
	fields = append(fields, zap.String("job", jobName), zap.Duration("took", time.Since(started)))
	m.logger.Info("cron job completed", fields...)
}

func (m *CronManager) logJobError(jobName string, started time.Time, err error) {
	m.logger.Error("cron job failed",
		zap.String("job", jobName),
		zap.Duration("took", time.Since(started)),
		zap.Error(err),
	)
}

// cronLogger adapts zap to the cron.Logger interface.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
