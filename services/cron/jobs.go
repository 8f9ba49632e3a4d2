package cron

import (
	"context"

	"go.uber.org/zap"
)

const refreshJobName = "refresh_catalog"

// RefreshCatalog refreshes the catalog from the configured source, bounded by
// the refresh timeout. The outcome is also recorded in the refresh log.
func (m *CronManager) RefreshCatalog() {
	started := m.logJobStart(refreshJobName)

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.Timeout)
	defer cancel()

	res, err := m.refresher.Refresh(ctx, m.cfg.Source)
	if err != nil {
		m.logJobError(refreshJobName, started, err)
		return
	}

	m.logJobComplete(refreshJobName, started,
		zap.String("source", m.cfg.Source),
		zap.String("run_id", res.RunID.String()),
		zap.Int("universities", res.UniversitiesCount),
		zap.Int("courses", res.CoursesCount),
		zap.Int("skipped", res.SkippedCount),
	)
}
