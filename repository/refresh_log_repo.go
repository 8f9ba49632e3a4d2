package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sahilchouksey/uniguide-api/model"
)

// RefreshLogRepository persists refresh run provenance. Rows are never deleted.
type RefreshLogRepository interface {
	Create(ctx context.Context, l *model.RefreshLog) error
	MarkSuccess(ctx context.Context, id uuid.UUID, recordsFetched int, completedAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string, completedAt time.Time) error
	LastSuccessful(ctx context.Context) (*model.RefreshLog, error)
	ListRecent(ctx context.Context, limit int) ([]model.RefreshLog, error)
}

type refreshLogRepo struct {
	db *gorm.DB
}

// NewRefreshLogRepo creates a RefreshLogRepository over GORM.
func NewRefreshLogRepo(db *gorm.DB) RefreshLogRepository {
	return &refreshLogRepo{db: db}
}

func (r *refreshLogRepo) Create(ctx context.Context, l *model.RefreshLog) error {
	return translateError(r.db.WithContext(ctx).Create(l).Error)
}

func (r *refreshLogRepo) MarkSuccess(ctx context.Context, id uuid.UUID, recordsFetched int, completedAt time.Time) error {
	return r.finish(ctx, id, map[string]interface{}{
		"status":          model.RefreshStatusSuccess,
		"records_fetched": recordsFetched,
		"completed_at":    completedAt,
	})
}

func (r *refreshLogRepo) MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string, completedAt time.Time) error {
	return r.finish(ctx, id, map[string]interface{}{
		"status":        model.RefreshStatusFailed,
		"error_message": errorMessage,
		"completed_at":  completedAt,
	})
}

// finish applies the single in_progress -> terminal transition.
func (r *refreshLogRepo) finish(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&model.RefreshLog{}).
		Where("id = ? AND status = ?", id, model.RefreshStatusInProgress).
		Updates(fields)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRunFinalized
	}
	return nil
}

func (r *refreshLogRepo) LastSuccessful(ctx context.Context) (*model.RefreshLog, error) {
	var l model.RefreshLog
	err := r.db.WithContext(ctx).
		Where("status = ?", model.RefreshStatusSuccess).
		Order("completed_at DESC").
		Limit(1).
		Take(&l).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &l, nil
}

func (r *refreshLogRepo) ListRecent(ctx context.Context, limit int) ([]model.RefreshLog, error) {
	logs := []model.RefreshLog{}
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, translateError(err)
}
