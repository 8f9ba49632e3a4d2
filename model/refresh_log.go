package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RefreshStatusInProgress = "in_progress"
	RefreshStatusSuccess    = "success"
	RefreshStatusFailed     = "failed"
)

// RefreshLog records one invocation of the catalog refresh for a source.
// A row leaves in_progress exactly once; CompletedAt is only set on that transition.
type RefreshLog struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Source         string     `gorm:"type:varchar(100);not null;index" json:"source"`
	Status         string     `gorm:"type:varchar(20);not null;index" json:"status"`
	RecordsFetched int        `gorm:"not null;default:0" json:"records_fetched"`
	ErrorMessage   *string    `gorm:"type:text" json:"error_message"`
	StartedAt      time.Time  `gorm:"not null" json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at"`
}

// TableName specifies the table name for RefreshLog
func (RefreshLog) TableName() string {
	return "refresh_logs"
}

// BeforeCreate assigns a fresh id when the caller did not set one.
func (l *RefreshLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
