package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// University represents a UK higher education provider in the catalog.
// Name is the natural key used by the refresh pipeline.
type University struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string    `gorm:"not null;uniqueIndex" json:"name"`
	Location   string    `gorm:"type:varchar(255)" json:"location"`
	WebsiteURL string    `gorm:"column:website_url;type:varchar(512)" json:"website_url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Relationships
	Courses []Course `gorm:"foreignKey:UniversityID;constraint:OnDelete:CASCADE" json:"courses,omitempty"`
}

// BeforeCreate assigns a fresh id when the caller did not set one.
func (u *University) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
