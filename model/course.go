package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Course represents an undergraduate programme offered by a university.
// UcasCode is nil for courses published without a code; those can never be
// matched on a later refresh and are always inserted.
type Course struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UniversityID  uuid.UUID `gorm:"type:uuid;not null;index" json:"university_id"`
	Name          string    `gorm:"not null" json:"name"`
	SubjectArea   string    `gorm:"index" json:"subject_area"`
	Qualification string    `json:"qualification"` // e.g. BSc, MEng, BA
	DurationYears int       `json:"duration_years"`
	UcasCode      *string   `gorm:"uniqueIndex" json:"ucas_code"`
	CourseURL     string    `gorm:"column:course_url" json:"course_url"`
	Year          int       `gorm:"index" json:"year"` // Academic year of entry
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Relationships
	University        *University        `gorm:"foreignKey:UniversityID;constraint:OnDelete:CASCADE" json:"university,omitempty"`
	EntryRequirements []EntryRequirement `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"entry_requirements,omitempty"`
}

// BeforeCreate assigns a fresh id when the caller did not set one.
func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// EntryRequirement is one admission requirement of a course (A-Level, IB, BTEC...).
// The set belonging to a course is replaced wholesale on every refresh.
type EntryRequirement struct {
	ID                  uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID            uuid.UUID         `gorm:"type:uuid;not null;index" json:"course_id"`
	RequirementType     string            `json:"requirement_type"`
	TypicalOffer        string            `json:"typical_offer"`
	MinimumOffer        string            `json:"minimum_offer"`
	SubjectRequirements datatypes.JSONMap `gorm:"type:jsonb" json:"subject_requirements"`
	Position            int               `gorm:"not null;default:0" json:"-"` // order within the source batch
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// BeforeCreate assigns a fresh id when the caller did not set one.
func (r *EntryRequirement) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
