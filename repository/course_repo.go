package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sahilchouksey/uniguide-api/model"
)

// CourseFilter narrows a course listing. Zero values mean "no filter".
type CourseFilter struct {
	University    string // case-insensitive substring of the university name
	Subject       string // case-insensitive substring of the subject area
	Year          int    // exact academic year
	Qualification string // case-insensitive exact match
}

// CourseRepository is the data access contract for courses and their requirements.
type CourseRepository interface {
	FindByUcasCode(ctx context.Context, code string) (*model.Course, error)
	Create(ctx context.Context, c *model.Course) error
	Update(ctx context.Context, c *model.Course) error
	// ReplaceRequirements deletes every requirement of the course and inserts reqs
	// in their given order, in one transaction.
	ReplaceRequirements(ctx context.Context, courseID uuid.UUID, reqs []model.EntryRequirement) error
	// List returns one page of matching courses, newest first, with University and
	// EntryRequirements loaded, plus the total number of matches.
	List(ctx context.Context, filter CourseFilter, limit, offset int) ([]model.Course, int64, error)
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo creates a CourseRepository over GORM.
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) FindByUcasCode(ctx context.Context, code string) (*model.Course, error) {
	var c model.Course
	err := r.db.WithContext(ctx).
		Where("ucas_code = ?", code).
		Take(&c).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &c, nil
}

func (r *courseRepo) Create(ctx context.Context, c *model.Course) error {
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error)
}

// Update overwrites every scalar column, including the owning university.
func (r *courseRepo) Update(ctx context.Context, c *model.Course) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("id = ?", c.ID).
		Updates(map[string]interface{}{
			"university_id":  c.UniversityID,
			"name":           c.Name,
			"subject_area":   c.SubjectArea,
			"qualification":  c.Qualification,
			"duration_years": c.DurationYears,
			"ucas_code":      c.UcasCode,
			"course_url":     c.CourseURL,
			"year":           c.Year,
			"updated_at":     now,
		})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	c.UpdatedAt = now
	return nil
}

func (r *courseRepo) ReplaceRequirements(ctx context.Context, courseID uuid.UUID, reqs []model.EntryRequirement) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", courseID).Delete(&model.EntryRequirement{}).Error; err != nil {
			return err
		}
		if len(reqs) == 0 {
			return nil
		}

		rows := make([]model.EntryRequirement, len(reqs))
		for i, req := range reqs {
			req.ID = uuid.Nil
			req.CourseID = courseID
			req.Position = i
			rows[i] = req
		}
		return tx.Create(&rows).Error
	})
	return translateError(err)
}

func (r *courseRepo) List(ctx context.Context, filter CourseFilter, limit, offset int) ([]model.Course, int64, error) {
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).
			Model(&model.Course{}).
			Joins("JOIN universities ON universities.id = courses.university_id")

		if filter.University != "" {
			q = q.Where("LOWER(universities.name) LIKE ?", containsPattern(filter.University))
		}
		if filter.Subject != "" {
			q = q.Where("LOWER(courses.subject_area) LIKE ?", containsPattern(filter.Subject))
		}
		if filter.Year != 0 {
			q = q.Where("courses.year = ?", filter.Year)
		}
		if filter.Qualification != "" {
			q = q.Where("LOWER(courses.qualification) = ?", strings.ToLower(filter.Qualification))
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	courses := []model.Course{}
	if total == 0 || int64(offset) >= total {
		return courses, total, nil
	}

	err := base().
		Preload("University").
		Preload("EntryRequirements", func(db *gorm.DB) *gorm.DB {
			return db.Order("entry_requirements.position ASC")
		}).
		Order("courses.created_at DESC").
		Order("courses.id ASC").
		Limit(limit).
		Offset(offset).
		Find(&courses).Error
	if err != nil {
		return nil, 0, translateError(err)
	}

	return courses, total, nil
}
