package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sahilchouksey/uniguide-api/model"
)

// UniversityRepository is the data access contract for universities.
type UniversityRepository interface {
	FindByName(ctx context.Context, name string) (*model.University, error)
	Create(ctx context.Context, u *model.University) error
	UpdateContact(ctx context.Context, id uuid.UUID, location, websiteURL string) error
	List(ctx context.Context) ([]model.University, error)
}

type universityRepo struct {
	db *gorm.DB
}

// NewUniversityRepo creates a UniversityRepository over GORM.
func NewUniversityRepo(db *gorm.DB) UniversityRepository {
	return &universityRepo{db: db}
}

// FindByName matches the name exactly, case included.
func (r *universityRepo) FindByName(ctx context.Context, name string) (*model.University, error) {
	var u model.University
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		Take(&u).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &u, nil
}

func (r *universityRepo) Create(ctx context.Context, u *model.University) error {
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Create(u).Error)
}

func (r *universityRepo) UpdateContact(ctx context.Context, id uuid.UUID, location, websiteURL string) error {
	res := r.db.WithContext(ctx).
		Model(&model.University{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"location":    location,
			"website_url": websiteURL,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *universityRepo) List(ctx context.Context) ([]model.University, error) {
	var universities []model.University
	err := r.db.WithContext(ctx).Order("name ASC").Find(&universities).Error
	return universities, translateError(err)
}
