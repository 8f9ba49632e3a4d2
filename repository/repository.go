package repository

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
	// ErrRunFinalized is returned when a refresh log row already left in_progress.
	ErrRunFinalized = errors.New("refresh run already finalized")
)

// Repository groups the catalog repositories behind one handle.
type Repository struct {
	University UniversityRepository
	Course     CourseRepository
	RefreshLog RefreshLogRepository
}

// NewRepository creates the GORM backed repositories.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		University: NewUniversityRepo(db),
		Course:     NewCourseRepo(db),
		RefreshLog: NewRefreshLogRepo(db),
	}
}

// translateError maps GORM errors onto the package sentinels. The store must be
// opened with TranslateError so unique violations surface as gorm.ErrDuplicatedKey.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a lower-cased LIKE pattern matching s anywhere.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
