package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/sahilchouksey/uniguide-api/model"
	"github.com/sahilchouksey/uniguide-api/repository"
	"github.com/sahilchouksey/uniguide-api/utils/cache"
	"github.com/sahilchouksey/uniguide-api/utils/metrics"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

// RequirementDetail is an entry requirement as returned by the read API.
type RequirementDetail struct {
	ID                  uuid.UUID         `json:"id"`
	RequirementType     string            `json:"requirement_type"`
	TypicalOffer        string            `json:"typical_offer"`
	MinimumOffer        string            `json:"minimum_offer"`
	SubjectRequirements datatypes.JSONMap `json:"subject_requirements"`
}

// CourseWithDetails is a course with its university name and requirements inlined.
type CourseWithDetails struct {
	ID                uuid.UUID           `json:"id"`
	UniversityID      uuid.UUID           `json:"university_id"`
	UniversityName    string              `json:"university_name"`
	Name              string              `json:"name"`
	SubjectArea       string              `json:"subject_area"`
	Qualification     string              `json:"qualification"`
	DurationYears     int                 `json:"duration_years"`
	UcasCode          *string             `json:"ucas_code"`
	CourseURL         string              `json:"course_url"`
	Year              int                 `json:"year"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	EntryRequirements []RequirementDetail `json:"entry_requirements"`
}

// CourseListResult is one page of courses plus the total matching the filters.
type CourseListResult struct {
	Total   int64               `json:"total"`
	Limit   int                 `json:"limit"`
	Offset  int                 `json:"offset"`
	Results []CourseWithDetails `json:"results"`
}

// UniversityListResult is the full university listing.
type UniversityListResult struct {
	Total   int                `json:"total"`
	Results []model.University `json:"results"`
}

// CatalogService answers catalog reads, cache first.
type CatalogService struct {
	courses      repository.CourseRepository
	universities repository.UniversityRepository
	cache        cache.Cache
	ttl          time.Duration
	logger       *zap.Logger
}

func NewCatalogService(repo *repository.Repository, c cache.Cache, ttl time.Duration, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		courses:      repo.Course,
		universities: repo.University,
		cache:        c,
		ttl:          ttl,
		logger:       logger,
	}
}

// ClampPage bounds limit to [1, MaxPageLimit] and offset to >= 0.
func ClampPage(limit, offset int) (int, int) {
	if limit < 1 {
		limit = 1
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// normalizeFilter trims and lower-cases the text filters.
func normalizeFilter(f repository.CourseFilter) repository.CourseFilter {
	return repository.CourseFilter{
		University:    strings.ToLower(strings.TrimSpace(f.University)),
		Subject:       strings.ToLower(strings.TrimSpace(f.Subject)),
		Year:          f.Year,
		Qualification: strings.ToLower(strings.TrimSpace(f.Qualification)),
	}
}

// CoursesCacheKey derives the cache key of one normalized query under the
// given namespace generation. Map keys are marshalled in sorted order, so
// equal queries always hash the same.
func CoursesCacheKey(f repository.CourseFilter, limit, offset int, generation string) string {
	f = normalizeFilter(f)
	params := map[string]interface{}{
		"university":    f.University,
		"subject":       f.Subject,
		"year":          f.Year,
		"qualification": f.Qualification,
		"limit":         limit,
		"offset":        offset,
	}
	if generation != "" {
		params["generation"] = generation
	}
	raw, _ := json.Marshal(params)
	sum := sha256.Sum256(raw)
	return cache.CoursesPrefix + hex.EncodeToString(sum[:])
}

func (s *CatalogService) ListCourses(ctx context.Context, filter repository.CourseFilter, limit, offset int) (*CourseListResult, error) {
	limit, offset = ClampPage(limit, offset)
	filter = normalizeFilter(filter)
	key := CoursesCacheKey(filter, limit, offset, cache.Generation(ctx, s.cache, cache.CoursesPrefix))

	var cached CourseListResult
	if s.lookup(ctx, "courses", key, &cached) {
		return &cached, nil
	}

	courses, total, err := s.courses.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	result := &CourseListResult{
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		Results: make([]CourseWithDetails, 0, len(courses)),
	}
	for i := range courses {
		result.Results = append(result.Results, toCourseDetails(&courses[i]))
	}

	s.store(ctx, key, result)
	return result, nil
}

func (s *CatalogService) ListUniversities(ctx context.Context) (*UniversityListResult, error) {
	key := universitiesKey(cache.Generation(ctx, s.cache, cache.UniversitiesPrefix))

	var cached UniversityListResult
	if s.lookup(ctx, "universities", key, &cached) {
		return &cached, nil
	}

	universities, err := s.universities.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list universities: %w", err)
	}
	if universities == nil {
		universities = []model.University{}
	}

	result := &UniversityListResult{Total: len(universities), Results: universities}
	s.store(ctx, key, result)
	return result, nil
}

func universitiesKey(generation string) string {
	if generation == "" {
		return cache.UniversitiesAllKey
	}
	return cache.UniversitiesAllKey + ":" + generation
}

// lookup reports a cache hit. Cache failures are logged and read as a miss.
func (s *CatalogService) lookup(ctx context.Context, namespace, key string, dest interface{}) bool {
	err := cache.GetJSON(ctx, s.cache, key, dest)
	switch {
	case err == nil:
		metrics.CacheLookups.WithLabelValues(namespace, "hit").Inc()
		return true
	case errors.Is(err, cache.ErrNotFound), errors.Is(err, cache.ErrUnavailable):
		metrics.CacheLookups.WithLabelValues(namespace, "miss").Inc()
	default:
		metrics.CacheLookups.WithLabelValues(namespace, "error").Inc()
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

func (s *CatalogService) store(ctx context.Context, key string, value interface{}) {
	err := cache.SetJSON(ctx, s.cache, key, value, s.ttl)
	if err != nil && !errors.Is(err, cache.ErrUnavailable) {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func toCourseDetails(c *model.Course) CourseWithDetails {
	d := CourseWithDetails{
		ID:                c.ID,
		UniversityID:      c.UniversityID,
		Name:              c.Name,
		SubjectArea:       c.SubjectArea,
		Qualification:     c.Qualification,
		DurationYears:     c.DurationYears,
		UcasCode:          c.UcasCode,
		CourseURL:         c.CourseURL,
		Year:              c.Year,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
		EntryRequirements: make([]RequirementDetail, 0, len(c.EntryRequirements)),
	}
	if c.University != nil {
		d.UniversityName = c.University.Name
	}
	for _, r := range c.EntryRequirements {
		d.EntryRequirements = append(d.EntryRequirements, RequirementDetail{
			ID:                  r.ID,
			RequirementType:     r.RequirementType,
			TypicalOffer:        r.TypicalOffer,
			MinimumOffer:        r.MinimumOffer,
			SubjectRequirements: r.SubjectRequirements,
		})
	}
	return d
}
