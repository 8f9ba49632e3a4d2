package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sahilchouksey/uniguide-api/model"
	"github.com/sahilchouksey/uniguide-api/repository"
	"github.com/sahilchouksey/uniguide-api/services/sources"
	"github.com/sahilchouksey/uniguide-api/utils/cache"
	"github.com/sahilchouksey/uniguide-api/utils/metrics"
)

var (
	ErrUnknownSource = errors.New("unknown data source")
	// ErrFetchFailed wraps adapter and parse errors. The run is recorded as failed.
	ErrFetchFailed = errors.New("fetch failed")
)

const finalizeTimeout = 10 * time.Second

// RefreshResult summarizes one successful run.
type RefreshResult struct {
	Status            string    `json:"status"`
	UniversitiesCount int       `json:"universities_count"`
	CoursesCount      int       `json:"courses_count"`
	SkippedCount      int       `json:"skipped_count"`
	RunID             uuid.UUID `json:"run_id"`
}

// SourceLookup resolves a data source by name.
type SourceLookup interface {
	Get(name string) (sources.Source, error)
}

// RefreshService reconciles a fetched batch against the catalog.
type RefreshService struct {
	repo        *repository.Repository
	sources     SourceLookup
	cache       cache.Cache
	logger      *zap.Logger
	validate    *validator.Validate
	sanitizer   *bluemonday.Policy
	defaultYear int
	group       singleflight.Group
	now         func() time.Time
}

func NewRefreshService(repo *repository.Repository, srcs SourceLookup, c cache.Cache, defaultYear int, logger *zap.Logger) *RefreshService {
	if defaultYear == 0 {
		defaultYear = 2024
	}
	return &RefreshService{
		repo:        repo,
		sources:     srcs,
		cache:       c,
		logger:      logger,
		validate:    validator.New(),
		sanitizer:   bluemonday.StrictPolicy(),
		defaultYear: defaultYear,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Refresh runs the reconciliation pipeline for the named source. Concurrent
// calls for the same source share one run and its result.
func (s *RefreshService) Refresh(ctx context.Context, sourceName string) (*RefreshResult, error) {
	src, err := s.sources.Get(sourceName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, sourceName)
	}

	v, err, shared := s.group.Do(src.Name(), func() (interface{}, error) {
		return s.run(ctx, src)
	})
	if shared {
		s.logger.Debug("joined in-flight refresh", zap.String("source", src.Name()))
	}
	if err != nil {
		return nil, err
	}
	res := *v.(*RefreshResult)
	return &res, nil
}

// normalizedCourse is a course ready for upsert, keyed to its university by name.
type normalizedCourse struct {
	universityName string
	course         model.Course
	requirements   []model.EntryRequirement
}

type normalizedBatch struct {
	universities []model.University
	courses      []normalizedCourse
}

func (s *RefreshService) run(ctx context.Context, src sources.Source) (*RefreshResult, error) {
	started := s.now()
	runLog := &model.RefreshLog{
		Source:    src.Name(),
		Status:    model.RefreshStatusInProgress,
		StartedAt: started,
	}
	if err := s.repo.RefreshLog.Create(ctx, runLog); err != nil {
		return nil, fmt.Errorf("failed to create refresh log: %w", err)
	}

	log := s.logger.With(zap.String("source", src.Name()), zap.String("run_id", runLog.ID.String()))
	log.Info("refresh started")

	defer func() {
		metrics.RefreshDuration.WithLabelValues(src.Name()).Observe(time.Since(started).Seconds())
	}()

	records, err := src.FetchBatch(ctx)
	if err != nil {
		return nil, s.fail(ctx, log, runLog, fmt.Errorf("%w: %w", ErrFetchFailed, err))
	}

	batch, err := s.normalize(records)
	if err != nil {
		return nil, s.fail(ctx, log, runLog, fmt.Errorf("%w: %w", ErrFetchFailed, err))
	}
	log.Info("batch fetched",
		zap.Int("records", len(records)),
		zap.Int("universities", len(batch.universities)),
	)

	universityIDs := make(map[string]uuid.UUID, len(batch.universities))
	for i := range batch.universities {
		u := batch.universities[i]
		id, err := s.upsertUniversity(ctx, &u)
		if err != nil {
			return nil, s.fail(ctx, log, runLog, fmt.Errorf("upsert university %q: %w", u.Name, err))
		}
		universityIDs[u.Name] = id
	}

	processed, skipped := 0, 0
	for _, nc := range batch.courses {
		universityID, ok := universityIDs[nc.universityName]
		if !ok {
			continue
		}
		nc.course.UniversityID = universityID

		err := s.upsertCourse(ctx, &nc.course, nc.requirements)
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			skipped++
			log.Warn("skipping course after uniqueness conflict",
				zap.String("course", nc.course.Name),
				zap.String("university", nc.universityName),
				zap.Error(err),
			)
		case err != nil:
			return nil, s.fail(ctx, log, runLog, fmt.Errorf("upsert course %q: %w", nc.course.Name, err))
		default:
			processed++
		}
	}

	finalizeCtx, cancel := detached(ctx)
	defer cancel()

	if err := s.repo.RefreshLog.MarkSuccess(finalizeCtx, runLog.ID, processed, s.now()); err != nil {
		return nil, fmt.Errorf("failed to finalize refresh log: %w", err)
	}

	metrics.RefreshRuns.WithLabelValues(src.Name(), model.RefreshStatusSuccess).Inc()
	metrics.RefreshRecords.WithLabelValues(src.Name(), "processed").Add(float64(processed))
	metrics.RefreshRecords.WithLabelValues(src.Name(), "skipped").Add(float64(skipped))

	s.invalidate(finalizeCtx, log)

	log.Info("refresh completed",
		zap.Int("universities", len(universityIDs)),
		zap.Int("courses", processed),
		zap.Int("skipped", skipped),
	)

	return &RefreshResult{
		Status:            model.RefreshStatusSuccess,
		UniversitiesCount: len(universityIDs),
		CoursesCount:      processed,
		SkippedCount:      skipped,
		RunID:             runLog.ID,
	}, nil
}

// fail records the run as failed and returns cause unchanged.
func (s *RefreshService) fail(ctx context.Context, log *zap.Logger, runLog *model.RefreshLog, cause error) error {
	finalizeCtx, cancel := detached(ctx)
	defer cancel()

	if err := s.repo.RefreshLog.MarkFailed(finalizeCtx, runLog.ID, cause.Error(), s.now()); err != nil {
		log.Error("failed to record refresh failure", zap.Error(err))
	}
	metrics.RefreshRuns.WithLabelValues(runLog.Source, model.RefreshStatusFailed).Inc()
	log.Error("refresh failed", zap.Error(cause))
	return cause
}

// detached keeps terminal bookkeeping alive when the caller has gone away.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
}

func (s *RefreshService) upsertUniversity(ctx context.Context, u *model.University) (uuid.UUID, error) {
	existing, err := s.repo.University.FindByName(ctx, u.Name)
	switch {
	case err == nil:
		if err := s.repo.University.UpdateContact(ctx, existing.ID, u.Location, u.WebsiteURL); err != nil {
			return uuid.Nil, err
		}
		return existing.ID, nil
	case !errors.Is(err, repository.ErrNotFound):
		return uuid.Nil, err
	}

	err = s.repo.University.Create(ctx, u)
	if errors.Is(err, repository.ErrDuplicate) {
		// Inserted concurrently; use the row that won.
		existing, err = s.repo.University.FindByName(ctx, u.Name)
		if err != nil {
			return uuid.Nil, err
		}
		return existing.ID, nil
	}
	if err != nil {
		return uuid.Nil, err
	}
	return u.ID, nil
}

// upsertCourse matches on UCAS code. A matched course is moved to c.UniversityID.
func (s *RefreshService) upsertCourse(ctx context.Context, c *model.Course, reqs []model.EntryRequirement) error {
	var err error
	if c.UcasCode != nil {
		var existing *model.Course
		existing, err = s.repo.Course.FindByUcasCode(ctx, *c.UcasCode)
		switch {
		case err == nil:
			c.ID = existing.ID
			c.CreatedAt = existing.CreatedAt
			err = s.repo.Course.Update(ctx, c)
		case errors.Is(err, repository.ErrNotFound):
			err = s.repo.Course.Create(ctx, c)
		}
	} else {
		err = s.repo.Course.Create(ctx, c)
	}
	if err != nil {
		return err
	}

	return s.repo.Course.ReplaceRequirements(ctx, c.ID, reqs)
}

func (s *RefreshService) invalidate(ctx context.Context, log *zap.Logger) {
	for _, prefix := range []string{cache.CoursesPrefix, cache.UniversitiesPrefix} {
		if err := cache.BumpGeneration(ctx, s.cache, prefix); err != nil && !errors.Is(err, cache.ErrUnavailable) {
			log.Warn("cache generation bump failed", zap.String("prefix", prefix), zap.Error(err))
		}
		n, err := s.cache.DeletePattern(ctx, prefix+"*")
		if err != nil {
			if !errors.Is(err, cache.ErrUnavailable) {
				log.Warn("cache invalidation failed", zap.String("prefix", prefix), zap.Error(err))
			}
			continue
		}
		log.Debug("cache invalidated", zap.String("prefix", prefix), zap.Int("keys", n))
	}
}

// normalize validates and cleans raw records. Any invalid record rejects the batch.
func (s *RefreshService) normalize(records []sources.RawRecord) (*normalizedBatch, error) {
	batch := &normalizedBatch{}
	seen := make(map[string]struct{})

	for i := range records {
		rec := records[i]
		if err := s.validate.Struct(rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}

		uniName := s.clean(rec.UniversityName)
		courseName := s.clean(rec.CourseName)
		if uniName == "" || courseName == "" {
			return nil, fmt.Errorf("record %d: university and course names must not be blank", i)
		}

		if _, ok := seen[uniName]; !ok {
			seen[uniName] = struct{}{}
			batch.universities = append(batch.universities, model.University{
				Name:       uniName,
				Location:   s.clean(rec.Location),
				WebsiteURL: strings.TrimSpace(rec.WebsiteURL),
			})
		}

		year := rec.Year
		if year == 0 {
			year = s.defaultYear
		}

		var ucasCode *string
		if code := strings.TrimSpace(rec.UcasCode); code != "" {
			ucasCode = &code
		}

		reqs := make([]model.EntryRequirement, 0, len(rec.EntryRequirements))
		for _, r := range rec.EntryRequirements {
			reqs = append(reqs, model.EntryRequirement{
				RequirementType:     s.clean(r.RequirementType),
				TypicalOffer:        s.clean(r.TypicalOffer),
				MinimumOffer:        s.clean(r.MinimumOffer),
				SubjectRequirements: s.cleanMap(r.SubjectRequirements),
			})
		}

		batch.courses = append(batch.courses, normalizedCourse{
			universityName: uniName,
			course: model.Course{
				Name:          courseName,
				SubjectArea:   s.clean(rec.SubjectArea),
				Qualification: s.clean(rec.Qualification),
				DurationYears: rec.DurationYears,
				UcasCode:      ucasCode,
				CourseURL:     strings.TrimSpace(rec.CourseURL),
				Year:          year,
			},
			requirements: reqs,
		})
	}

	return batch, nil
}

// clean strips markup and surrounding whitespace from scraped text.
func (s *RefreshService) clean(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(v)))
}

func (s *RefreshService) cleanMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = s.cleanValue(v)
	}
	return out
}

func (s *RefreshService) cleanValue(v interface{}) interface{} {
	switch t := v.(type) {
	case string:
		return s.clean(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = s.cleanValue(item)
		}
		return out
	case map[string]interface{}:
		return s.cleanMap(t)
	default:
		return v
	}
}
