package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sahilchouksey/uniguide-api/model"
	"github.com/sahilchouksey/uniguide-api/repository"
)

// memStore is an in-memory stand-in for the Postgres repositories with the
// same uniqueness rules.
type memStore struct {
	mu           sync.Mutex
	universities map[uuid.UUID]*model.University
	courses      map[uuid.UUID]*model.Course
	requirements map[uuid.UUID][]model.EntryRequirement
	logs         map[uuid.UUID]*model.RefreshLog
	clock        time.Time
	listCalls    int

	// optional fault injection
	universityCreateErr func(u *model.University) error
	courseCreateErr     func(c *model.Course) error
}

func newMemStore() *memStore {
	return &memStore{
		universities: map[uuid.UUID]*model.University{},
		courses:      map[uuid.UUID]*model.Course{},
		requirements: map[uuid.UUID][]model.EntryRequirement{},
		logs:         map[uuid.UUID]*model.RefreshLog{},
		clock:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newMemRepo() (*repository.Repository, *memStore) {
	s := newMemStore()
	return &repository.Repository{
		University: memUniversities{s},
		Course:     memCourses{s},
		RefreshLog: memLogs{s},
	}, s
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) universityByName(name string) *model.University {
	for _, u := range s.universities {
		if u.Name == name {
			return u
		}
	}
	return nil
}

func (s *memStore) courseByCode(code string) *model.Course {
	for _, c := range s.courses {
		if c.UcasCode != nil && *c.UcasCode == code {
			return c
		}
	}
	return nil
}

func (s *memStore) courseList() []model.Course {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Course, 0, len(s.courses))
	for _, c := range s.courses {
		out = append(out, *c)
	}
	return out
}

func (s *memStore) requirementsOf(id uuid.UUID) []model.EntryRequirement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.EntryRequirement(nil), s.requirements[id]...)
}

func (s *memStore) logList() []model.RefreshLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.RefreshLog, 0, len(s.logs))
	for _, l := range s.logs {
		out = append(out, *l)
	}
	return out
}

type memUniversities struct{ s *memStore }

func (m memUniversities) FindByName(_ context.Context, name string) (*model.University, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u := m.s.universityByName(name)
	if u == nil {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m memUniversities) Create(_ context.Context, u *model.University) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.universityCreateErr != nil {
		if err := m.s.universityCreateErr(u); err != nil {
			return err
		}
	}
	if m.s.universityByName(u.Name) != nil {
		return repository.ErrDuplicate
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := m.s.tick()
	u.CreatedAt, u.UpdatedAt = now, now
	cp := *u
	m.s.universities[u.ID] = &cp
	return nil
}

func (m memUniversities) UpdateContact(_ context.Context, id uuid.UUID, location, websiteURL string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.universities[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Location, u.WebsiteURL, u.UpdatedAt = location, websiteURL, m.s.tick()
	return nil
}

func (m memUniversities) List(context.Context) ([]model.University, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := make([]model.University, 0, len(m.s.universities))
	for _, u := range m.s.universities {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memCourses struct{ s *memStore }

func (m memCourses) FindByUcasCode(_ context.Context, code string) (*model.Course, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c := m.s.courseByCode(code)
	if c == nil {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m memCourses) Create(_ context.Context, c *model.Course) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.courseCreateErr != nil {
		if err := m.s.courseCreateErr(c); err != nil {
			return err
		}
	}
	if c.UcasCode != nil && m.s.courseByCode(*c.UcasCode) != nil {
		return repository.ErrDuplicate
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := m.s.tick()
	c.CreatedAt, c.UpdatedAt = now, now
	cp := *c
	cp.University, cp.EntryRequirements = nil, nil
	m.s.courses[c.ID] = &cp
	return nil
}

func (m memCourses) Update(_ context.Context, c *model.Course) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	existing, ok := m.s.courses[c.ID]
	if !ok {
		return repository.ErrNotFound
	}
	c.UpdatedAt = m.s.tick()
	c.CreatedAt = existing.CreatedAt
	cp := *c
	cp.University, cp.EntryRequirements = nil, nil
	m.s.courses[c.ID] = &cp
	return nil
}

func (m memCourses) ReplaceRequirements(_ context.Context, courseID uuid.UUID, reqs []model.EntryRequirement) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	rows := make([]model.EntryRequirement, len(reqs))
	for i, r := range reqs {
		r.ID = uuid.New()
		r.CourseID = courseID
		r.Position = i
		rows[i] = r
	}
	m.s.requirements[courseID] = rows
	return nil
}

func (m memCourses) List(_ context.Context, f repository.CourseFilter, limit, offset int) ([]model.Course, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.listCalls++

	var matched []model.Course
	for _, c := range m.s.courses {
		u := m.s.universities[c.UniversityID]
		if u == nil {
			continue
		}
		if f.University != "" && !strings.Contains(strings.ToLower(u.Name), strings.ToLower(f.University)) {
			continue
		}
		if f.Subject != "" && !strings.Contains(strings.ToLower(c.SubjectArea), strings.ToLower(f.Subject)) {
			continue
		}
		if f.Year != 0 && c.Year != f.Year {
			continue
		}
		if f.Qualification != "" && !strings.EqualFold(c.Qualification, f.Qualification) {
			continue
		}
		cp := *c
		uc := *u
		cp.University = &uc
		cp.EntryRequirements = append([]model.EntryRequirement(nil), m.s.requirements[c.ID]...)
		matched = append(matched, cp)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	total := int64(len(matched))
	if offset >= len(matched) {
		return []model.Course{}, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

type memLogs struct{ s *memStore }

func (m memLogs) Create(_ context.Context, l *model.RefreshLog) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	cp := *l
	m.s.logs[l.ID] = &cp
	return nil
}

func (m memLogs) finish(id uuid.UUID, apply func(l *model.RefreshLog)) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	l, ok := m.s.logs[id]
	if !ok || l.Status != model.RefreshStatusInProgress {
		return repository.ErrRunFinalized
	}
	apply(l)
	return nil
}

func (m memLogs) MarkSuccess(_ context.Context, id uuid.UUID, n int, at time.Time) error {
	return m.finish(id, func(l *model.RefreshLog) {
		l.Status, l.RecordsFetched, l.CompletedAt = model.RefreshStatusSuccess, n, &at
	})
}

func (m memLogs) MarkFailed(_ context.Context, id uuid.UUID, msg string, at time.Time) error {
	return m.finish(id, func(l *model.RefreshLog) {
		l.Status, l.ErrorMessage, l.CompletedAt = model.RefreshStatusFailed, &msg, &at
	})
}

func (m memLogs) LastSuccessful(context.Context) (*model.RefreshLog, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var last *model.RefreshLog
	for _, l := range m.s.logs {
		if l.Status != model.RefreshStatusSuccess || l.CompletedAt == nil {
			continue
		}
		if last == nil || l.CompletedAt.After(*last.CompletedAt) {
			last = l
		}
	}
	if last == nil {
		return nil, repository.ErrNotFound
	}
	cp := *last
	return &cp, nil
}

func (m memLogs) ListRecent(_ context.Context, limit int) ([]model.RefreshLog, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := make([]model.RefreshLog, 0, len(m.s.logs))
	for _, l := range m.s.logs {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
