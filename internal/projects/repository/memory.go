package repository

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GoSim-25-26J-441/project-auth/internal/projects/domain"
)

// MemoryStore is an in-process Acquirer for local development
// (PROJECT_STORE=memory) and tests. It is not durable.
type MemoryStore struct {
	mu       sync.RWMutex
	projects map[string]domain.Project
	stages   map[string]domain.Stage
	now      func() time.Time

	outstanding atomic.Int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects: map[string]domain.Project{},
		stages:   map[string]domain.Stage{},
		now:      time.Now,
	}
}

// WithClock replaces the clock used for timestamps.
func (m *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	m.now = now
	return m
}

func (m *MemoryStore) Acquire(context.Context) (Repository, func(), error) {
	m.outstanding.Add(1)
	var once sync.Once
	return m, func() { once.Do(func() { m.outstanding.Add(-1) }) }, nil
}

// Outstanding reports acquisitions that have not been released yet.
func (m *MemoryStore) Outstanding() int64 {
	return m.outstanding.Load()
}

func (m *MemoryStore) ListByOwner(_ context.Context, userID string) ([]domain.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Project, 0)
	for _, p := range m.projects {
		if p.UserID == userID {
			out = append(out, cloneProject(p))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (m *MemoryStore) Create(_ context.Context, p *domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	p.CreatedAt, p.UpdatedAt = now, now
	m.projects[p.ID] = cloneProject(*p)
	return nil
}

func (m *MemoryStore) GetOwned(_ context.Context, id, userID string) (*domain.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.projects[id]
	if !ok || p.UserID != userID {
		return nil, domain.ErrNotFound
	}
	cp := cloneProject(p)
	return &cp, nil
}

func (m *MemoryStore) Update(_ context.Context, p *domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.projects[p.ID]
	if !ok || cur.UserID != p.UserID {
		return domain.ErrNotFound
	}
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = m.now()
	stored := cloneProject(*p)
	stored.Stages = nil
	m.projects[p.ID] = stored
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.projects[id]; !ok {
		return domain.ErrNotFound
	}
	for sid, s := range m.stages {
		if s.ProjectID == id {
			delete(m.stages, sid)
		}
	}
	delete(m.projects, id)
	return nil
}

func (m *MemoryStore) CreateStage(_ context.Context, s *domain.Stage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.projects[s.ProjectID]; !ok {
		return domain.ErrNotFound
	}
	for _, existing := range m.stages {
		if existing.ProjectID == s.ProjectID && existing.StageName == s.StageName {
			return domain.ErrDuplicateStage
		}
	}
	now := m.now()
	s.CreatedAt, s.UpdatedAt = now, now
	m.stages[s.ID] = *s
	return nil
}

func (m *MemoryStore) ListStages(_ context.Context, projectID string) ([]domain.Stage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Stage, 0, 8)
	for _, s := range m.stages {
		if s.ProjectID == projectID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StageName < out[j].StageName })
	return out, nil
}

func (m *MemoryStore) GetStage(_ context.Context, projectID, stageID string) (*domain.Stage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.stages[stageID]
	if !ok || s.ProjectID != projectID {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) UpdateStage(_ context.Context, s *domain.Stage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.stages[s.ID]
	if !ok || cur.ProjectID != s.ProjectID {
		return domain.ErrNotFound
	}
	s.CreatedAt = cur.CreatedAt
	s.UpdatedAt = m.now()
	m.stages[s.ID] = *s
	return nil
}

func cloneProject(p domain.Project) domain.Project {
	p.Tags = append([]string{}, p.Tags...)
	if p.Description != nil {
		d := *p.Description
		p.Description = &d
	}
	p.Stages = nil
	return p
}
