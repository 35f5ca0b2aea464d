// Package memory is an in-process implementation of the store contracts,
// used with STORE_DRIVER=memory and by tests. One RWMutex guards all state.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"jobmate/govjobs-service/internal/geo"
	"jobmate/govjobs-service/internal/model"
	"jobmate/govjobs-service/internal/store"
)

// Store keeps sources, jobs and geocode entries in maps.
type Store struct {
	mu      sync.RWMutex
	sources map[uuid.UUID]*model.JobSource
	jobs    map[uuid.UUID]*model.Job
	byHash  map[string]uuid.UUID
	geo     map[string]model.GeoCacheEntry
	now     func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		sources: make(map[uuid.UUID]*model.JobSource),
		jobs:    make(map[uuid.UUID]*model.Job),
		byHash:  make(map[string]uuid.UUID),
		geo:     make(map[string]model.GeoCacheEntry),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// ─── Sources ─────────────────────────────────────────────────────────────────

func (s *Store) sortedSources(activeOnly bool) []model.JobSource {
	out := make([]model.JobSource, 0, len(s.sources))
	for _, src := range s.sources {
		if activeOnly && !src.Active {
			continue
		}
		out = append(out, cloneSource(src))
	}
	slices.SortFunc(out, func(a, b model.JobSource) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// ListActiveSources returns every active source, by name.
func (s *Store) ListActiveSources(context.Context) ([]model.JobSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedSources(true), nil
}

// ListSources returns every source, by name.
func (s *Store) ListSources(context.Context) ([]model.JobSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedSources(false), nil
}

// GetSource returns one source by id.
func (s *Store) GetSource(_ context.Context, id uuid.UUID) (*model.JobSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.sources[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := cloneSource(src)
	return &c, nil
}

// MarkSourceRun sets last_run_at.
func (s *Store) MarkSourceRun(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.sources[id]
	if !ok {
		return store.ErrNotFound
	}
	t := at.UTC()
	src.LastRunAt = &t
	src.UpdatedAt = s.now()
	return nil
}

// UpsertSource registers a source or updates the one with the same name.
func (s *Store) UpsertSource(_ context.Context, src *model.JobSource) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if src.Config == nil {
		src.Config = model.SourceConfig{}
	}
	for _, existing := range s.sources {
		if existing.Name != src.Name {
			continue
		}
		existing.BaseURL = src.BaseURL
		existing.Type = src.Type
		existing.Config = cloneConfig(src.Config)
		existing.Active = src.Active
		existing.UpdatedAt = now
		*src = cloneSource(existing)
		return false, nil
	}

	c := cloneSource(src)
	c.ID = uuid.New()
	c.CreatedAt, c.UpdatedAt = now, now
	c.LastRunAt = nil
	s.sources[c.ID] = &c
	*src = cloneSource(&c)
	return true, nil
}

// ─── Jobs ────────────────────────────────────────────────────────────────────

// UpsertJob applies the dedup decision under the write lock.
func (s *Store) UpsertJob(_ context.Context, job *model.Job) (model.UpsertOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sources[job.SourceID]; !ok {
		return "", store.ErrUnknownSource
	}
	now := s.now()

	if id, ok := s.byHash[job.SourceHash]; ok {
		existing := s.jobs[id]
		job.Status = model.NextStatus(existing.Status, job.Status)
		if sameMutable(existing, job) {
			job.ID, job.CreatedAt, job.UpdatedAt = existing.ID, existing.CreatedAt, existing.UpdatedAt
			return model.OutcomeUnchanged, nil
		}
		applyMutable(existing, job)
		existing.UpdatedAt = now
		job.ID, job.CreatedAt, job.UpdatedAt = existing.ID, existing.CreatedAt, existing.UpdatedAt
		return model.OutcomeUpdated, nil
	}

	c := cloneJob(job)
	c.ID = uuid.New()
	c.CreatedAt, c.UpdatedAt = now, now
	s.jobs[c.ID] = &c
	s.byHash[c.SourceHash] = c.ID
	job.ID, job.CreatedAt, job.UpdatedAt = c.ID, c.CreatedAt, c.UpdatedAt
	return model.OutcomeInserted, nil
}

// GetJob returns one job by id.
func (s *Store) GetJob(_ context.Context, id uuid.UUID) (*model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := cloneJob(j)
	return &c, nil
}

// JobsInBox returns every positioned job inside box.
func (s *Store) JobsInBox(_ context.Context, box geo.BoundingBox) ([]model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Job
	for _, j := range s.jobs {
		if j.HasPosition() && box.Contains(*j.Lat, *j.Lon) {
			out = append(out, cloneJob(j))
		}
	}
	return out, nil
}

// Len returns the number of stored jobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// ─── Geocode cache ───────────────────────────────────────────────────────────

// GetGeo returns the cached entry for key.
func (s *Store) GetGeo(_ context.Context, key string) (*model.GeoCacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.geo[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	e.Result = slices.Clone(e.Result)
	return &e, nil
}

// PutGeo writes an entry; the last writer wins.
func (s *Store) PutGeo(_ context.Context, e model.GeoCacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.Result = slices.Clone(e.Result)
	s.geo[e.Key] = e
	return nil
}

// PurgeGeoOlderThan deletes entries cached before cutoff.
func (s *Store) PurgeGeoOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, e := range s.geo {
		if e.CachedAt.Before(cutoff) {
			delete(s.geo, k)
			n++
		}
	}
	return n, nil
}
