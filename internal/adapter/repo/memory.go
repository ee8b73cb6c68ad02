package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"server/internal/domain"
)

// MemoryJobRepository is an in-memory domain.JobRepository used by tests and
// by DB-less development runs. Records are deep-copied on the way in and out
// so callers never share mutable state with the store.
type MemoryJobRepository struct {
	mu   sync.RWMutex
	jobs map[string]*domain.PipelineJob
}

// NewMemoryJobRepository creates an empty in-memory job store.
func NewMemoryJobRepository() *MemoryJobRepository {
	return &MemoryJobRepository{jobs: make(map[string]*domain.PipelineJob)}
}

func (r *MemoryJobRepository) Create(ctx context.Context, job *domain.PipelineJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.PipelineID]; exists {
		return domain.ErrDuplicateID
	}
	r.jobs[job.PipelineID] = job.Clone()
	return nil
}

func (r *MemoryJobRepository) Update(ctx context.Context, pipelineID string, update domain.JobUpdate) (*domain.PipelineJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[pipelineID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	job.Apply(update)
	return job.Clone(), nil
}

func (r *MemoryJobRepository) GetByPipelineID(ctx context.Context, pipelineID string) (*domain.PipelineJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[pipelineID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return job.Clone(), nil
}

var _ domain.JobRepository = (*MemoryJobRepository)(nil)

// MemoryActivityRepository keeps activity entries in memory.
type MemoryActivityRepository struct {
	mu      sync.RWMutex
	entries []domain.ActivityEntry
}

func NewMemoryActivityRepository() *MemoryActivityRepository {
	return &MemoryActivityRepository{}
}

func (r *MemoryActivityRepository) Append(ctx context.Context, entry *domain.ActivityEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e := *entry
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	r.entries = append(r.entries, e)
	return nil
}

func (r *MemoryActivityRepository) ListRecent(ctx context.Context, userID string, limit int) ([]domain.ActivityEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.ActivityEntry
	for _, e := range r.entries {
		if userID == "" || e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ domain.ActivityRepository = (*MemoryActivityRepository)(nil)

// MemoryProjectRepository keeps projects in memory.
type MemoryProjectRepository struct {
	mu       sync.RWMutex
	projects map[string]domain.Project
}

func NewMemoryProjectRepository() *MemoryProjectRepository {
	return &MemoryProjectRepository{projects: make(map[string]domain.Project)}
}

func (r *MemoryProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[project.ID] = *project
	return nil
}

func (r *MemoryProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *MemoryProjectRepository) ListByUser(ctx context.Context, userID string) ([]domain.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Project
	for _, p := range r.projects {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

var _ domain.ProjectRepository = (*MemoryProjectRepository)(nil)

// MemoryAssetRepository keeps generated assets in memory.
type MemoryAssetRepository struct {
	mu     sync.RWMutex
	assets []domain.Asset
}

func NewMemoryAssetRepository() *MemoryAssetRepository {
	return &MemoryAssetRepository{}
}

func (r *MemoryAssetRepository) Save(ctx context.Context, asset *domain.Asset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a := *asset
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	r.assets = append(r.assets, a)
	return nil
}

func (r *MemoryAssetRepository) ListByPipelineID(ctx context.Context, pipelineID string) ([]domain.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Asset
	for _, a := range r.assets {
		if a.PipelineID == pipelineID {
			out = append(out, a)
		}
	}
	return out, nil
}

var _ domain.AssetRepository = (*MemoryAssetRepository)(nil)
