package domain

import "context"

// JobRepository defines persistence for pipeline job records, keyed by
// pipeline id.
type JobRepository interface {
	Create(ctx context.Context, job *PipelineJob) error
	Update(ctx context.Context, pipelineID string, update JobUpdate) (*PipelineJob, error)
	GetByPipelineID(ctx context.Context, pipelineID string) (*PipelineJob, error)
}

// UserRepository defines access methods for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
}

// ProjectRepository handles project persistence.
type ProjectRepository interface {
	Create(ctx context.Context, project *Project) error
	GetByID(ctx context.Context, id string) (*Project, error)
	ListByUser(ctx context.Context, userID string) ([]Project, error)
}

// AssetRepository handles persistence for generated assets.
type AssetRepository interface {
	Save(ctx context.Context, asset *Asset) error
	ListByPipelineID(ctx context.Context, pipelineID string) ([]Asset, error)
}

// ActivityRepository appends audit records and serves recent history.
type ActivityRepository interface {
	Append(ctx context.Context, entry *ActivityEntry) error
	ListRecent(ctx context.Context, userID string, limit int) ([]ActivityEntry, error)
}
