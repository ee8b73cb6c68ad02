package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

// JobRepositoryPG implements domain.JobRepository on top of PostgreSQL. The
// config snapshot, stage map and result payload are stored as JSONB.
type JobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(pool *pgxpool.Pool) *JobRepositoryPG {
	return &JobRepositoryPG{pool: pool}
}

// Create inserts a new pipeline job record. A pipeline id collision surfaces
// as domain.ErrDuplicateID.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.PipelineJob) error {
	configJSON, err := json.Marshal(job.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	stagesJSON, err := json.Marshal(job.Stages)
	if err != nil {
		return fmt.Errorf("marshal stages: %w", err)
	}
	query := `
INSERT INTO pipeline_jobs (pipeline_id, user_id, config, status, stages, progress, error_message, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
`
	_, err = r.pool.Exec(ctx, query,
		job.PipelineID,
		job.Config.UserID,
		configJSON,
		job.Status,
		stagesJSON,
		job.Progress,
		job.Error,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.ErrDuplicateID
		}
		return err
	}
	return nil
}

// Update merges the given partial fields into the existing record and returns
// the merged job. Missing ids surface as domain.ErrNotFound.
func (r *JobRepositoryPG) Update(ctx context.Context, pipelineID string, update domain.JobUpdate) (*domain.PipelineJob, error) {
	job, err := r.GetByPipelineID(ctx, pipelineID)
	if err != nil {
		return nil, err
	}
	job.Apply(update)

	stagesJSON, err := json.Marshal(job.Stages)
	if err != nil {
		return nil, fmt.Errorf("marshal stages: %w", err)
	}
	var resultJSON []byte
	if job.Result != nil {
		if resultJSON, err = json.Marshal(job.Result); err != nil {
			return nil, fmt.Errorf("marshal result: %w", err)
		}
	}
	query := `
UPDATE pipeline_jobs
SET status = $2,
    stages = $3,
    progress = $4,
    result = COALESCE($5, result),
    error_message = $6,
    completed_at = $7,
    failed_at = $8,
    updated_at = $9
WHERE pipeline_id = $1;
`
	tag, err := r.pool.Exec(ctx, query,
		pipelineID,
		job.Status,
		stagesJSON,
		job.Progress,
		resultJSON,
		job.Error,
		job.CompletedAt,
		job.FailedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrNotFound
	}
	return job, nil
}

// GetByPipelineID fetches a job by its pipeline identifier.
func (r *JobRepositoryPG) GetByPipelineID(ctx context.Context, pipelineID string) (*domain.PipelineJob, error) {
	query := `
SELECT pipeline_id, config, status, stages, progress, result, error_message, created_at, updated_at, completed_at, failed_at
FROM pipeline_jobs
WHERE pipeline_id = $1;
`
	row := r.pool.QueryRow(ctx, query, pipelineID)

	var (
		job        domain.PipelineJob
		configJSON []byte
		stagesJSON []byte
		resultJSON []byte
	)
	if err := row.Scan(
		&job.PipelineID,
		&configJSON,
		&job.Status,
		&stagesJSON,
		&job.Progress,
		&resultJSON,
		&job.Error,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.CompletedAt,
		&job.FailedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(configJSON, &job.Config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := json.Unmarshal(stagesJSON, &job.Stages); err != nil {
		return nil, fmt.Errorf("unmarshal stages: %w", err)
	}
	if len(resultJSON) > 0 {
		job.Result = &domain.PipelineResult{}
		if err := json.Unmarshal(resultJSON, job.Result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
	}
	return &job, nil
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
