package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
)

// ActivityRepositoryPG implements domain.ActivityRepository using PostgreSQL.
type ActivityRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewActivityRepository constructs a new activity repository instance.
func NewActivityRepository(pool *pgxpool.Pool) *ActivityRepositoryPG {
	return &ActivityRepositoryPG{pool: pool}
}

// Append writes one audit record.
func (r *ActivityRepositoryPG) Append(ctx context.Context, entry *domain.ActivityEntry) error {
	query := `
INSERT INTO activity_log (id, user_id, action, pipeline_id, success, detail, country)
VALUES ($1, $2, $3, $4, $5, $6, $7);
`
	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Action,
		entry.PipelineID,
		entry.Success,
		entry.Detail,
		entry.Country,
	)
	return err
}

// ListRecent returns the newest entries for the user.
func (r *ActivityRepositoryPG) ListRecent(ctx context.Context, userID string, limit int) ([]domain.ActivityEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
SELECT id, user_id, action, pipeline_id, success, detail, country, created_at
FROM activity_log
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2;
`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.ActivityEntry
	for rows.Next() {
		var e domain.ActivityEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.PipelineID, &e.Success, &e.Detail, &e.Country, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

var _ domain.ActivityRepository = (*ActivityRepositoryPG)(nil)
