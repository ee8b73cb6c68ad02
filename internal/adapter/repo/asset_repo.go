package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
)

// AssetRepositoryPG implements domain.AssetRepository using PostgreSQL.
type AssetRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewAssetRepository constructs a new asset repository instance.
func NewAssetRepository(pool *pgxpool.Pool) *AssetRepositoryPG {
	return &AssetRepositoryPG{pool: pool}
}

// Save persists one generated asset.
func (r *AssetRepositoryPG) Save(ctx context.Context, asset *domain.Asset) error {
	query := `
INSERT INTO assets (id, pipeline_id, user_id, kind, storage_key, url, mime, bytes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
`
	_, err := r.pool.Exec(ctx, query,
		asset.ID,
		asset.PipelineID,
		asset.UserID,
		asset.Kind,
		asset.StorageKey,
		asset.URL,
		asset.MIME,
		asset.Bytes,
	)
	return err
}

// ListByPipelineID returns all assets belonging to the pipeline.
func (r *AssetRepositoryPG) ListByPipelineID(ctx context.Context, pipelineID string) ([]domain.Asset, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, pipeline_id, user_id, kind, storage_key, url, mime, bytes, created_at
FROM assets
WHERE pipeline_id = $1
ORDER BY created_at ASC;
`, pipelineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []domain.Asset
	for rows.Next() {
		var asset domain.Asset
		if err := rows.Scan(&asset.ID, &asset.PipelineID, &asset.UserID, &asset.Kind, &asset.StorageKey, &asset.URL, &asset.MIME, &asset.Bytes, &asset.CreatedAt); err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return assets, nil
}

var _ domain.AssetRepository = (*AssetRepositoryPG)(nil)
