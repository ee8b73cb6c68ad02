package domain

import "time"

// AssetKind enumerates produced artifact types.
type AssetKind string

const (
	AssetKindConceptArt AssetKind = "concept_art"
	AssetKindModel3D    AssetKind = "model_3d"
	AssetKindSprite     AssetKind = "sprite"
)

// Asset represents a generated artifact belonging to a pipeline.
type Asset struct {
	ID         string
	PipelineID string
	UserID     string
	Kind       AssetKind
	StorageKey string
	URL        string
	MIME       string
	Bytes      int64
	CreatedAt  time.Time
}
