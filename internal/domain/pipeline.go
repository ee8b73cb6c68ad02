package domain

import (
	"strings"
	"time"
)

// PipelineStatus enumerates the overall lifecycle states of a generation pipeline.
type PipelineStatus string

const (
	PipelineStatusPending    PipelineStatus = "pending"
	PipelineStatusProcessing PipelineStatus = "processing"
	PipelineStatusCompleted  PipelineStatus = "completed"
	PipelineStatusFailed     PipelineStatus = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s PipelineStatus) Terminal() bool {
	return s == PipelineStatusCompleted || s == PipelineStatusFailed
}

// StageStatus enumerates per-stage states; the values mirror PipelineStatus.
type StageStatus string

const (
	StageStatusPending    StageStatus = "pending"
	StageStatusProcessing StageStatus = "processing"
	StageStatusCompleted  StageStatus = "completed"
	StageStatusFailed     StageStatus = "failed"
)

// Stage identifies one ordered phase of the generation pipeline.
type Stage string

const (
	StageConceptArt Stage = "conceptArt"
	StageModel3D    Stage = "model3D"
	StageProcessing Stage = "processing"
)

// StageOrder is the fixed execution sequence. No stage starts before its
// predecessor reaches completed.
var StageOrder = []Stage{StageConceptArt, StageModel3D, StageProcessing}

// StageMap tracks per-stage status. Serialized to JSONB by the job store.
type StageMap map[Stage]StageStatus

// NewStageMap returns a stage map with every stage pending.
func NewStageMap() StageMap {
	m := make(StageMap, len(StageOrder))
	for _, s := range StageOrder {
		m[s] = StageStatusPending
	}
	return m
}

// Clone returns an independent copy so callers can mutate freely.
func (m StageMap) Clone() StageMap {
	out := make(StageMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Ordered reports whether the map satisfies the stage-order invariant: a
// later stage may only leave pending once every earlier stage is completed.
func (m StageMap) Ordered() bool {
	for i, s := range StageOrder {
		if m[s] == StageStatusPending {
			continue
		}
		for _, earlier := range StageOrder[:i] {
			if m[earlier] != StageStatusCompleted {
				return false
			}
		}
	}
	return true
}

// PipelineConfig is the configuration snapshot captured at submission time:
// the original request body plus applied defaults.
type PipelineConfig struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Subtype     string `json:"subtype,omitempty"`
	Tier        string `json:"tier"`
	Quality     string `json:"quality"`
	Style       string `json:"style"`
	Rig         bool   `json:"rig"`
	Retexture   bool   `json:"retexture"`
	Sprites     bool   `json:"sprites"`
	UserID      string `json:"user_id"`
	Locale      string `json:"locale,omitempty"`
	Country     string `json:"country,omitempty"`
}

// Defaults applied when the submission omits optional fields.
const (
	DefaultAssetType = "character"
	DefaultTier      = "standard"
	DefaultQuality   = "standard"
	DefaultStyle     = "realistic"
)

// ApplyDefaults fills unset optional fields and trims free-text inputs.
func (c *PipelineConfig) ApplyDefaults() {
	c.Name = strings.TrimSpace(c.Name)
	c.Description = strings.TrimSpace(c.Description)
	if c.Type == "" {
		c.Type = DefaultAssetType
	}
	if c.Tier == "" {
		c.Tier = DefaultTier
	}
	if c.Quality == "" {
		c.Quality = DefaultQuality
	}
	if c.Style == "" {
		c.Style = DefaultStyle
	}
}

// Validate checks the required fields. Defaults must be applied first.
func (c *PipelineConfig) Validate() error {
	if c.Name == "" || c.Description == "" {
		return ErrInvalidConfig
	}
	return nil
}

// PipelineResult holds the asset reference populated only on completion.
type PipelineResult struct {
	AssetID  string `json:"asset_id,omitempty"`
	AssetURL string `json:"asset_url,omitempty"`
}

// PipelineJob is the persisted record of one end-to-end generation request.
// The pipeline id is a generated UUID, distinct from the database row id.
type PipelineJob struct {
	PipelineID  string
	Config      PipelineConfig
	Status      PipelineStatus
	Stages      StageMap
	Progress    int
	Result      *PipelineResult
	Error       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
	FailedAt    *time.Time
}

// NewPipelineJob builds a fresh job in the pending state.
func NewPipelineJob(pipelineID string, cfg PipelineConfig) *PipelineJob {
	now := time.Now().UTC()
	return &PipelineJob{
		PipelineID: pipelineID,
		Config:     cfg,
		Status:     PipelineStatusPending,
		Stages:     NewStageMap(),
		Progress:   0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Clone returns a deep copy sharing no mutable state with the original.
func (j *PipelineJob) Clone() *PipelineJob {
	dup := *j
	dup.Stages = j.Stages.Clone()
	if j.Result != nil {
		result := *j.Result
		dup.Result = &result
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		dup.CompletedAt = &t
	}
	if j.FailedAt != nil {
		t := *j.FailedAt
		dup.FailedAt = &t
	}
	return &dup
}

// JobUpdate is a partial merge applied to an existing job record. Nil fields
// are left untouched.
type JobUpdate struct {
	Status      *PipelineStatus
	Stages      StageMap
	Progress    *int
	Result      *PipelineResult
	Error       *string
	CompletedAt *time.Time
	FailedAt    *time.Time
}

// Apply merges the update into the job in place and bumps UpdatedAt.
func (j *PipelineJob) Apply(u JobUpdate) {
	if u.Status != nil {
		j.Status = *u.Status
	}
	if u.Stages != nil {
		if j.Stages == nil {
			j.Stages = NewStageMap()
		}
		for stage, st := range u.Stages {
			j.Stages[stage] = st
		}
	}
	if u.Progress != nil {
		j.Progress = *u.Progress
	}
	if u.Result != nil {
		j.Result = u.Result
	}
	if u.Error != nil {
		j.Error = *u.Error
	}
	if u.CompletedAt != nil {
		j.CompletedAt = u.CompletedAt
	}
	if u.FailedAt != nil {
		j.FailedAt = u.FailedAt
	}
	j.UpdatedAt = time.Now().UTC()
}

// PipelineView is the externally-exposed status shape. It is a pure
// projection of the stored record.
type PipelineView struct {
	PipelineID  string            `json:"pipelineId"`
	Status      PipelineStatus    `json:"status"`
	Stages      map[string]string `json:"stages"`
	Progress    int               `json:"progress"`
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	Result      *PipelineResult   `json:"result,omitempty"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
	FailedAt    *time.Time        `json:"failedAt,omitempty"`
}

// View projects the job into its external status shape. No side effects.
func (j *PipelineJob) View() PipelineView {
	stages := make(map[string]string, len(j.Stages))
	for stage, st := range j.Stages {
		stages[string(stage)] = string(st)
	}
	return PipelineView{
		PipelineID:  j.PipelineID,
		Status:      j.Status,
		Stages:      stages,
		Progress:    j.Progress,
		Name:        j.Config.Name,
		Type:        j.Config.Type,
		Result:      j.Result,
		Error:       j.Error,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		CompletedAt: j.CompletedAt,
		FailedAt:    j.FailedAt,
	}
}
