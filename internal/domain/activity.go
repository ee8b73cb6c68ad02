package domain

import "time"

// ActivityAction enumerates recorded platform events.
type ActivityAction string

const (
	ActivityGenerationCompleted ActivityAction = "generation_completed"
	ActivityProjectCreated      ActivityAction = "project_created"
)

// ActivityEntry is an append-only audit record. Writes are best effort and
// never block the pipeline itself.
type ActivityEntry struct {
	ID         string
	UserID     string
	Action     ActivityAction
	PipelineID string
	Success    bool
	Detail     string
	Country    string
	CreatedAt  time.Time
}
