package pipeline

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/metrics"
	"server/internal/pipeline/bus"
	"server/internal/storage"
)

// Progress checkpoints per stage. Progress only reaches 100 at completed.
var stageProgress = map[domain.Stage]struct{ entry, done int }{
	domain.StageConceptArt: {entry: 5, done: 35},
	domain.StageModel3D:    {entry: 40, done: 75},
	domain.StageProcessing: {entry: 80, done: 95},
}

// Orchestrator drives one pipeline job from pending to a terminal state by
// invoking the stage runner sequentially. Jobs are independent: each Start
// spawns its own goroutine and the job store is the only shared resource.
type Orchestrator struct {
	Jobs     domain.JobRepository
	Assets   domain.AssetRepository
	Activity domain.ActivityRepository
	Runner   StageRunner
	Bus      *bus.StatusBus
	Store    *storage.FileStore
	Logger   zerolog.Logger

	// PublicBaseURL prefixes the storage keys of locally persisted assets so
	// their URLs resolve through the /static file server.
	PublicBaseURL string

	// StageTimeout bounds each vendor stage; zero disables the watchdog and
	// a hung vendor call then hangs the job in processing.
	StageTimeout time.Duration

	wg sync.WaitGroup
}

// Start launches the pipeline asynchronously. It never blocks and never
// returns an error: every failure path ends as a failed job record.
func (o *Orchestrator) Start(job *domain.PipelineJob) {
	// The goroutine works on its own copy so the caller's job stays stable
	// after the HTTP response is written.
	dup := job.Clone()
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.run(context.Background(), dup)
	}()
}

// Wait blocks until every in-flight pipeline has reached a terminal state.
// Used by graceful shutdown and tests.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) run(ctx context.Context, job *domain.PipelineJob) {
	log := o.Logger.With().Str("pipeline_id", job.PipelineID).Logger()
	metrics.IncPipelineStarted()

	art, err := runStage(o, ctx, job, domain.StageConceptArt, func(ctx context.Context) (*ConceptArtOutput, error) {
		return o.Runner.ConceptArt(ctx, job)
	})
	if err != nil {
		o.fail(ctx, job, domain.StageConceptArt, err, log)
		return
	}
	o.saveConceptArtAsset(ctx, job, art, log)

	model, err := runStage(o, ctx, job, domain.StageModel3D, func(ctx context.Context) (*ModelOutput, error) {
		return o.Runner.Model3D(ctx, job, art)
	})
	if err != nil {
		o.fail(ctx, job, domain.StageModel3D, err, log)
		return
	}

	processed, err := runStage(o, ctx, job, domain.StageProcessing, func(ctx context.Context) (*ProcessOutput, error) {
		return o.Runner.PostProcess(ctx, job, model)
	})
	if err != nil {
		o.fail(ctx, job, domain.StageProcessing, err, log)
		return
	}

	o.complete(ctx, job, processed, log)
}

// runStage marks the stage processing, executes the vendor work under the
// optional watchdog timeout, and on success marks the stage completed. The
// returned error carries the vendor's message for the job record.
func runStage[T any](o *Orchestrator, ctx context.Context, job *domain.PipelineJob, stage domain.Stage, fn func(context.Context) (T, error)) (T, error) {
	checkpoints := stageProgress[stage]

	status := domain.PipelineStatusProcessing
	o.update(ctx, job, domain.JobUpdate{
		Status:   &status,
		Stages:   domain.StageMap{stage: domain.StageStatusProcessing},
		Progress: &checkpoints.entry,
	})

	stageCtx := ctx
	if o.StageTimeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, o.StageTimeout)
		defer cancel()
	}

	started := time.Now()
	out, err := fn(stageCtx)
	if err != nil {
		metrics.ObserveStageDuration(string(stage), "failed", time.Since(started))
		var zero T
		return zero, err
	}
	metrics.ObserveStageDuration(string(stage), "completed", time.Since(started))

	o.update(ctx, job, domain.JobUpdate{
		Stages:   domain.StageMap{stage: domain.StageStatusCompleted},
		Progress: &checkpoints.done,
	})
	return out, nil
}

func (o *Orchestrator) complete(ctx context.Context, job *domain.PipelineJob, processed *ProcessOutput, log zerolog.Logger) {
	now := time.Now().UTC()
	status := domain.PipelineStatusCompleted
	progress := 100
	result := &domain.PipelineResult{
		AssetID:  uuid.NewString(),
		AssetURL: processed.ModelURL,
	}
	o.update(ctx, job, domain.JobUpdate{
		Status:      &status,
		Progress:    &progress,
		Result:      result,
		CompletedAt: &now,
	})

	if o.Assets != nil {
		asset := &domain.Asset{
			ID:         result.AssetID,
			PipelineID: job.PipelineID,
			UserID:     job.Config.UserID,
			Kind:       domain.AssetKindModel3D,
			URL:        processed.ModelURL,
			MIME:       "model/gltf-binary",
		}
		if err := o.Assets.Save(ctx, asset); err != nil {
			log.Error().Err(err).Msg("pipeline: save model asset failed")
		}
	}
	o.logActivity(ctx, job, true, "")
	metrics.IncPipelineFinished("completed")
	log.Info().Msg("pipeline: completed")
}

// fail marks the failing stage and the job terminal. Earlier stages keep
// their recorded success; later stages never leave pending.
func (o *Orchestrator) fail(ctx context.Context, job *domain.PipelineJob, stage domain.Stage, cause error, log zerolog.Logger) {
	now := time.Now().UTC()
	status := domain.PipelineStatusFailed
	msg := cause.Error()
	o.update(ctx, job, domain.JobUpdate{
		Status:   &status,
		Stages:   domain.StageMap{stage: domain.StageStatusFailed},
		Error:    &msg,
		FailedAt: &now,
	})
	o.logActivity(ctx, job, false, msg)
	metrics.IncPipelineFinished("failed")
	log.Error().Err(cause).Str("stage", string(stage)).Msg("pipeline: failed")
}

// update persists the partial update and pushes the fresh snapshot to stream
// subscribers. Store errors are logged, not propagated: the job run keeps its
// in-memory view as source of truth for subsequent writes.
func (o *Orchestrator) update(ctx context.Context, job *domain.PipelineJob, u domain.JobUpdate) {
	updated, err := o.Jobs.Update(ctx, job.PipelineID, u)
	if err != nil {
		o.Logger.Error().Err(err).Str("pipeline_id", job.PipelineID).Msg("pipeline: job update failed")
		job.Apply(u)
	} else {
		*job = *updated
	}
	if o.Bus != nil {
		pubCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := o.Bus.Publish(pubCtx, job.PipelineID, job.View()); err != nil {
			o.Logger.Warn().Err(err).Str("pipeline_id", job.PipelineID).Msg("pipeline: status publish dropped")
		}
	}
}

func (o *Orchestrator) saveConceptArtAsset(ctx context.Context, job *domain.PipelineJob, art *ConceptArtOutput, log zerolog.Logger) {
	if o.Assets == nil || art == nil {
		return
	}
	asset := &domain.Asset{
		ID:         uuid.NewString(),
		PipelineID: job.PipelineID,
		UserID:     job.Config.UserID,
		Kind:       domain.AssetKindConceptArt,
		URL:        art.ImageURL,
		MIME:       art.MIME,
		Bytes:      int64(len(art.Data)),
	}
	if o.Store != nil && len(art.Data) > 0 {
		key, err := o.Store.Write(ctx, "concept-art/"+job.PipelineID+".png", art.Data)
		if err != nil {
			log.Warn().Err(err).Msg("pipeline: persist concept art failed")
		} else {
			asset.StorageKey = key
			if o.PublicBaseURL != "" {
				asset.URL = strings.TrimRight(o.PublicBaseURL, "/") + "/" + key
			}
		}
	}
	if err := o.Assets.Save(ctx, asset); err != nil {
		log.Error().Err(err).Msg("pipeline: save concept art asset failed")
	}
}

// logActivity appends the completion record. Best effort: failures only log.
func (o *Orchestrator) logActivity(ctx context.Context, job *domain.PipelineJob, success bool, detail string) {
	if o.Activity == nil {
		return
	}
	entry := &domain.ActivityEntry{
		ID:         uuid.NewString(),
		UserID:     job.Config.UserID,
		Action:     domain.ActivityGenerationCompleted,
		PipelineID: job.PipelineID,
		Success:    success,
		Detail:     detail,
		Country:    job.Config.Country,
	}
	if err := o.Activity.Append(ctx, entry); err != nil {
		o.Logger.Warn().Err(err).Str("pipeline_id", job.PipelineID).Msg("pipeline: activity append failed")
	}
}
