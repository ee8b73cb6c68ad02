package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"server/internal/domain"
	"server/internal/metrics"
	"server/internal/middleware"
)

type startPipelineRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Subtype     string `json:"subtype"`
	Tier        string `json:"tier"`
	Quality     string `json:"quality"`
	Style       string `json:"style"`
	Rig         bool   `json:"rig"`
	Retexture   bool   `json:"retexture"`
	Sprites     bool   `json:"sprites"`
}

type startPipelineResponse struct {
	PipelineID string            `json:"pipelineId"`
	Status     string            `json:"status"`
	Message    string            `json:"message"`
	Stages     map[string]string `json:"stages"`
}

// StartPipeline creates the job record and kicks off the orchestrator. The
// response returns immediately; completion is observed via the status
// endpoints.
func (a *App) StartPipeline(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user context")
		return
	}
	var req startPipelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload")
		return
	}

	cfg := domain.PipelineConfig{
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		Subtype:     req.Subtype,
		Tier:        req.Tier,
		Quality:     req.Quality,
		Style:       req.Style,
		Rig:         req.Rig,
		Retexture:   req.Retexture,
		Sprites:     req.Sprites,
		UserID:      userID,
		Locale:      middleware.LocaleFromContext(r.Context()),
		Country:     middleware.CountryFromContext(r.Context()),
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		a.error(w, http.StatusBadRequest, "BAD_REQUEST", "name and description are required")
		return
	}

	job := domain.NewPipelineJob(uuid.NewString(), cfg)
	if err := a.Jobs.Create(r.Context(), job); err != nil {
		if errors.Is(err, domain.ErrDuplicateID) {
			a.error(w, http.StatusConflict, "DUPLICATE_ID", "pipeline id collision")
			return
		}
		a.Logger.Error().Err(err).Msg("pipeline: create job failed")
		a.error(w, http.StatusInternalServerError, "INTERNAL", "failed to create pipeline")
		return
	}

	a.Orchestrator.Start(job)

	stages := make(map[string]string, len(job.Stages))
	for stage, st := range job.Stages {
		stages[string(stage)] = string(st)
	}
	a.json(w, http.StatusOK, startPipelineResponse{
		PipelineID: job.PipelineID,
		Status:     string(domain.PipelineStatusProcessing),
		Message:    "generation pipeline started",
		Stages:     stages,
	})
}

// PipelineStatus returns the current status view. The pipeline id itself is
// the capability; no auth required.
func (a *App) PipelineStatus(w http.ResponseWriter, r *http.Request) {
	pipelineID := chi.URLParam(r, "pipelineId")
	job, err := a.Jobs.GetByPipelineID(r.Context(), pipelineID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "NOT_FOUND", "unknown pipeline id")
			return
		}
		a.Logger.Error().Err(err).Msg("pipeline: status lookup failed")
		a.error(w, http.StatusInternalServerError, "INTERNAL", "failed to load pipeline")
		return
	}
	a.json(w, http.StatusOK, job.View())
}

// PipelineStream pushes status snapshots over Server-Sent Events until the
// job reaches a terminal state. On connect the current status is sent
// immediately; afterwards updates arrive via the status bus, with a periodic
// re-send as a safety net. The stream is torn down through the request
// context when the client disconnects.
func (a *App) PipelineStream(w http.ResponseWriter, r *http.Request) {
	pipelineID := chi.URLParam(r, "pipelineId")

	flusher, ok := w.(http.Flusher)
	if !ok {
		a.error(w, http.StatusInternalServerError, "INTERNAL", "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// The server-wide write timeout would sever long-lived streams.
	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	job, err := a.Jobs.GetByPipelineID(r.Context(), pipelineID)
	if err != nil {
		writeSSE(w, flusher, "error", map[string]string{
			"error":   "NOT_FOUND",
			"message": "unknown pipeline id",
		})
		return
	}

	metrics.IncSSEStreams()
	defer metrics.DecSSEStreams()

	sub := a.Bus.Subscribe(pipelineID)
	defer sub.Close()

	view := job.View()
	writeSSE(w, flusher, "pipeline-update", view)
	if view.Status.Terminal() {
		return
	}

	interval := a.Config.StreamPushInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case view, open := <-sub.C():
			if !open {
				return
			}
			writeSSE(w, flusher, "pipeline-update", view)
			if view.Status.Terminal() {
				return
			}
		case <-ticker.C:
			job, err := a.Jobs.GetByPipelineID(ctx, pipelineID)
			if err != nil {
				return
			}
			view := job.View()
			writeSSE(w, flusher, "pipeline-update", view)
			if view.Status.Terminal() {
				return
			}
		}
	}
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}
