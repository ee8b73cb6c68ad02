package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
	"server/pkg/zip"
)

// PipelineAssets lists the generated assets for a pipeline.
func (a *App) PipelineAssets(w http.ResponseWriter, r *http.Request) {
	pipelineID := chi.URLParam(r, "pipelineId")
	if _, err := a.Jobs.GetByPipelineID(r.Context(), pipelineID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "NOT_FOUND", "unknown pipeline id")
			return
		}
		a.Logger.Error().Err(err).Msg("assets: pipeline lookup failed")
		a.error(w, http.StatusInternalServerError, "INTERNAL", "failed to load pipeline")
		return
	}
	assets, err := a.Assets.ListByPipelineID(r.Context(), pipelineID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("assets: list failed")
		a.error(w, http.StatusInternalServerError, "INTERNAL", "failed to load assets")
		return
	}
	items := make([]map[string]any, 0, len(assets))
	for _, asset := range assets {
		items = append(items, map[string]any{
			"id":          asset.ID,
			"kind":        asset.Kind,
			"url":         asset.URL,
			"storage_key": asset.StorageKey,
			"mime":        asset.MIME,
			"bytes":       asset.Bytes,
			"created_at":  asset.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// PipelineAssetsZip streams all pipeline assets as one zip archive.
func (a *App) PipelineAssetsZip(w http.ResponseWriter, r *http.Request) {
	pipelineID := chi.URLParam(r, "pipelineId")
	if _, err := a.Jobs.GetByPipelineID(r.Context(), pipelineID); err != nil {
		a.error(w, http.StatusNotFound, "NOT_FOUND", "unknown pipeline id")
		return
	}
	assets, err := a.Assets.ListByPipelineID(r.Context(), pipelineID)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "INTERNAL", "failed to load assets")
		return
	}
	var entries []zip.Asset
	for _, asset := range assets {
		entries = append(entries, zip.Asset{
			Filename: fmt.Sprintf("%s-%s", pipelineID, asset.ID),
			MIME:     asset.MIME,
			Data:     a.loadAssetData(r.Context(), asset),
		})
	}
	archive := zip.ArchiveAssets(entries)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=pipeline-%s.zip", pipelineID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

// loadAssetData resolves the raw bytes for an asset: local storage when a
// key is present, otherwise the remote reference itself.
func (a *App) loadAssetData(ctx context.Context, asset domain.Asset) []byte {
	if key := strings.TrimSpace(asset.StorageKey); key != "" && a.Store != nil {
		if data, err := a.Store.Read(ctx, key); err == nil {
			return data
		}
	}
	if asset.URL != "" {
		return []byte(asset.URL)
	}
	return nil
}
