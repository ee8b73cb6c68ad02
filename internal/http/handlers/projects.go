package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"server/internal/domain"
)

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateProject registers a new project for the authenticated user.
func (a *App) CreateProject(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user context")
		return
	}
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		a.error(w, http.StatusBadRequest, "BAD_REQUEST", "name is required")
		return
	}
	project := &domain.Project{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
	}
	if err := a.Projects.Create(r.Context(), project); err != nil {
		a.Logger.Error().Err(err).Msg("projects: create failed")
		a.error(w, http.StatusInternalServerError, "INTERNAL", "failed to create project")
		return
	}
	a.json(w, http.StatusCreated, projectJSON(project))
}

// ListProjects returns the authenticated user's projects.
func (a *App) ListProjects(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user context")
		return
	}
	projects, err := a.Projects.ListByUser(r.Context(), userID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("projects: list failed")
		a.error(w, http.StatusInternalServerError, "INTERNAL", "failed to load projects")
		return
	}
	items := make([]map[string]any, 0, len(projects))
	for i := range projects {
		items = append(items, projectJSON(&projects[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// GetProject returns one project owned by the authenticated user.
func (a *App) GetProject(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user context")
		return
	}
	project, err := a.Projects.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "NOT_FOUND", "project not found")
			return
		}
		a.Logger.Error().Err(err).Msg("projects: get failed")
		a.error(w, http.StatusInternalServerError, "INTERNAL", "failed to load project")
		return
	}
	if project.UserID != userID {
		a.error(w, http.StatusNotFound, "NOT_FOUND", "project not found")
		return
	}
	a.json(w, http.StatusOK, projectJSON(project))
}

func projectJSON(p *domain.Project) map[string]any {
	return map[string]any{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"created_at":  p.CreatedAt,
		"updated_at":  p.UpdatedAt,
	}
}
