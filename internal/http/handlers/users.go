package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"server/internal/domain"
)

// Me returns the authenticated user's profile.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user context")
		return
	}
	user, err := a.Users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "NOT_FOUND", "user not found")
			return
		}
		a.Logger.Error().Err(err).Msg("users: lookup failed")
		a.error(w, http.StatusInternalServerError, "INTERNAL", "failed to load user")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"id":     user.ID,
		"email":  user.Email,
		"name":   user.Name,
		"locale": user.Locale,
		"role":   user.Role,
		"plan":   user.Plan,
	})
}

// ActivityLog returns the authenticated user's recent activity entries.
func (a *App) ActivityLog(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user context")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	entries, err := a.Activity.ListRecent(r.Context(), userID, limit)
	if err != nil {
		a.Logger.Error().Err(err).Msg("activity: list failed")
		a.error(w, http.StatusInternalServerError, "INTERNAL", "failed to load activity")
		return
	}
	items := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		items = append(items, map[string]any{
			"id":          e.ID,
			"action":      e.Action,
			"pipeline_id": e.PipelineID,
			"success":     e.Success,
			"detail":      e.Detail,
			"country":     e.Country,
			"created_at":  e.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
