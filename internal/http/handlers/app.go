package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/middleware"
	"server/internal/pipeline"
	"server/internal/pipeline/bus"
	"server/internal/storage"
)

// App bundles the dependencies shared by all HTTP handlers.
type App struct {
	Config       *infra.Config
	Logger       zerolog.Logger
	Jobs         domain.JobRepository
	Users        domain.UserRepository
	Projects     domain.ProjectRepository
	Assets       domain.AssetRepository
	Activity     domain.ActivityRepository
	Orchestrator *pipeline.Orchestrator
	Bus          *bus.StatusBus
	Store        *storage.FileStore
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]string{"error": errCode, "message": message})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}
