package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"server/internal/http/handlers"
	"server/internal/middleware"
)

// NewRouter assembles the HTTP surface: pipeline endpoints, plumbing routes,
// health and metrics.
func NewRouter(app *handlers.App, countryLookup middleware.CountryLookup) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS([]string{"http://localhost:3000", "http://localhost:5173"}),
		middleware.Locale("en", countryLookup),
	)
	if app.Config.RateLimitPerMin > 0 {
		r.Use(httprate.LimitByIP(app.Config.RateLimitPerMin, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/generation", func(r chi.Router) {
			r.With(middleware.AuthJWT(app.Config.JWTSecret)).
				Post("/pipeline", app.StartPipeline)

			// The pipeline id is the capability; these stay unauthenticated.
			r.Get("/pipeline/{pipelineId}", app.PipelineStatus)
			r.Get("/pipeline/{pipelineId}/assets", app.PipelineAssets)
			r.Get("/pipeline/{pipelineId}/assets/zip", app.PipelineAssetsZip)
			r.Get("/{pipelineId}/status/stream", app.PipelineStream)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthJWT(app.Config.JWTSecret))
			r.Get("/me", app.Me)
			r.Get("/activity", app.ActivityLog)
			r.Route("/projects", func(r chi.Router) {
				r.Post("/", app.CreateProject)
				r.Get("/", app.ListProjects)
				r.Get("/{id}", app.GetProject)
			})
		})
	})

	if app.Config.StoragePath != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(app.Config.StoragePath)))
		r.Get("/static/*", fs.ServeHTTP)
	}

	return r
}
