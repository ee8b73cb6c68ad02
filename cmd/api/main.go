package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"server/internal/adapter/repo"
	"server/internal/domain"
	"server/internal/http/handlers"
	"server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/infra/geoip"
	"server/internal/middleware"
	"server/internal/pipeline"
	"server/internal/pipeline/bus"
	"server/internal/providers/conceptart"
	"server/internal/providers/meshy"
	"server/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	var (
		jobs     domain.JobRepository
		users    domain.UserRepository
		projects domain.ProjectRepository
		assets   domain.AssetRepository
		activity domain.ActivityRepository
	)
	if cfg.DatabaseURL != "" {
		dbpool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer dbpool.Close()
		jobs = repo.NewJobRepository(dbpool)
		users = repo.NewUserRepository(dbpool)
		projects = repo.NewProjectRepository(dbpool)
		assets = repo.NewAssetRepository(dbpool)
		activity = repo.NewActivityRepository(dbpool)
	} else {
		logger.Warn().Msg("no DATABASE_URL configured, using in-memory stores")
		jobs = repo.NewMemoryJobRepository()
		users = devUserRepo{}
		projects = repo.NewMemoryProjectRepository()
		assets = repo.NewMemoryAssetRepository()
		activity = repo.NewMemoryActivityRepository()
	}

	countryResolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip resolver unavailable")
	}
	var countryLookup middleware.CountryLookup
	if countryResolver != nil {
		countryLookup = countryResolver.CountryCode
	}

	fileStore, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage")
	}

	httpClient := &http.Client{Timeout: 120 * time.Second}
	statusBus := bus.New()
	orchestrator := &pipeline.Orchestrator{
		Jobs:     jobs,
		Assets:   assets,
		Activity: activity,
		Runner: &pipeline.VendorRunner{
			ConceptArtClient: conceptart.NewClient(conceptart.Options{
				APIKey:     cfg.OpenAIAPIKey,
				BaseURL:    cfg.OpenAIBaseURL,
				Model:      cfg.OpenAIModel,
				HTTPClient: httpClient,
				Logger:     &logger,
			}),
			MeshyClient: meshy.NewClient(meshy.Options{
				APIKey:       cfg.MeshyAPIKey,
				BaseURL:      cfg.MeshyBaseURL,
				HTTPClient:   httpClient,
				Logger:       &logger,
				PollInterval: cfg.MeshyPollInterval,
			}),
		},
		Bus:           statusBus,
		Store:         fileStore,
		Logger:        logger,
		StageTimeout:  cfg.StageTimeout,
		PublicBaseURL: cfg.StorageBaseURL,
	}

	app := &handlers.App{
		Config:       cfg,
		Logger:       logger,
		Jobs:         jobs,
		Users:        users,
		Projects:     projects,
		Assets:       assets,
		Activity:     activity,
		Orchestrator: orchestrator,
		Bus:          statusBus,
		Store:        fileStore,
	}

	router := httpapi.NewRouter(app, countryLookup)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Msg("api listening")
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	// Let in-flight pipelines finish their current store writes.
	orchestrator.Wait()
	logger.Info().Msg("server stopped")
}

// devUserRepo serves a fixed profile when no database is configured.
type devUserRepo struct{}

func (devUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return &domain.User{
		ID:     id,
		Email:  "dev@localhost",
		Name:   "Developer",
		Locale: "en",
		Role:   domain.UserRoleUser,
		Plan:   domain.UserPlanFree,
	}, nil
}
