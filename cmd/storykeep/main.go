package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/storykeep/storykeep/internal/app"
	"github.com/storykeep/storykeep/internal/audit"
	"github.com/storykeep/storykeep/internal/auth"
	"github.com/storykeep/storykeep/internal/communities"
	"github.com/storykeep/storykeep/internal/content"
	"github.com/storykeep/storykeep/internal/media"
	"github.com/storykeep/storykeep/internal/observability"
	"github.com/storykeep/storykeep/internal/places"
	"github.com/storykeep/storykeep/internal/platform/cache"
	"github.com/storykeep/storykeep/internal/platform/db"
	"github.com/storykeep/storykeep/internal/shared"
	"github.com/storykeep/storykeep/internal/speakers"
	"github.com/storykeep/storykeep/internal/stories"
	"github.com/storykeep/storykeep/internal/themes"
	"github.com/storykeep/storykeep/internal/users"
	"github.com/storykeep/storykeep/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	// Sessions live in Redis; without it no one can sign in.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	metrics := observability.NewMetrics()

	var jobsClient *jobs.Client
	if cfg.AuditQueueEnabled {
		jobsClient = jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer func() {
			if err := jobsClient.Close(); err != nil {
				logger.Warn("jobs client close", slog.Any("error", err))
			}
		}()
	}

	auditRecorder := audit.NewRecorder(dbpool)
	var auditor content.Auditor
	if jobsClient != nil {
		auditor = audit.NewDispatcher(jobsClient, auditRecorder, logger)
	} else {
		auditor = auditRecorder
	}
	guard := content.NewGuard(auditor, metrics, logger)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService)

	authService := auth.NewService(usersRepo, auth.NewRepository(dbpool))
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	communitiesService := communities.NewService(communities.NewRepository(dbpool))
	communitiesHandler := communities.NewHandler(logger, communitiesService)

	storiesService := stories.NewService(stories.NewRepository(dbpool), guard, idempotencyStore)
	storiesHandler := stories.NewHandler(logger, storiesService)

	placesService := places.NewService(places.NewRepository(dbpool), guard)
	placesHandler := places.NewHandler(logger, placesService)

	speakersService := speakers.NewService(speakers.NewRepository(dbpool), guard)
	speakersHandler := speakers.NewHandler(logger, speakersService)

	themesService := themes.NewService(themes.NewRepository(dbpool), guard)
	themesHandler := themes.NewHandler(logger, themesService)

	var mediaEnqueuer media.Enqueuer
	if jobsClient != nil {
		mediaEnqueuer = jobsClient
	}
	mediaService := media.NewService(media.NewRepository(dbpool), storiesService, guard, mediaEnqueuer, logger)
	mediaHandler := media.NewHandler(logger, mediaService)

	auditService := audit.NewService(audit.NewRepository(dbpool))
	auditHandler := audit.NewHandler(logger, auditService)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		Metrics:            metrics,
		AuthService:        authService,
		AuthHandler:        authHandler,
		CommunitiesHandler: communitiesHandler,
		UsersHandler:       usersHandler,
		StoriesHandler:     storiesHandler,
		PlacesHandler:      placesHandler,
		SpeakersHandler:    speakersHandler,
		ThemesHandler:      themesHandler,
		MediaHandler:       mediaHandler,
		AuditHandler:       auditHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}
