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

	"github.com/aulahq/aula/internal/app"
	"github.com/aulahq/aula/internal/audit"
	"github.com/aulahq/aula/internal/auth"
	"github.com/aulahq/aula/internal/authz"
	"github.com/aulahq/aula/internal/journal"
	"github.com/aulahq/aula/internal/observability"
	"github.com/aulahq/aula/internal/platform/cache"
	"github.com/aulahq/aula/internal/platform/db"
	"github.com/aulahq/aula/internal/roles"
	"github.com/aulahq/aula/internal/shared"
	"github.com/aulahq/aula/internal/users"
	"github.com/aulahq/aula/jobs"
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

	sessionManager := shared.NewSessionManager(redisClient, "aula_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(dbpool)
	metrics := observability.NewMetrics()

	registry, err := authz.NewRegistry(shared.CoreScopes(), shared.JournalScopes(), shared.ClassroomScopes())
	if err != nil {
		logger.Error("build permission registry", slog.Any("error", err))
		os.Exit(1)
	}

	catalog := authz.NewPGCatalog(dbpool)
	identity := authz.NewIdentityResolver(
		authz.SessionStrategy{Logger: logger},
		authz.BearerStrategy{Secret: []byte(cfg.TokenSecret), Issuer: cfg.TokenIssuer, Logger: logger},
	)
	gate := authz.Middleware{
		Catalog:  catalog,
		Identity: identity,
		Registry: registry,
		Logger:   logger,
		Metrics:  metrics,
	}
	assigner := authz.NewAssigner(catalog, cfg.AuthzUnprivilegedThreshold, logger, auditLogger)

	tokenIssuer := auth.NewTokenIssuer(cfg.TokenSecret, cfg.TokenIssuer, cfg.TokenTTL)
	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, tokenIssuer)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, gate)

	rolesRepo := roles.NewRepository(dbpool)
	rolesService := roles.NewService(rolesRepo)
	rolesHandler := roles.NewHandler(logger, rolesService, assigner, gate)

	loader := authz.Loader{Users: usersRepo, Catalog: catalog, Identity: identity, Logger: logger}
	journalRepo := journal.NewRepository(dbpool)
	journalService := journal.NewService(journalRepo)
	journalHandler := journal.NewHandler(logger, journalService, loader, gate)

	auditRepo := audit.NewRepository(dbpool)
	auditService := audit.NewService(auditRepo)
	auditHandler := audit.NewHandler(logger, auditService, gate)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		AuthHandler:    authHandler,
		UsersHandler:   usersHandler,
		RolesHandler:   rolesHandler,
		JournalHandler: journalHandler,
		AuditHandler:   auditHandler,
		JobHandler:     jobHandler,
		Pool:           dbpool,
		Metrics:        metrics,
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

	if err := group.Wait(); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
