package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"cityhr/internal/domain/audit"
	"cityhr/internal/domain/auth"
	"cityhr/internal/domain/core"
	"cityhr/internal/domain/leave"
	"cityhr/internal/domain/mail"
	"cityhr/internal/domain/reports"
	"cityhr/internal/domain/system"
	"cityhr/internal/platform/config"
	"cityhr/internal/platform/crypto"
	"cityhr/internal/platform/db"
	"cityhr/internal/platform/jobs"
	"cityhr/internal/platform/metrics"
	"cityhr/internal/platform/ocr"
	"cityhr/internal/platform/storage"
	audithandler "cityhr/internal/transport/http/handlers/audit"
	authhandler "cityhr/internal/transport/http/handlers/auth"
	corehandler "cityhr/internal/transport/http/handlers/core"
	leavehandler "cityhr/internal/transport/http/handlers/leave"
	mailhandler "cityhr/internal/transport/http/handlers/mail"
	ocrhandler "cityhr/internal/transport/http/handlers/ocr"
	reportshandler "cityhr/internal/transport/http/handlers/reports"
	systemhandler "cityhr/internal/transport/http/handlers/system"
	"cityhr/internal/transport/http/middleware"
)

// Services groups the domain services shared by the HTTP server and the
// command line tool.
type Services struct {
	Audit     *audit.Service
	Auth      *auth.Service
	Employees *core.Service
	Leaves    *leave.Service
	Mail      *mail.Service
	Reports   *reports.Service
	System    *system.Service
	OCR       *ocr.Engine
}

type App struct {
	Config   config.Config
	DB       *sqlx.DB
	Files    storage.Store
	Metrics  *metrics.Collector
	Jobs     *jobs.Service
	Services Services
	Router   http.Handler
}

// New opens the store, applies migrations and seed data when enabled and
// wires every service and route.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	conn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app, err := build(ctx, cfg, conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return app, nil
}

func build(ctx context.Context, cfg config.Config, conn *sqlx.DB) (*App, error) {
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, conn); err != nil {
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, conn, cfg); err != nil {
			return nil, fmt.Errorf("seed failed: %w", err)
		}
	}
	files, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	sealer, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		return nil, err
	}
	if !sealer.Configured() {
		slog.Warn("DATA_ENCRYPTION_KEY not set, sensitive fields are stored in clear")
	}

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}

	users := auth.NewStore(conn)
	leaveStore := leave.NewStore(conn)
	employees := core.NewService(core.NewStore(conn), sealer, files)
	mailSvc := mail.NewService(mail.NewStore(conn), files)
	reportsSvc := reports.NewService(reports.NewStore(conn), employees, leaveStore, mailSvc, cfg.ReportsDir, cfg.AnnualLeaveAllotment)
	reportsSvc.Metrics = collector

	app := &App{
		Config:  cfg,
		DB:      conn,
		Files:   files,
		Metrics: collector,
		Jobs:    jobs.New(conn),
		Services: Services{
			Audit:     audit.New(conn),
			Auth:      auth.NewService(users, cfg.JWTSecret, cfg.TokenTTL),
			Employees: employees,
			Leaves:    leave.NewService(leaveStore),
			Mail:      mailSvc,
			Reports:   reportsSvc,
			System: system.NewService(conn, users, employees, files, collector, system.Options{
				DBPath:         cfg.SQLitePath(),
				BackupDir:      cfg.BackupDir,
				StorageBackend: cfg.StorageBackend,
				Offsite:        cfg.StorageBackend == config.StorageS3,
			}),
			OCR: ocr.New(cfg),
		},
	}
	app.Router = app.routes()
	return app, nil
}

func (a *App) routes() http.Handler {
	cfg := a.Config
	perms := auth.StaticPermissions{}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.Logger(a.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.DB.PingContext(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	svc := a.Services
	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(svc.Auth, perms)
		authHandler.Audit = svc.Audit
		r.With(middleware.LoginRateLimit(cfg.RateLimitPerMinute)).Post("/auth/login", authHandler.HandleLogin)
		authHandler.RegisterRoutes(r)

		coreHandler := corehandler.NewHandler(svc.Employees, svc.Leaves, perms, cfg.MaxUploadBytes)
		coreHandler.Audit = svc.Audit
		coreHandler.RegisterRoutes(r)

		leaveHandler := leavehandler.NewHandler(svc.Leaves, perms)
		leaveHandler.Audit = svc.Audit
		leaveHandler.RegisterRoutes(r)

		mailHandler := mailhandler.NewHandler(svc.Mail, perms, cfg.MaxUploadBytes)
		mailHandler.Audit = svc.Audit
		mailHandler.RegisterRoutes(r)

		reportshandler.NewHandler(svc.Reports, a.Jobs, perms).RegisterRoutes(r)
		ocrhandler.NewHandler(svc.OCR, a.Metrics, perms, cfg.MaxUploadBytes).RegisterRoutes(r)

		systemHandler := systemhandler.NewHandler(svc.System, a.Jobs, a.Metrics, perms, cfg.MaxUploadBytes)
		systemHandler.Audit = svc.Audit
		systemHandler.RegisterRoutes(r)

		audithandler.NewHandler(svc.Audit, perms).RegisterRoutes(r)
	})
	return router
}

// StartBackground starts the job worker and the periodic backup schedule.
func (a *App) StartBackground(ctx context.Context) {
	a.Jobs.Start(ctx)
	if a.Config.BackupInterval > 0 && a.DB.DriverName() == db.DriverSQLite {
		a.Jobs.Schedule(ctx, jobs.JobBackup, a.Config.BackupInterval, func(ctx context.Context) (any, error) {
			return a.Services.System.Backup(ctx)
		})
		slog.Info("periodic backup scheduled", "interval", a.Config.BackupInterval.String())
	}
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests and
// background jobs.
func (a *App) Run(ctx context.Context) error {
	bgCtx, stopBackground := context.WithCancel(context.Background())
	a.StartBackground(bgCtx)

	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("HR server listening", "addr", a.Config.Addr, "env", a.Config.Environment)
		errCh <- srv.ListenAndServe()
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("graceful shutdown failed", "err", err)
	}
	stopBackground()
	a.Jobs.Wait()
	slog.Info("HR server stopped")
	return runErr
}

func (a *App) Close() error {
	return a.DB.Close()
}
