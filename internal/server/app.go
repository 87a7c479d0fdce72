// Package server wires the sharing engine together: configuration, database,
// object storage, services, and the HTTP endpoint, with graceful shutdown on
// OS signals.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Akshaj-Bisht/droply/internal/logging"
	"github.com/Akshaj-Bisht/droply/internal/server/blobstore"
	"github.com/Akshaj-Bisht/droply/internal/server/config"
	"github.com/Akshaj-Bisht/droply/internal/server/repositories/repomanager"
	"github.com/Akshaj-Bisht/droply/internal/server/rest"
	"github.com/Akshaj-Bisht/droply/internal/server/services"
	"github.com/Akshaj-Bisht/droply/internal/server/uploader"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	cleanup *services.CleanupService
	handler http.Handler
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	store, err := blobstore.NewS3Store(ctx, blobstore.S3Options{
		User:         cfg.S3RootUser,
		Password:     cfg.S3RootPassword,
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3BaseEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	up := uploader.NewOrchestrator(store, logger, uploader.Options{})
	sessionService := services.NewSessionService(db, rm, cfg, logger)
	downloadService := services.NewDownloadService(db, rm, store, cfg, logger)
	archiveService := services.NewArchiveService(store, logger)
	cleanupService := services.NewCleanupService(db, rm, store, logger)

	handler := rest.NewRouter(cfg, logger, up, sessionService, downloadService, archiveService, cleanupService)

	return &App{
		config:  cfg,
		logger:  logger,
		db:      db,
		cleanup: cleanupService,
		handler: handler,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	server := &http.Server{
		Addr:    app.config.EndpointAddrHTTP,
		Handler: app.handler,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http shutdown error", "error", err.Error())
		}
	}()

	app.logger.Info(ctx, "http server listening", "addr", app.config.EndpointAddrHTTP)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// startSweepTicker runs the expiry sweep on a fixed period. Disabled when
// SweepInterval is zero; an external cron hitting the cleanup endpoint is
// then the only reaper.
func (app *App) startSweepTicker(ctx context.Context) {
	if app.config.SweepInterval <= 0 {
		return
	}

	ticker := time.NewTicker(app.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := app.cleanup.Sweep(ctx); err != nil {
				app.logger.Error(ctx, "scheduled sweep failed", "error", err.Error())
			}
		}
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startSweepTicker(ctx)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
}
