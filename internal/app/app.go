package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amaumene/foldpredict/internal/clients"
	"github.com/amaumene/foldpredict/internal/config"
	"github.com/amaumene/foldpredict/internal/handler"
	"github.com/amaumene/foldpredict/internal/service"
	"github.com/amaumene/foldpredict/internal/storage"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/bolthold"
)

const (
	shutdownTimeout = 30 * time.Second
)

type App struct {
	cfg       *config.Config
	server    *fiber.App
	store     *bolthold.Store
	scheduler *Scheduler
}

func New(cfg *config.Config) (*App, error) {
	if err := ConfigureLogging(cfg); err != nil {
		return nil, fmt.Errorf("configuring logging: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, cfg.DirPermissions); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	store, err := storage.OpenStore(cfg.DBPath(), cfg.DBFilePermissions)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	app := &App{
		cfg:   cfg,
		store: store,
	}

	if err := app.wireServices(); err != nil {
		store.Close()
		return nil, fmt.Errorf("wiring services: %w", err)
	}

	return app, nil
}

func (a *App) wireServices() error {
	files, err := storage.NewFileStore(a.cfg.StaticDir, a.cfg.DirPermissions)
	if err != nil {
		return err
	}
	repo := storage.NewPredictionRepository(a.store)
	folder := clients.NewESMFoldClient(a.cfg.ESMFoldURL, a.cfg.HTTPTimeout, a.cfg.MaxStructureBytes)

	predictions := service.NewPredictionService(a.cfg, folder, files, repo)
	cleanup := service.NewCleanupService(a.cfg, repo, files)

	a.server = handler.NewApp(handler.NewHTTPHandler(a.cfg, predictions, files))
	a.scheduler = NewScheduler(a.cfg.CleanupInterval, cleanup)
	return nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.cfg.Retention > 0 {
		go a.scheduler.RunPeriodically(ctx)
	}

	go a.startServer()

	return a.waitForShutdown(ctx, cancel)
}

func (a *App) startServer() {
	log.WithFields(log.Fields{
		"component": "server",
		"address":   a.cfg.ServerAddr,
	}).Info("http server listening")

	if err := a.server.Listen(a.cfg.ServerAddr); err != nil {
		log.WithFields(log.Fields{
			"component": "server",
			"error":     err,
		}).Fatal("http server failed to start")
	}
}

func (a *App) waitForShutdown(ctx context.Context, cancel context.CancelFunc) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		log.WithField("reason", "context_cancelled").Info("initiating graceful shutdown")
	case sig := <-sigChan:
		log.WithField("signal", sig).Info("received shutdown signal")
	}

	cancel()
	return a.shutdown()
}

func (a *App) shutdown() error {
	log.Info("graceful shutdown started")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.WithFields(log.Fields{
			"component": "server",
			"error":     err,
		}).Error("http server shutdown failed")
	}

	if err := a.store.Close(); err != nil {
		log.WithFields(log.Fields{
			"component": "database",
			"error":     err,
		}).Error("database close failed")
		return err
	}

	log.Info("graceful shutdown completed")
	return nil
}
