package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/leca/image-gallery/internal/client"
	"github.com/leca/image-gallery/internal/config"
	"github.com/leca/image-gallery/internal/database"
	"github.com/leca/image-gallery/internal/logging"
	"github.com/leca/image-gallery/internal/router"
	"github.com/leca/image-gallery/internal/storage"
	"github.com/leca/image-gallery/internal/web"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(&cfg.Logging)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db database.Database
	if cfg.API.Embedded() {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
		sqlite, err := database.NewSQLiteDB(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer sqlite.Close()
		db = sqlite
	}

	var store storage.Storage
	if cfg.Hosting.Embedded() {
		store, err = openStorage(ctx, &cfg.Storage)
		if err != nil {
			return err
		}
	}

	httpClient := &http.Client{Timeout: cfg.Hosting.TimeoutDuration()}
	apiClient := client.NewAPI(cfg.API.Target(), cfg.API.AuthToken, httpClient)
	hosting := client.NewHosting(cfg.Hosting.UploadURL, httpClient)

	sessions := web.NewSessions(cfg.Web.CookieName, cfg.Web.SessionTTLDuration(), func(id string) *web.Session {
		return web.NewSession(id, web.Deps{
			Fetcher:       apiClient,
			Creator:       apiClient,
			Uploader:      hosting,
			Logger:        logger,
			UploadTimeout: cfg.Hosting.TimeoutDuration(),
		})
	})
	site, err := web.NewServer(web.Options{Sessions: sessions, Logger: logger})
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	srv := router.New(db, store, cfg, site)
	httpServer := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           srv.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting server",
			"addr", cfg.Server.ListenAddr,
			"api", cfg.API.Target(),
			"api_embedded", cfg.API.Embedded(),
			"hosting", cfg.Hosting.UploadURL,
			"hosting_embedded", cfg.Hosting.Embedded(),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		sessions.Run(gctx, time.Minute)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeoutDuration())
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStorage(ctx context.Context, cfg *config.StorageConfig) (storage.Storage, error) {
	switch cfg.Backend {
	case config.BackendS3:
		s, err := storage.NewS3(ctx, cfg.Bucket, cfg.Region)
		if err != nil {
			return nil, fmt.Errorf("open s3 storage: %w", err)
		}
		return s, nil
	default:
		return storage.NewFileSystem(cfg.BasePath), nil
	}
}
