package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/DeinAlptraum/usdb-syncer/internal/catalog"
	"github.com/DeinAlptraum/usdb-syncer/internal/config"
	"github.com/DeinAlptraum/usdb-syncer/internal/constants"
	"github.com/DeinAlptraum/usdb-syncer/internal/fetcher"
	"github.com/DeinAlptraum/usdb-syncer/internal/handlers"
	"github.com/DeinAlptraum/usdb-syncer/internal/httpclient"
	"github.com/DeinAlptraum/usdb-syncer/internal/logger"
	"github.com/DeinAlptraum/usdb-syncer/internal/storage"
	"github.com/DeinAlptraum/usdb-syncer/internal/store"
	"github.com/DeinAlptraum/usdb-syncer/internal/syncer"
	"github.com/DeinAlptraum/usdb-syncer/internal/worker"
)

func main() {
	cfg := config.Load()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Initialize Logger
	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	// Initialize DB
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), constants.DirPermissions); err != nil {
		appLogger.Error("Failed to create data directory", "error", err)
		os.Exit(1)
	}
	db, err := store.Connect(cfg.DBPath)
	if err != nil {
		appLogger.Error("Failed to init DB", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize Syncer
	client := httpclient.NewClient(nil, constants.DefaultRequestSpacing)
	cat := catalog.NewHTTPClient(cfg.CatalogURL, client)
	s := syncer.New(db, cat, fetcher.NewFetcher(client), storage.NewDirectoryCache(), syncer.Options{
		SongDir:          cfg.SongDir,
		Encoding:         cfg.Encoding,
		LineEndings:      cfg.LineEndings,
		Audio:            cfg.Audio,
		Video:            cfg.Video,
		Cover:            cfg.Cover,
		Background:       cfg.Background,
		BackgroundPolicy: cfg.BackgroundPolicy,
	}, appLogger)

	// Initialize Worker Pool
	pool := worker.NewPool(s, cfg.MaxConcurrent, appLogger)
	pool.Start()
	defer pool.Stop()

	// Initialize Router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h := handlers.NewHandler(db, s, pool, appLogger)
	h.RegisterRoutes(r)

	// Start Server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		appLogger.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server shutdown failed", "error", err)
	}
}
