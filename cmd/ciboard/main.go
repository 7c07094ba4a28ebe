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

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/ericfisherdev/ciboard/internal/adapter/driven/github"
	sqliteadapter "github.com/ericfisherdev/ciboard/internal/adapter/driven/sqlite"
	staticadapter "github.com/ericfisherdev/ciboard/internal/adapter/driven/static"
	httphandler "github.com/ericfisherdev/ciboard/internal/adapter/driving/http"
	"github.com/ericfisherdev/ciboard/internal/application"
	"github.com/ericfisherdev/ciboard/internal/config"
	"github.com/ericfisherdev/ciboard/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration and the repository manifest (fail fast: an
	// unreadable manifest is the one fatal condition).
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	manifest, err := config.LoadManifest(cfg.ManifestPath)
	if err != nil {
		return err
	}

	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"poll_interval", cfg.PollInterval,
		"repos", len(manifest.Repos),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open the snapshot cache database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on the writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire adapters. The GitHub client is nil without a token; the
	// fetcher then serves static artifacts and cached data only.
	snapshotCache := sqliteadapter.NewSnapshotRepo(db)
	staticSource := staticadapter.NewSource(cfg.StaticDir)

	var ghClient driven.ActionsClient
	if cfg.HasGitHubToken() {
		ghClient = githubadapter.NewClient(cfg.GitHubToken)
		slog.Info("github client created")
	} else {
		slog.Info("no github token configured, serving static and cached data only")
	}

	// 6. Create and start the poll service.
	pollSvc := application.NewPollService(
		ghClient,
		staticSource,
		snapshotCache,
		manifest.Repos,
		cfg.PollInterval,
		cfg.CacheTTL,
		cfg.MaxRunsPerRepo,
	)
	go pollSvc.Start(ctx)

	// 7. Create the HTTP handler and server.
	handler := httphandler.NewServeMux(httphandler.NewHandler(pollSvc, slog.Default()), slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("ciboard started",
		"listen_addr", cfg.ListenAddr,
		"poll_interval", cfg.PollInterval,
	)

	// 8. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
