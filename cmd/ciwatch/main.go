package main

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/ericfisherdev/ciboard/internal/adapter/driven/github"
	staticadapter "github.com/ericfisherdev/ciboard/internal/adapter/driven/static"
	"github.com/ericfisherdev/ciboard/internal/adapter/driving/tui"
	"github.com/ericfisherdev/ciboard/internal/application"
	"github.com/ericfisherdev/ciboard/internal/config"
	"github.com/ericfisherdev/ciboard/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// Keep slog quiet so log lines do not tear the alternate screen.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	})))

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	manifest, err := config.LoadManifest(cfg.ManifestPath)
	if err != nil {
		return err
	}

	var ghClient driven.ActionsClient
	if cfg.HasGitHubToken() {
		ghClient = githubadapter.NewClient(cfg.GitHubToken)
	}

	svc := application.NewPollService(
		ghClient,
		staticadapter.NewSource(cfg.StaticDir),
		nil,
		manifest.Repos,
		cfg.PollInterval,
		cfg.CacheTTL,
		cfg.MaxRunsPerRepo,
	)

	program := tea.NewProgram(tui.NewModel(svc), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}

	return nil
}
