package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/ericfisherdev/ciboard/internal/adapter/driven/github"
	staticadapter "github.com/ericfisherdev/ciboard/internal/adapter/driven/static"
	"github.com/ericfisherdev/ciboard/internal/application"
	"github.com/ericfisherdev/ciboard/internal/config"
	"github.com/ericfisherdev/ciboard/internal/domain/model"
)

var (
	manifestPath string
	outDir       string
	maxRuns      int
	token        string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Fetch all repositories and write the JSON artifacts",
	Long: `Generate runs the same fetch, normalize, and categorize pipeline the live
dashboard uses and writes one artifact per repository plus a combined document.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&manifestPath, "manifest", "m", getEnvOrDefault("CIBOARD_MANIFEST", "repos.yaml"), "Path to the repository manifest")
	generateCmd.Flags().StringVarP(&outDir, "out", "o", getEnvOrDefault("CIBOARD_STATIC_DIR", "data"), "Output directory for JSON artifacts")
	generateCmd.Flags().IntVar(&maxRuns, "max-runs", 20, "Maximum workflow runs to fetch per repository")
	generateCmd.Flags().StringVar(&token, "token", os.Getenv("CIBOARD_GITHUB_TOKEN"), "GitHub token (defaults to CIBOARD_GITHUB_TOKEN)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if token == "" {
		return fmt.Errorf("a GitHub token is required: pass --token or set CIBOARD_GITHUB_TOKEN")
	}

	manifest, err := config.LoadManifest(manifestPath)
	if err != nil {
		return err
	}

	client := githubadapter.NewClient(token)
	svc := application.NewPollService(client, nil, nil, manifest.Repos, 0, 0, maxRuns)

	dashboard, err := svc.Refresh(cmd.Context())
	if err != nil {
		return err
	}

	snapshots := make([]model.RepoSnapshot, 0, len(dashboard.Repos))
	var failed int
	for _, snap := range dashboard.Repos {
		if snap.HasError() {
			failed++
			slog.Error("repository fetch failed, artifact skipped", "repo", snap.Repo, "error", snap.Err)
			continue
		}
		snapshots = append(snapshots, snap)
	}
	sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].Repo < snapshots[j].Repo })

	if len(snapshots) == 0 {
		return fmt.Errorf("every repository fetch failed, nothing to write")
	}

	writer := staticadapter.NewWriter(outDir)
	generatedAt := time.Now().UTC()
	if err := writer.WriteAll(generatedAt, snapshots); err != nil {
		return err
	}

	slog.Info("artifacts written",
		"out", outDir,
		"repos", len(snapshots),
		"failed", failed,
		"generated_at", generatedAt.Format(time.RFC3339),
	)

	return nil
}

// getEnvOrDefault returns the environment value or a fallback when unset.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
