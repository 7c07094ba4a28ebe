// Package config loads application configuration from environment variables
// and the repository manifest file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	GitHubToken    string
	ManifestPath   string
	PollInterval   time.Duration
	CacheTTL       time.Duration
	MaxRunsPerRepo int
	ListenAddr     string
	DBPath         string
	StaticDir      string
}

// HasGitHubToken reports whether a token is configured. Without one the
// fetcher skips the live API and serves static or cached data only.
func (c *Config) HasGitHubToken() bool {
	return c.GitHubToken != ""
}

// Load reads configuration from environment variables and returns a validated
// Config. CIBOARD_GITHUB_TOKEN is optional; without it the dashboard runs on
// static artifacts and cache alone. Optional variables with defaults:
// CIBOARD_MANIFEST (repos.yaml), CIBOARD_POLL_INTERVAL (5m),
// CIBOARD_CACHE_TTL (5m), CIBOARD_MAX_RUNS (20),
// CIBOARD_LISTEN_ADDR (127.0.0.1:8080), CIBOARD_DB_PATH (ciboard.db),
// CIBOARD_STATIC_DIR (data).
func Load() (*Config, error) {
	cfg := &Config{
		GitHubToken:    os.Getenv("CIBOARD_GITHUB_TOKEN"),
		ManifestPath:   "repos.yaml",
		PollInterval:   5 * time.Minute,
		CacheTTL:       5 * time.Minute,
		MaxRunsPerRepo: 20,
		ListenAddr:     "127.0.0.1:8080",
		DBPath:         "ciboard.db",
		StaticDir:      "data",
	}

	if v, ok := os.LookupEnv("CIBOARD_MANIFEST"); ok {
		cfg.ManifestPath = v
	}

	if v, ok := os.LookupEnv("CIBOARD_POLL_INTERVAL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("CIBOARD_POLL_INTERVAL has invalid duration %q: %w", v, err)
		}
		cfg.PollInterval = parsed
	}

	if v, ok := os.LookupEnv("CIBOARD_CACHE_TTL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("CIBOARD_CACHE_TTL has invalid duration %q: %w", v, err)
		}
		cfg.CacheTTL = parsed
	}

	if v, ok := os.LookupEnv("CIBOARD_MAX_RUNS"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("CIBOARD_MAX_RUNS must be a positive integer, got %q", v)
		}
		cfg.MaxRunsPerRepo = parsed
	}

	if v, ok := os.LookupEnv("CIBOARD_LISTEN_ADDR"); ok {
		cfg.ListenAddr = v
	}

	if v, ok := os.LookupEnv("CIBOARD_DB_PATH"); ok {
		cfg.DBPath = v
	}

	if v, ok := os.LookupEnv("CIBOARD_STATIC_DIR"); ok {
		cfg.StaticDir = v
	}

	return cfg, nil
}

// Manifest lists the repositories the dashboard reports on.
type Manifest struct {
	Repos []string `yaml:"repos"`
}

// LoadManifest reads and validates the YAML repository manifest. An
// unreadable or invalid manifest is the one fatal configuration condition:
// the error aborts startup rather than degrading to partial data.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	if len(m.Repos) == 0 {
		return nil, fmt.Errorf("manifest %s lists no repositories", path)
	}

	for i, repo := range m.Repos {
		repo = strings.TrimSpace(repo)
		m.Repos[i] = repo

		owner, name, ok := strings.Cut(repo, "/")
		if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
			return nil, fmt.Errorf("manifest %s: repository %q is not in owner/name form", path, repo)
		}
	}

	return &m, nil
}
