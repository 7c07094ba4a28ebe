package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every CIBOARD_ env var that Load() reads.
var allConfigKeys = []string{
	"CIBOARD_GITHUB_TOKEN",
	"CIBOARD_MANIFEST",
	"CIBOARD_POLL_INTERVAL",
	"CIBOARD_CACHE_TTL",
	"CIBOARD_MAX_RUNS",
	"CIBOARD_LISTEN_ADDR",
	"CIBOARD_DB_PATH",
	"CIBOARD_STATIC_DIR",
}

// isolateConfigEnv saves and unsets all CIBOARD_ env vars so tests don't
// inherit values from the host environment (e.g. a running dev server).
// t.Cleanup restores original values after the test.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("CIBOARD_GITHUB_TOKEN", "ghp_test123")
	t.Setenv("CIBOARD_MANIFEST", "/etc/ciboard/repos.yaml")
	t.Setenv("CIBOARD_POLL_INTERVAL", "10m")
	t.Setenv("CIBOARD_CACHE_TTL", "30s")
	t.Setenv("CIBOARD_MAX_RUNS", "50")
	t.Setenv("CIBOARD_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("CIBOARD_DB_PATH", "/tmp/test.db")
	t.Setenv("CIBOARD_STATIC_DIR", "/var/lib/ciboard")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "ghp_test123", cfg.GitHubToken)
	assert.Equal(t, "/etc/ciboard/repos.yaml", cfg.ManifestPath)
	assert.Equal(t, 10*time.Minute, cfg.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 50, cfg.MaxRunsPerRepo)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, "/var/lib/ciboard", cfg.StaticDir)
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "repos.yaml", cfg.ManifestPath)
	assert.Equal(t, 5*time.Minute, cfg.PollInterval)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 20, cfg.MaxRunsPerRepo)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, "ciboard.db", cfg.DBPath)
	assert.Equal(t, "data", cfg.StaticDir)
}

// A missing token is not an error: the dashboard degrades to static and
// cached data.
func TestLoad_MissingToken(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "", cfg.GitHubToken)
	assert.False(t, cfg.HasGitHubToken())
}

func TestLoad_InvalidPollInterval(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("CIBOARD_POLL_INTERVAL", "not-a-duration")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CIBOARD_POLL_INTERVAL")
}

func TestLoad_InvalidMaxRuns(t *testing.T) {
	isolateConfigEnv(t)

	for _, bad := range []string{"abc", "0", "-5"} {
		t.Setenv("CIBOARD_MAX_RUNS", bad)

		cfg, err := Load()

		assert.Nil(t, cfg, "value %q", bad)
		require.Error(t, err, "value %q", bad)
	}
}

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "repos.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadManifest_Success(t *testing.T) {
	path := writeManifest(t, "repos:\n  - acme/api\n  - acme/web\n")

	m, err := LoadManifest(path)

	require.NoError(t, err)
	assert.Equal(t, []string{"acme/api", "acme/web"}, m.Repos)
}

func TestLoadManifest_TrimsWhitespace(t *testing.T) {
	path := writeManifest(t, "repos:\n  - \" acme/api \"\n")

	m, err := LoadManifest(path)

	require.NoError(t, err)
	assert.Equal(t, []string{"acme/api"}, m.Repos)
}

func TestLoadManifest_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty repo list", "repos: []\n"},
		{"no repos key", "other: value\n"},
		{"invalid yaml", "repos: [unclosed\n"},
		{"missing owner", "repos:\n  - /api\n"},
		{"missing name", "repos:\n  - acme/\n"},
		{"no slash", "repos:\n  - acme\n"},
		{"extra slash", "repos:\n  - acme/api/extra\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, tt.content)

			m, err := LoadManifest(path)

			assert.Nil(t, m)
			require.Error(t, err)
		})
	}
}

func TestLoadManifest_FileNotFound(t *testing.T) {
	m, err := LoadManifest(filepath.Join(t.TempDir(), "missing.yaml"))

	assert.Nil(t, m)
	require.Error(t, err)
}
