// Healthcheck is the container probe for ciboard. It hits the health
// endpoint and verifies the service reports ok; when CIBOARD_HEALTH_MAX_AGE
// is set it additionally fails on stale dashboard data, catching a wedged
// poll loop that a bare liveness check would miss.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"
)

func main() {
	os.Exit(run())
}

func run() int {
	addr := normalizeAddr(os.Getenv("CIBOARD_LISTEN_ADDR"))

	maxAge, err := parseMaxAge(os.Getenv("CIBOARD_HEALTH_MAX_AGE"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := check(fmt.Sprintf("http://%s/api/v1/health", addr), maxAge); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	return 0
}

// healthBody is the subset of the health response the probe inspects.
type healthBody struct {
	Status      string    `json:"status"`
	GeneratedAt time.Time `json:"generated_at"`
	Repos       int       `json:"repos"`
}

// check fetches the health endpoint and validates the response. A zero
// generated_at means no refresh has completed yet; that passes the age check
// so containers are not killed during startup.
func check(url string, maxAge time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("health request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health returned status %d", resp.StatusCode)
	}

	var body healthBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode health response: %w", err)
	}

	if body.Status != "ok" {
		return fmt.Errorf("health status %q", body.Status)
	}

	if maxAge > 0 && !body.GeneratedAt.IsZero() {
		if age := time.Since(body.GeneratedAt); age > maxAge {
			return fmt.Errorf("dashboard data is %s old, max age %s", age.Round(time.Second), maxAge)
		}
	}

	return nil
}

// parseMaxAge parses the optional staleness threshold. Empty means disabled.
func parseMaxAge(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("CIBOARD_HEALTH_MAX_AGE has invalid duration %q: %w", raw, err)
	}
	return d, nil
}

// normalizeAddr ensures the probe connects to loopback rather than the
// bind-all address. Containers bind 0.0.0.0 but the probe runs inside the
// same container, so loopback is reachable and more correct.
func normalizeAddr(raw string) string {
	if raw == "" {
		return "127.0.0.1:8080"
	}

	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return "127.0.0.1:8080"
	}

	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}

	return net.JoinHostPort(host, port)
}
