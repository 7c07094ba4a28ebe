// Package httphandler is the HTTP driving adapter that serves the JSON API.
package httphandler

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/ericfisherdev/ciboard/internal/application"
)

// Handler serves the dashboard REST API.
type Handler struct {
	pollSvc *application.PollService
	logger  *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(pollSvc *application.PollService, logger *slog.Logger) *Handler {
	return &Handler{
		pollSvc: pollSvc,
		logger:  logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with rate limiting, logging, and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/dashboard", h.GetDashboard)
	mux.HandleFunc("GET /api/v1/summary", h.GetSummary)
	mux.HandleFunc("GET /api/v1/timeline", h.GetTimeline)
	mux.HandleFunc("GET /api/v1/repos", h.ListRepos)
	mux.HandleFunc("GET /api/v1/repos/{owner}/{repo}", h.GetRepo)
	mux.HandleFunc("POST /api/v1/refresh", h.Refresh)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = rateLimitMiddleware(newRateLimiter(defaultRateLimit, defaultBurst), logger, wrapped)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// GetDashboard returns the full dashboard from the last refresh cycle.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.pollSvc.Dashboard())
}

// GetSummary returns the cross-repository aggregate statistics.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.pollSvc.Dashboard().Summary)
}

// GetTimeline returns the global newest-first run timeline. The optional
// limit query parameter truncates the result.
func (h *Handler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	timeline := h.pollSvc.Dashboard().Timeline

	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if limit < len(timeline) {
			timeline = timeline[:limit]
		}
	}

	writeJSON(w, http.StatusOK, timeline)
}

// ListRepos returns a per-repository overview, sorted by repository name.
func (h *Handler) ListRepos(w http.ResponseWriter, r *http.Request) {
	dashboard := h.pollSvc.Dashboard()

	resp := make([]RepoOverviewResponse, 0, len(dashboard.Repos))
	for _, snap := range dashboard.Repos {
		resp = append(resp, toRepoOverview(snap))
	}
	sort.Slice(resp, func(i, j int) bool { return resp[i].Repo < resp[j].Repo })

	writeJSON(w, http.StatusOK, resp)
}

// GetRepo returns a single repository's full snapshot, with check output
// summaries rendered to sanitized HTML.
func (h *Handler) GetRepo(w http.ResponseWriter, r *http.Request) {
	repoFullName := r.PathValue("owner") + "/" + r.PathValue("repo")

	snap, ok := h.pollSvc.Snapshot(repoFullName)
	if !ok {
		writeError(w, http.StatusNotFound, "repository not tracked")
		return
	}

	writeJSON(w, http.StatusOK, toRepoDetail(snap))
}

// Refresh triggers a refresh cycle. A refresh already in flight is reported
// as a conflict; callers coalesce onto it by polling the dashboard.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.pollSvc.Refresh(r.Context())
	if err != nil {
		if errors.Is(err, application.ErrRefreshInFlight) {
			writeError(w, http.StatusConflict, "refresh already in progress")
			return
		}
		h.logger.Error("manual refresh failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, RefreshResponse{
		Status:      "ok",
		GeneratedAt: dashboard.GeneratedAt,
	})
}

// Health reports service liveness and the time of the last refresh.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dashboard := h.pollSvc.Dashboard()

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "ok",
		GeneratedAt: dashboard.GeneratedAt,
		Repos:       len(dashboard.Repos),
	})
}
