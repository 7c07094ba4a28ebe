package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/ciboard/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// RepoOverviewResponse is the list-view representation of one repository.
type RepoOverviewResponse struct {
	Repo       string            `json:"repo"`
	Conclusion string            `json:"conclusion"`
	Source     string            `json:"source"`
	TotalCount int               `json:"total_count"`
	FetchedAt  time.Time         `json:"fetched_at"`
	Categories map[string]string `json:"categories"` // category -> latest conclusion
	Error      string            `json:"error,omitempty"`
}

// toRepoOverview flattens a snapshot into its overview representation.
func toRepoOverview(snap model.RepoSnapshot) RepoOverviewResponse {
	categories := make(map[string]string, len(snap.Categories))
	for category, bucket := range snap.Categories {
		categories[string(category)] = string(bucket.Conclusion)
	}

	return RepoOverviewResponse{
		Repo:       snap.Repo,
		Conclusion: string(snap.Conclusion),
		Source:     string(snap.Source),
		TotalCount: snap.TotalCount,
		FetchedAt:  snap.FetchedAt,
		Categories: categories,
		Error:      snap.Err,
	}
}

// RepoDetailResponse is the full snapshot plus check output summaries
// rendered to sanitized HTML.
type RepoDetailResponse struct {
	model.RepoSnapshot
	SummariesHTML map[string]string `json:"summaries_html,omitempty"`
}

// toRepoDetail renders each job's markdown check summary for the detail view.
func toRepoDetail(snap model.RepoSnapshot) RepoDetailResponse {
	var rendered map[string]string
	if len(snap.Summaries) > 0 {
		rendered = make(map[string]string, len(snap.Summaries))
		for name, md := range snap.Summaries {
			rendered[name] = RenderMarkdown(md)
		}
	}

	return RepoDetailResponse{
		RepoSnapshot:  snap,
		SummariesHTML: rendered,
	}
}

// RefreshResponse acknowledges a completed manual refresh.
type RefreshResponse struct {
	Status      string    `json:"status"`
	GeneratedAt time.Time `json:"generated_at"`
}

// HealthResponse reports liveness and the age of the served data.
type HealthResponse struct {
	Status      string    `json:"status"`
	GeneratedAt time.Time `json:"generated_at"`
	Repos       int       `json:"repos"`
}
