package model

import (
	"strings"
	"time"
)

// RawJob is the wire shape of a workflow job. The GitHub jobs API returns
// id/name/status/conclusion/html_url/started_at/completed_at; run_id,
// run_number, branch, event, and actor are joined from the parent run by the
// caller before normalization. As with RawRun, paired fields capture both the
// API and artifact naming variants.
type RawJob struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	Conclusion  string    `json:"conclusion"`
	HTMLURL     string    `json:"html_url"`
	URL         string    `json:"url"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	RunID       int64     `json:"run_id"`
	RunNumber   int       `json:"run_number"`
	HeadBranch  string    `json:"head_branch"`
	Branch      string    `json:"branch"`
	Event       string    `json:"event"`
	Actor       *Actor    `json:"actor,omitempty"`
}

// WorkflowJob is the normalized form of one unit of work within a run.
// RunID references a WorkflowRun in the same repository snapshot.
type WorkflowJob struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	Conclusion  Conclusion `json:"conclusion"`
	URL         string     `json:"url"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt time.Time  `json:"completed_at"`
	RunID       int64      `json:"run_id"`
	RunNumber   int        `json:"run_number"`
	Branch      string     `json:"branch"`
	Event       string     `json:"event"`
	Actor       *Actor     `json:"actor,omitempty"`
}

// containsFold reports whether s contains sub, case-insensitively.
func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
