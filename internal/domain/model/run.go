package model

import "time"

// Actor identifies the user that triggered a run. Only login and avatar are
// retained from the API payload.
type Actor struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

// RawRun is the wire shape of a workflow run as read from the GitHub API or a
// pre-generated static artifact. Paired fields (Name/WorkflowName,
// HTMLURL/URL, HeadBranch/Branch, HeadSHA/SHA, RunStartedAt/StartedAt,
// Actor/TriggeringActor) capture both naming variants so the normalizer never
// branches on data provenance.
type RawRun struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	WorkflowName    string    `json:"workflow_name"`
	Status          string    `json:"status"`
	Conclusion      string    `json:"conclusion"`
	HTMLURL         string    `json:"html_url"`
	URL             string    `json:"url"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	RunStartedAt    time.Time `json:"run_started_at"`
	StartedAt       time.Time `json:"started_at"`
	HeadBranch      string    `json:"head_branch"`
	Branch          string    `json:"branch"`
	HeadSHA         string    `json:"head_sha"`
	SHA             string    `json:"sha"`
	Event           string    `json:"event"`
	RunNumber       int       `json:"run_number"`
	Actor           *Actor    `json:"actor,omitempty"`
	TriggeringActor *Actor    `json:"triggering_actor,omitempty"`
}

// WorkflowRun is the normalized form of a CI/CD workflow run. Every field is
// populated: missing wire fields are filled by the normalizer's default
// policy. Immutable once constructed; replaced wholesale on the next refresh.
type WorkflowRun struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Status     string     `json:"status"`
	Conclusion Conclusion `json:"conclusion"`
	URL        string     `json:"url"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	StartedAt  time.Time  `json:"started_at"`
	Branch     string     `json:"branch"`
	SHA        string     `json:"sha"`
	Event      string     `json:"event"`
	RunNumber  int        `json:"run_number"`
	Actor      *Actor     `json:"actor,omitempty"`
}

// IsRelease reports whether this run belongs to the release category.
// Release items are sourced from runs, never from jobs.
func (r WorkflowRun) IsRelease() bool {
	return containsFold(r.Name, "release")
}
