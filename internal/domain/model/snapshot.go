package model

import "time"

// RepoSnapshot is the full normalized+categorized state of one repository for
// one refresh cycle. It is owned by the refresh that produced it and replaced
// wholesale on the next cycle; the only persistence is the last-good cache.
type RepoSnapshot struct {
	Repo       string                       `json:"repo"`
	FetchedAt  time.Time                    `json:"fetched_at"`
	Source     SnapshotSource               `json:"source"`
	Runs       []WorkflowRun                `json:"runs"`
	Jobs       []WorkflowJob                `json:"jobs"`
	Categories map[Category]*CategoryBucket `json:"categories"`
	CIStats    CIStats                      `json:"ci_stats"`
	Summaries  map[string]string            `json:"summaries,omitempty"` // job name -> check output markdown
	Conclusion Conclusion                   `json:"conclusion"`
	TotalCount int                          `json:"total_count"`
	Err        string                       `json:"error,omitempty"`
}

// HasError reports whether every data source failed for this repository.
func (s RepoSnapshot) HasError() bool {
	return s.Err != ""
}

// EmptySnapshot returns an error-flagged snapshot with empty collections.
// Used when live, static, and cached sources have all failed; it lets the
// rest of the refresh cycle proceed for sibling repositories.
func EmptySnapshot(repo string, now time.Time, errMsg string) RepoSnapshot {
	categories := make(map[Category]*CategoryBucket, len(Categories))
	for _, c := range Categories {
		categories[c] = &CategoryBucket{Items: []CategoryItem{}, Conclusion: ConclusionUnknown}
	}

	return RepoSnapshot{
		Repo:       repo,
		FetchedAt:  now,
		Source:     SourceNone,
		Runs:       []WorkflowRun{},
		Jobs:       []WorkflowJob{},
		Categories: categories,
		CIStats:    EmptyCIStats(),
		Conclusion: ConclusionUnknown,
		Err:        errMsg,
	}
}
