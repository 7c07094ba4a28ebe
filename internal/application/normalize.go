package application

import (
	"strings"
	"time"

	"github.com/ericfisherdev/ciboard/internal/domain/model"
)

// Default values applied to wire payloads with missing fields. The same
// policy runs over live API responses and static artifacts so downstream
// logic never branches on data provenance.
const (
	defaultName   = "unknown"
	defaultStatus = "completed"
	defaultBranch = "main"
	defaultEvent  = "push"
)

// NormalizeRun converts a wire-shaped run into a WorkflowRun with every
// required field populated. Normalization is idempotent: re-normalizing the
// marshaled form of a normalized run yields an identical run.
func NormalizeRun(raw model.RawRun) model.WorkflowRun {
	status := firstNonEmpty(raw.Status, defaultStatus)

	return model.WorkflowRun{
		ID:         raw.ID,
		Name:       firstNonEmpty(raw.Name, raw.WorkflowName, defaultName),
		Status:     status,
		Conclusion: normalizeConclusion(raw.Conclusion, status),
		URL:        firstNonEmpty(raw.HTMLURL, raw.URL),
		CreatedAt:  raw.CreatedAt,
		UpdatedAt:  coalesceTime(raw.UpdatedAt, raw.CreatedAt),
		StartedAt:  coalesceTime(raw.RunStartedAt, raw.StartedAt, raw.CreatedAt),
		Branch:     firstNonEmpty(raw.HeadBranch, raw.Branch, defaultBranch),
		SHA:        firstNonEmpty(raw.HeadSHA, raw.SHA),
		Event:      firstNonEmpty(raw.Event, defaultEvent),
		RunNumber:  raw.RunNumber,
		Actor:      normalizeActor(raw.Actor, raw.TriggeringActor),
	}
}

// NormalizeRuns normalizes a slice of wire-shaped runs, preserving order.
func NormalizeRuns(raws []model.RawRun) []model.WorkflowRun {
	runs := make([]model.WorkflowRun, 0, len(raws))
	for _, raw := range raws {
		runs = append(runs, NormalizeRun(raw))
	}
	return runs
}

// NormalizeJob converts a wire-shaped job into a WorkflowJob. The caller
// joins run_id, run_number, branch, event, and actor from the parent run
// before normalization; defaults cover older artifacts that lack the join.
func NormalizeJob(raw model.RawJob) model.WorkflowJob {
	status := firstNonEmpty(raw.Status, defaultStatus)

	return model.WorkflowJob{
		ID:          raw.ID,
		Name:        firstNonEmpty(raw.Name, defaultName),
		Status:      status,
		Conclusion:  normalizeConclusion(raw.Conclusion, status),
		URL:         firstNonEmpty(raw.HTMLURL, raw.URL),
		StartedAt:   raw.StartedAt,
		CompletedAt: raw.CompletedAt,
		RunID:       raw.RunID,
		RunNumber:   raw.RunNumber,
		Branch:      firstNonEmpty(raw.HeadBranch, raw.Branch, defaultBranch),
		Event:       firstNonEmpty(raw.Event, defaultEvent),
		Actor:       normalizeActor(raw.Actor, nil),
	}
}

// NormalizeJobs normalizes a slice of wire-shaped jobs, preserving order.
func NormalizeJobs(raws []model.RawJob) []model.WorkflowJob {
	jobs := make([]model.WorkflowJob, 0, len(raws))
	for _, raw := range raws {
		jobs = append(jobs, NormalizeJob(raw))
	}
	return jobs
}

// FilterRuns applies the ingestion exclusion rule: runs whose name contains
// "copilot" (case-insensitive) or whose triggering event is the literal
// "dynamic" are dropped before any further processing.
func FilterRuns(runs []model.WorkflowRun) []model.WorkflowRun {
	filtered := make([]model.WorkflowRun, 0, len(runs))
	for _, run := range runs {
		if strings.Contains(strings.ToLower(run.Name), "copilot") {
			continue
		}
		if run.Event == "dynamic" {
			continue
		}
		filtered = append(filtered, run)
	}
	return filtered
}

// normalizeConclusion applies the conclusion default policy: a missing
// conclusion becomes "unknown" for completed work and "in_progress"
// otherwise; present values are coerced into the fixed Conclusion set.
func normalizeConclusion(raw, status string) model.Conclusion {
	if raw == "" {
		if status == defaultStatus {
			return model.ConclusionUnknown
		}
		return model.ConclusionInProgress
	}
	return model.CoerceConclusion(raw)
}

// normalizeActor picks the run's actor, falling back to the triggering actor.
// A fresh Actor value is returned so snapshots never alias wire payloads.
func normalizeActor(actor, triggering *model.Actor) *model.Actor {
	src := actor
	if src == nil {
		src = triggering
	}
	if src == nil {
		return nil
	}
	return &model.Actor{Login: src.Login, AvatarURL: src.AvatarURL}
}

// firstNonEmpty returns the first non-empty string, or "".
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// coalesceTime returns the first non-zero time, or the zero time.
func coalesceTime(times ...time.Time) time.Time {
	for _, t := range times {
		if !t.IsZero() {
			return t
		}
	}
	return time.Time{}
}
