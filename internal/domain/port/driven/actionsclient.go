// Package driven defines the driven-side port interfaces implemented by
// infrastructure adapters.
package driven

import (
	"context"

	"github.com/ericfisherdev/ciboard/internal/domain/model"
)

// ActionsClient abstracts the GitHub Actions API operations the fetch
// pipeline needs. Implementations return wire-shaped payloads; normalization
// is the application layer's job.
type ActionsClient interface {
	// ListWorkflowRuns returns up to limit recent workflow runs for the
	// repository, newest first.
	ListWorkflowRuns(ctx context.Context, repoFullName string, limit int) ([]model.RawRun, error)

	// ListWorkflowJobs returns the jobs of a single workflow run.
	ListWorkflowJobs(ctx context.Context, repoFullName string, runID int64) ([]model.RawJob, error)

	// ListCheckAnnotations returns the annotations attached to a check run.
	// Workflow job IDs double as check run IDs.
	ListCheckAnnotations(ctx context.Context, repoFullName string, checkRunID int64) ([]model.Annotation, error)

	// FetchCheckSummary returns the markdown output summary of a check run,
	// or "" when the check has no output.
	FetchCheckSummary(ctx context.Context, repoFullName string, checkRunID int64) (string, error)
}
