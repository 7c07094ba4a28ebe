// Package github implements the ActionsClient port using the go-github library.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/ericfisherdev/ciboard/internal/domain/model"
	"github.com/ericfisherdev/ciboard/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ActionsClient = (*Client)(nil)

// Client implements the driven.ActionsClient port using the go-github library.
type Client struct {
	gh *gh.Client
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	return &Client{gh: client}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client}, nil
}

// ListWorkflowRuns retrieves up to limit recent workflow runs for the given
// repository, newest first. It handles pagination automatically and maps
// go-github types to wire-shaped payloads.
func (c *Client) ListWorkflowRuns(ctx context.Context, repoFullName string, limit int) ([]model.RawRun, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	perPage := limit
	if perPage > 100 {
		perPage = 100
	}

	opts := &gh.ListWorkflowRunsOptions{
		ListOptions: gh.ListOptions{PerPage: perPage},
	}

	runs := []model.RawRun{}

	for {
		result, resp, err := c.gh.Actions.ListRepositoryWorkflowRuns(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("listing workflow runs for %s (page %d): %w", repoFullName, opts.Page, err)
		}

		logRateLimit(resp, repoFullName+"/runs", opts.Page, len(result.WorkflowRuns))

		for _, run := range result.WorkflowRuns {
			runs = append(runs, mapWorkflowRun(run))
			if len(runs) == limit {
				return runs, nil
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return runs, nil
}

// ListWorkflowJobs retrieves the jobs of a single workflow run. It handles
// pagination automatically and maps go-github types to wire-shaped payloads.
// Parent-run fields (run_number, branch, event, actor) are joined by the
// caller; the adapter carries only what the jobs API returns.
func (c *Client) ListWorkflowJobs(ctx context.Context, repoFullName string, runID int64) ([]model.RawJob, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	opts := &gh.ListWorkflowJobsOptions{
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	jobs := []model.RawJob{}

	for {
		result, resp, err := c.gh.Actions.ListWorkflowJobs(ctx, owner, repo, runID, opts)
		if err != nil {
			return nil, fmt.Errorf("listing jobs for %s run %d (page %d): %w", repoFullName, runID, opts.Page, err)
		}

		logRateLimit(resp, repoFullName+"/jobs", opts.Page, len(result.Jobs))

		for _, job := range result.Jobs {
			jobs = append(jobs, mapWorkflowJob(job))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return jobs, nil
}

// ListCheckAnnotations retrieves the annotations attached to a check run.
// Workflow job IDs double as check run IDs in the GitHub API.
func (c *Client) ListCheckAnnotations(ctx context.Context, repoFullName string, checkRunID int64) ([]model.Annotation, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	opts := &gh.ListOptions{PerPage: 100}
	annotations := []model.Annotation{}

	for {
		result, resp, err := c.gh.Checks.ListCheckRunAnnotations(ctx, owner, repo, checkRunID, opts)
		if err != nil {
			return nil, fmt.Errorf("listing annotations for %s check run %d: %w", repoFullName, checkRunID, err)
		}

		for _, a := range result {
			annotations = append(annotations, model.Annotation{
				Title:   a.GetTitle(),
				Message: a.GetMessage(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return annotations, nil
}

// FetchCheckSummary returns the markdown output summary of a check run, or
// "" when the check produced no output.
func (c *Client) FetchCheckSummary(ctx context.Context, repoFullName string, checkRunID int64) (string, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return "", err
	}

	checkRun, resp, err := c.gh.Checks.GetCheckRun(ctx, owner, repo, checkRunID)
	if err != nil {
		return "", fmt.Errorf("fetching check run %d for %s: %w", checkRunID, repoFullName, err)
	}

	logRateLimit(resp, repoFullName+"/check-run", 0, 1)

	return checkRun.GetOutput().GetSummary(), nil
}

// mapWorkflowRun converts a go-github WorkflowRun to a wire-shaped RawRun.
// It uses GetXxx() helper methods exclusively to avoid nil pointer panics.
func mapWorkflowRun(run *gh.WorkflowRun) model.RawRun {
	return model.RawRun{
		ID:              run.GetID(),
		Name:            run.GetName(),
		Status:          run.GetStatus(),
		Conclusion:      run.GetConclusion(),
		HTMLURL:         run.GetHTMLURL(),
		CreatedAt:       run.GetCreatedAt().Time,
		UpdatedAt:       run.GetUpdatedAt().Time,
		RunStartedAt:    run.GetRunStartedAt().Time,
		HeadBranch:      run.GetHeadBranch(),
		HeadSHA:         run.GetHeadSHA(),
		Event:           run.GetEvent(),
		RunNumber:       run.GetRunNumber(),
		Actor:           mapActor(run.GetActor()),
		TriggeringActor: mapActor(run.GetTriggeringActor()),
	}
}

// mapWorkflowJob converts a go-github WorkflowJob to a wire-shaped RawJob.
func mapWorkflowJob(job *gh.WorkflowJob) model.RawJob {
	return model.RawJob{
		ID:          job.GetID(),
		Name:        job.GetName(),
		Status:      job.GetStatus(),
		Conclusion:  job.GetConclusion(),
		HTMLURL:     job.GetHTMLURL(),
		StartedAt:   job.GetStartedAt().Time,
		CompletedAt: job.GetCompletedAt().Time,
		RunID:       job.GetRunID(),
	}
}

// mapActor converts a go-github User to a domain Actor, retaining only login
// and avatar.
func mapActor(user *gh.User) *model.Actor {
	if user == nil {
		return nil
	}
	return &model.Actor{
		Login:     user.GetLogin(),
		AvatarURL: user.GetAvatarURL(),
	}
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// splitRepo splits "owner/name" into its parts.
func splitRepo(repoFullName string) (string, string, error) {
	owner, repo, ok := strings.Cut(repoFullName, "/")
	if !ok || owner == "" || repo == "" {
		return "", "", fmt.Errorf("invalid repository name %q, want owner/name", repoFullName)
	}
	return owner, repo, nil
}
