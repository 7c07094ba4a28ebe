package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ericfisherdev/ciboard/internal/domain/model"
	"github.com/ericfisherdev/ciboard/internal/domain/port/driven"
)

// ErrRefreshInFlight is returned when a refresh is requested while another
// cycle is still running. Refresh is not reentrant; overlapping requests
// coalesce onto the in-flight cycle.
var ErrRefreshInFlight = errors.New("refresh already in progress")

// Enrichment limits that bound per-repository API volume. Job listings are
// fetched for the newest non-release CI runs only, and annotation-derived
// stats for the single newest one.
const (
	jobDetailRuns   = 3
	annotationRuns  = 1
	defaultMaxRuns  = 20
	defaultCacheTTL = 5 * time.Minute
)

// PollService orchestrates the refresh cycle: fan-out fetching per
// repository through the live/static/cache source chain, normalization,
// categorization, and aggregation into a Dashboard.
type PollService struct {
	client   driven.ActionsClient // nil when no token is configured
	static   driven.StaticSource
	cache    driven.SnapshotCache
	repos    []string
	interval time.Duration
	cacheTTL time.Duration
	maxRuns  int

	busy atomic.Bool

	mu        sync.RWMutex
	dashboard Dashboard
}

// NewPollService creates a PollService. client, static, and cache may each be
// nil; a nil source is simply skipped in the fallback chain. maxRuns and
// cacheTTL fall back to their defaults when zero.
func NewPollService(
	client driven.ActionsClient,
	static driven.StaticSource,
	cache driven.SnapshotCache,
	repos []string,
	interval time.Duration,
	cacheTTL time.Duration,
	maxRuns int,
) *PollService {
	if maxRuns <= 0 {
		maxRuns = defaultMaxRuns
	}
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}

	return &PollService{
		client:   client,
		static:   static,
		cache:    cache,
		repos:    repos,
		interval: interval,
		cacheTTL: cacheTTL,
		maxRuns:  maxRuns,
	}
}

// Start runs an immediate refresh, then refreshes on the configured interval
// until the context is canceled. Ticks that land while a refresh is still
// running are skipped, not queued.
func (s *PollService) Start(ctx context.Context) {
	if _, err := s.Refresh(ctx); err != nil && !errors.Is(err, ErrRefreshInFlight) {
		slog.Error("initial refresh failed", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("poll service stopped")
			return
		case <-ticker.C:
			if _, err := s.Refresh(ctx); err != nil {
				if errors.Is(err, ErrRefreshInFlight) {
					slog.Warn("refresh still running, skipping tick")
				} else {
					slog.Error("refresh cycle failed", "error", err)
				}
			}
		}
	}
}

// Dashboard returns the most recently computed dashboard.
func (s *PollService) Dashboard() Dashboard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dashboard
}

// Snapshot returns the current snapshot for one repository.
func (s *PollService) Snapshot(repoFullName string) (model.RepoSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.dashboard.Repos[repoFullName]
	return snap, ok
}

// Refresh runs one full refresh cycle and returns the resulting dashboard.
// A boolean busy flag guards reentrance: a refresh triggered while one is
// in flight returns ErrRefreshInFlight without doing any work.
func (s *PollService) Refresh(ctx context.Context) (Dashboard, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return Dashboard{}, ErrRefreshInFlight
	}
	defer s.busy.Store(false)

	start := time.Now()
	snapshots := s.fetchAll(ctx)
	dashboard := BuildDashboard(time.Now(), snapshots)

	s.mu.Lock()
	s.dashboard = dashboard
	s.mu.Unlock()

	var failed int
	for _, snap := range snapshots {
		if snap.HasError() {
			failed++
		}
	}

	slog.Info("refresh cycle complete",
		"repos", len(snapshots),
		"failed", failed,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return dashboard, nil
}

// fetchAll fans out one goroutine per repository and waits for every one to
// settle. Failure domains are isolated: a slow or failing repository delays
// only the overall join, never another repository's result.
func (s *PollService) fetchAll(ctx context.Context) []model.RepoSnapshot {
	snapshots := make([]model.RepoSnapshot, len(s.repos))

	var wg sync.WaitGroup
	for i, repo := range s.repos {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snapshots[i] = s.fetchRepo(ctx, repo)
		}()
	}
	wg.Wait()

	return snapshots
}

// fetchRepo resolves one repository through the source chain: live API,
// then static artifact, then last-good cache within TTL, then an
// error-flagged empty snapshot. It never returns an error; degradation is
// recorded on the snapshot itself.
func (s *PollService) fetchRepo(ctx context.Context, repo string) model.RepoSnapshot {
	if s.client != nil {
		snap, err := s.fetchLive(ctx, repo)
		if err == nil {
			if s.cache != nil {
				if cacheErr := s.cache.Put(ctx, snap); cacheErr != nil {
					slog.Error("cache write failed", "repo", repo, "error", cacheErr)
				}
			}
			return snap
		}
		slog.Error("live fetch failed", "repo", repo, "error", err)
	}

	if s.static != nil {
		artifact, err := s.static.Load(repo)
		if err == nil {
			slog.Info("serving static data", "repo", repo, "generated_at", artifact.GeneratedAt)
			return SnapshotFromArtifact(repo, *artifact)
		}
		slog.Warn("static fallback failed", "repo", repo, "error", err)
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, repo)
		switch {
		case err != nil:
			slog.Error("cache read failed", "repo", repo, "error", err)
		case cached != nil && time.Since(cached.FetchedAt) <= s.cacheTTL:
			snap := *cached
			snap.Source = model.SourceCache
			slog.Info("serving cached data", "repo", repo, "age", time.Since(cached.FetchedAt).Round(time.Second))
			return snap
		case cached != nil:
			slog.Warn("cached data too old", "repo", repo, "age", time.Since(cached.FetchedAt).Round(time.Second))
		}
	}

	return model.EmptySnapshot(repo, time.Now(), "all data sources failed")
}

// fetchLive builds a snapshot from the GitHub API: recent runs, job detail
// for the newest non-release runs, and annotation stats for the newest one.
func (s *PollService) fetchLive(ctx context.Context, repo string) (model.RepoSnapshot, error) {
	raws, err := s.client.ListWorkflowRuns(ctx, repo, s.maxRuns)
	if err != nil {
		return model.RepoSnapshot{}, fmt.Errorf("listing workflow runs for %s: %w", repo, err)
	}

	runs := FilterRuns(NormalizeRuns(raws))
	sortRunsByStartDesc(runs)

	jobs := s.fetchJobs(ctx, repo, runs)
	stats, summaries := s.fetchAnnotations(ctx, repo, runs, jobs)

	return model.RepoSnapshot{
		Repo:       repo,
		FetchedAt:  time.Now(),
		Source:     model.SourceLive,
		Runs:       runs,
		Jobs:       jobs,
		Categories: Categorize(jobs, runs),
		CIStats:    stats,
		Summaries:  summaries,
		Conclusion: latestConclusion(runs),
		TotalCount: len(runs),
	}, nil
}

// fetchJobs lists jobs for the newest non-release runs, joining each parent
// run's identity fields onto its jobs before normalization. A failed listing
// for one run is logged and skipped; partial data is expected.
func (s *PollService) fetchJobs(ctx context.Context, repo string, runs []model.WorkflowRun) []model.WorkflowJob {
	jobs := []model.WorkflowJob{}

	detailed := 0
	for _, run := range runs {
		if run.IsRelease() {
			continue
		}
		if detailed == jobDetailRuns {
			break
		}
		detailed++

		rawJobs, err := s.client.ListWorkflowJobs(ctx, repo, run.ID)
		if err != nil {
			slog.Error("job fetch failed", "repo", repo, "run", run.ID, "error", err)
			continue
		}

		for _, raw := range rawJobs {
			raw.RunID = run.ID
			raw.RunNumber = run.RunNumber
			raw.HeadBranch = run.Branch
			raw.Event = run.Event
			raw.Actor = run.Actor
			jobs = append(jobs, NormalizeJob(raw))
		}
	}

	return jobs
}

// fetchAnnotations collects annotation stats and check output summaries for
// the jobs of the newest non-release run. Every fetch failure is swallowed
// per job.
func (s *PollService) fetchAnnotations(ctx context.Context, repo string, runs []model.WorkflowRun, jobs []model.WorkflowJob) (model.CIStats, map[string]string) {
	summaries := map[string]string{}

	targets := map[int64]bool{}
	for _, run := range runs {
		if run.IsRelease() {
			continue
		}
		targets[run.ID] = true
		if len(targets) == annotationRuns {
			break
		}
	}
	if len(targets) == 0 {
		return model.EmptyCIStats(), summaries
	}

	var annotations []model.Annotation
	for _, job := range jobs {
		if !targets[job.RunID] {
			continue
		}

		anns, err := s.client.ListCheckAnnotations(ctx, repo, job.ID)
		if err != nil {
			slog.Debug("annotation fetch failed", "repo", repo, "job", job.ID, "error", err)
		} else {
			annotations = append(annotations, anns...)
		}

		summary, err := s.client.FetchCheckSummary(ctx, repo, job.ID)
		if err != nil {
			slog.Debug("check summary fetch failed", "repo", repo, "job", job.ID, "error", err)
		} else if summary != "" {
			summaries[job.Name] = summary
		}
	}

	return BuildCIStats(annotations), summaries
}

// SnapshotFromArtifact runs the normalization and categorization pipeline
// over a static artifact. The result is indistinguishable from a live
// snapshot except for its Source and FetchedAt.
func SnapshotFromArtifact(repo string, artifact model.RepoArtifact) model.RepoSnapshot {
	runs := FilterRuns(NormalizeRuns(artifact.Runs))
	sortRunsByStartDesc(runs)
	jobs := NormalizeJobs(artifact.Jobs)

	stats := artifact.CIStats
	if stats.Lint == nil {
		stats.Lint = map[string]string{}
	}
	if stats.Test == nil {
		stats.Test = map[string]string{}
	}
	if stats.Security == nil {
		stats.Security = map[string]string{}
	}

	return model.RepoSnapshot{
		Repo:       repo,
		FetchedAt:  artifact.GeneratedAt,
		Source:     model.SourceStatic,
		Runs:       runs,
		Jobs:       jobs,
		Categories: Categorize(jobs, runs),
		CIStats:    stats,
		Conclusion: latestConclusion(runs),
		TotalCount: len(runs),
	}
}

// sortRunsByStartDesc orders runs newest-first by start time, stably.
func sortRunsByStartDesc(runs []model.WorkflowRun) {
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
}

// latestConclusion derives a repository's conclusion from its freshest run.
func latestConclusion(runs []model.WorkflowRun) model.Conclusion {
	if len(runs) == 0 {
		return model.ConclusionUnknown
	}
	return runs[0].Conclusion
}
