package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/ciboard/internal/application"
	"github.com/ericfisherdev/ciboard/internal/domain/model"
)

// --- Mock implementations ---

type mockActionsClient struct {
	listRuns        func(ctx context.Context, repoFullName string, limit int) ([]model.RawRun, error)
	listJobs        func(ctx context.Context, repoFullName string, runID int64) ([]model.RawJob, error)
	listAnnotations func(ctx context.Context, repoFullName string, checkRunID int64) ([]model.Annotation, error)
	fetchSummary    func(ctx context.Context, repoFullName string, checkRunID int64) (string, error)

	mu           sync.Mutex
	jobRunIDs    []int64
	annotationID []int64
}

func (m *mockActionsClient) ListWorkflowRuns(ctx context.Context, repoFullName string, limit int) ([]model.RawRun, error) {
	if m.listRuns == nil {
		return nil, nil
	}
	return m.listRuns(ctx, repoFullName, limit)
}

func (m *mockActionsClient) ListWorkflowJobs(ctx context.Context, repoFullName string, runID int64) ([]model.RawJob, error) {
	m.mu.Lock()
	m.jobRunIDs = append(m.jobRunIDs, runID)
	m.mu.Unlock()
	if m.listJobs == nil {
		return nil, nil
	}
	return m.listJobs(ctx, repoFullName, runID)
}

func (m *mockActionsClient) ListCheckAnnotations(ctx context.Context, repoFullName string, checkRunID int64) ([]model.Annotation, error) {
	m.mu.Lock()
	m.annotationID = append(m.annotationID, checkRunID)
	m.mu.Unlock()
	if m.listAnnotations == nil {
		return nil, nil
	}
	return m.listAnnotations(ctx, repoFullName, checkRunID)
}

func (m *mockActionsClient) FetchCheckSummary(ctx context.Context, repoFullName string, checkRunID int64) (string, error) {
	if m.fetchSummary == nil {
		return "", nil
	}
	return m.fetchSummary(ctx, repoFullName, checkRunID)
}

type mockStaticSource struct {
	artifacts map[string]*model.RepoArtifact
}

func (m *mockStaticSource) Load(repoFullName string) (*model.RepoArtifact, error) {
	artifact, ok := m.artifacts[repoFullName]
	if !ok {
		return nil, errors.New("artifact not found")
	}
	return artifact, nil
}

type mockSnapshotCache struct {
	mu        sync.Mutex
	snapshots map[string]*model.RepoSnapshot
	puts      int
	getErr    error
	putErr    error
}

func newMockSnapshotCache() *mockSnapshotCache {
	return &mockSnapshotCache{snapshots: map[string]*model.RepoSnapshot{}}
}

func (m *mockSnapshotCache) Get(_ context.Context, repoFullName string) (*model.RepoSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.snapshots[repoFullName], nil
}

func (m *mockSnapshotCache) Put(_ context.Context, snapshot model.RepoSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	snap := snapshot
	m.snapshots[snapshot.Repo] = &snap
	m.puts++
	return nil
}

// --- Helpers ---

func rawRunAt(id int64, name string, conclusion string, startedAt time.Time) model.RawRun {
	return model.RawRun{
		ID:           id,
		Name:         name,
		Status:       "completed",
		Conclusion:   conclusion,
		RunStartedAt: startedAt,
		CreatedAt:    startedAt,
	}
}

// --- Tests ---

func TestPollService_Refresh_Live(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	client := &mockActionsClient{
		listRuns: func(_ context.Context, repo string, limit int) ([]model.RawRun, error) {
			assert.Equal(t, "acme/api", repo)
			assert.Equal(t, 20, limit)
			return []model.RawRun{
				rawRunAt(1, "CI", "success", base.Add(time.Minute)),
				rawRunAt(2, "CI", "failure", base),
			}, nil
		},
		listJobs: func(_ context.Context, _ string, runID int64) ([]model.RawJob, error) {
			return []model.RawJob{
				{ID: runID * 10, Name: "Unit Test Suite", Status: "completed", Conclusion: "success", StartedAt: base},
			}, nil
		},
		listAnnotations: func(_ context.Context, _ string, _ int64) ([]model.Annotation, error) {
			return []model.Annotation{{Title: "ci_test", Message: "total=50|passed=48"}}, nil
		},
		fetchSummary: func(_ context.Context, _ string, _ int64) (string, error) {
			return "## Test Results\nAll green.", nil
		},
	}
	cache := newMockSnapshotCache()

	svc := application.NewPollService(client, nil, cache, []string{"acme/api"}, time.Hour, 0, 0)

	dashboard, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	snap, ok := dashboard.Repos["acme/api"]
	require.True(t, ok)
	assert.Equal(t, model.SourceLive, snap.Source)
	assert.False(t, snap.HasError())
	require.Len(t, snap.Runs, 2)
	assert.Equal(t, int64(1), snap.Runs[0].ID, "runs sorted newest first")
	assert.Equal(t, model.ConclusionSuccess, snap.Conclusion)
	assert.Equal(t, map[string]string{"total": "50", "passed": "48"}, snap.CIStats.Test)
	assert.Contains(t, snap.Summaries, "Unit Test Suite")

	assert.Equal(t, 1, cache.puts, "live snapshot written to cache")
}

func TestPollService_Refresh_JobDetailLimits(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	client := &mockActionsClient{
		listRuns: func(_ context.Context, _ string, _ int) ([]model.RawRun, error) {
			return []model.RawRun{
				rawRunAt(1, "Deploy Release", "success", base.Add(5*time.Minute)),
				rawRunAt(2, "CI", "success", base.Add(4*time.Minute)),
				rawRunAt(3, "CI", "success", base.Add(3*time.Minute)),
				rawRunAt(4, "CI", "success", base.Add(2*time.Minute)),
				rawRunAt(5, "CI", "success", base.Add(time.Minute)),
			}, nil
		},
		listJobs: func(_ context.Context, _ string, runID int64) ([]model.RawJob, error) {
			return []model.RawJob{
				{ID: runID * 10, Name: "test", Status: "completed", Conclusion: "success", StartedAt: base},
			}, nil
		},
	}

	svc := application.NewPollService(client, nil, nil, []string{"acme/api"}, time.Hour, 0, 0)

	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	// Release runs are skipped; job detail covers the three newest CI runs.
	assert.Equal(t, []int64{2, 3, 4}, client.jobRunIDs)
	// Annotations cover only the jobs of the single newest CI run.
	assert.Equal(t, []int64{20}, client.annotationID)
}

func TestPollService_Refresh_FailureIsolation(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	client := &mockActionsClient{
		listRuns: func(_ context.Context, repo string, _ int) ([]model.RawRun, error) {
			if repo == "acme/broken" {
				return nil, errors.New("boom")
			}
			return []model.RawRun{rawRunAt(1, "CI", "success", base)}, nil
		},
	}

	svc := application.NewPollService(client, nil, nil, []string{"acme/broken", "acme/api"}, time.Hour, 0, 0)

	dashboard, err := svc.Refresh(context.Background())
	require.NoError(t, err, "one failing repository never fails the cycle")

	broken := dashboard.Repos["acme/broken"]
	assert.True(t, broken.HasError())
	assert.Equal(t, model.SourceNone, broken.Source)
	assert.Empty(t, broken.Runs)
	require.NotNil(t, broken.Categories[model.CategoryLint])

	healthy := dashboard.Repos["acme/api"]
	assert.False(t, healthy.HasError())
	assert.Equal(t, model.SourceLive, healthy.Source)
	require.Len(t, healthy.Runs, 1)
}

func TestPollService_Refresh_StaticFallback(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	client := &mockActionsClient{
		listRuns: func(_ context.Context, _ string, _ int) ([]model.RawRun, error) {
			return nil, errors.New("api down")
		},
	}
	static := &mockStaticSource{artifacts: map[string]*model.RepoArtifact{
		"acme/api": {
			GeneratedAt: base,
			Runs: []model.RawRun{
				rawRunAt(1, "CI", "success", base),
				rawRunAt(2, "Copilot review", "success", base),
			},
			CIStats: model.CIStats{Test: map[string]string{"total": "10"}},
		},
	}}

	svc := application.NewPollService(client, static, nil, []string{"acme/api"}, time.Hour, 0, 0)

	dashboard, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	snap := dashboard.Repos["acme/api"]
	assert.Equal(t, model.SourceStatic, snap.Source)
	assert.Equal(t, base, snap.FetchedAt)
	require.Len(t, snap.Runs, 1, "ingestion filter applies to artifacts too")
	assert.Equal(t, map[string]string{"total": "10"}, snap.CIStats.Test)
	require.NotNil(t, snap.CIStats.Lint, "missing stat blocks become empty maps")
}

func TestPollService_Refresh_CacheFallback(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	client := &mockActionsClient{
		listRuns: func(_ context.Context, _ string, _ int) ([]model.RawRun, error) {
			return nil, errors.New("api down")
		},
	}

	t.Run("fresh cache entry is served with cache source", func(t *testing.T) {
		cache := newMockSnapshotCache()
		cache.snapshots["acme/api"] = &model.RepoSnapshot{
			Repo:       "acme/api",
			FetchedAt:  time.Now().Add(-time.Minute),
			Source:     model.SourceLive,
			Runs:       []model.WorkflowRun{{ID: 1, Conclusion: model.ConclusionSuccess, StartedAt: base}},
			Conclusion: model.ConclusionSuccess,
		}

		svc := application.NewPollService(client, nil, cache, []string{"acme/api"}, time.Hour, 5*time.Minute, 0)

		dashboard, err := svc.Refresh(context.Background())
		require.NoError(t, err)

		snap := dashboard.Repos["acme/api"]
		assert.Equal(t, model.SourceCache, snap.Source)
		assert.False(t, snap.HasError())
		require.Len(t, snap.Runs, 1)
	})

	t.Run("stale cache entry falls through to empty snapshot", func(t *testing.T) {
		cache := newMockSnapshotCache()
		cache.snapshots["acme/api"] = &model.RepoSnapshot{
			Repo:      "acme/api",
			FetchedAt: time.Now().Add(-time.Hour),
			Source:    model.SourceLive,
		}

		svc := application.NewPollService(client, nil, cache, []string{"acme/api"}, time.Hour, 5*time.Minute, 0)

		dashboard, err := svc.Refresh(context.Background())
		require.NoError(t, err)

		snap := dashboard.Repos["acme/api"]
		assert.True(t, snap.HasError())
		assert.Equal(t, model.SourceNone, snap.Source)
	})
}

func TestPollService_Refresh_Reentrance(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	// The final Refresh below calls listRuns again, so the started signal
	// must only fire once.
	var startedOnce sync.Once

	client := &mockActionsClient{
		listRuns: func(_ context.Context, _ string, _ int) ([]model.RawRun, error) {
			startedOnce.Do(func() { close(started) })
			<-release
			return nil, nil
		},
	}

	svc := application.NewPollService(client, nil, nil, []string{"acme/api"}, time.Hour, 0, 0)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Refresh(context.Background())
		done <- err
	}()

	<-started
	_, err := svc.Refresh(context.Background())
	assert.ErrorIs(t, err, application.ErrRefreshInFlight)

	close(release)
	require.NoError(t, <-done)

	// The flag clears once the cycle finishes.
	_, err = svc.Refresh(context.Background())
	require.NoError(t, err)
}

func TestPollService_NoSourcesConfigured(t *testing.T) {
	svc := application.NewPollService(nil, nil, nil, []string{"acme/api"}, time.Hour, 0, 0)

	dashboard, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	snap := dashboard.Repos["acme/api"]
	assert.True(t, snap.HasError())
	assert.Equal(t, model.SourceNone, snap.Source)
}

func TestPollService_DashboardAccessors(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	client := &mockActionsClient{
		listRuns: func(_ context.Context, _ string, _ int) ([]model.RawRun, error) {
			return []model.RawRun{rawRunAt(1, "CI", "success", base)}, nil
		},
	}
	svc := application.NewPollService(client, nil, nil, []string{"acme/api"}, time.Hour, 0, 0)

	_, ok := svc.Snapshot("acme/api")
	assert.False(t, ok, "no snapshot before the first refresh")

	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	snap, ok := svc.Snapshot("acme/api")
	require.True(t, ok)
	assert.Equal(t, "acme/api", snap.Repo)

	dashboard := svc.Dashboard()
	assert.Contains(t, dashboard.Repos, "acme/api")
}

func TestSnapshotFromArtifact(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	artifact := model.RepoArtifact{
		GeneratedAt: base,
		Runs: []model.RawRun{
			rawRunAt(2, "CI", "failure", base),
			rawRunAt(1, "CI", "success", base.Add(time.Minute)),
		},
		Jobs: []model.RawJob{
			{ID: 10, Name: "Unit Test Suite", Status: "completed", Conclusion: "success", StartedAt: base, RunID: 1},
		},
	}

	snap := application.SnapshotFromArtifact("acme/api", artifact)

	assert.Equal(t, model.SourceStatic, snap.Source)
	assert.Equal(t, base, snap.FetchedAt)
	require.Len(t, snap.Runs, 2)
	assert.Equal(t, int64(1), snap.Runs[0].ID, "artifact runs re-sorted newest first")
	assert.Equal(t, model.ConclusionSuccess, snap.Conclusion)
	require.Len(t, snap.Categories[model.CategoryTest].Items, 1)
	require.NotNil(t, snap.CIStats.Lint)
}
