package application

import (
	"math"
	"sort"
	"time"

	"github.com/ericfisherdev/ciboard/internal/domain/model"
)

// Summary holds the cross-repository aggregate statistics for one refresh
// cycle.
type Summary struct {
	PassRate       float64                `json:"pass_rate"` // Percent, one decimal; 0 when no runs.
	SuccessStreak  int                    `json:"success_streak"`
	HealthyRepos   int                    `json:"healthy_repos"`
	TotalRuns      int                    `json:"total_runs"`
	SuccessfulRuns int                    `json:"successful_runs"`
	CategoryPasses map[model.Category]int `json:"category_passes"`
}

// TimelineEntry is one run in the global newest-first timeline.
type TimelineEntry struct {
	Repo string            `json:"repo"`
	Run  model.WorkflowRun `json:"run"`
}

// Insights carries the derived observations shown alongside the summary.
type Insights struct {
	FailingRepos   []string `json:"failing_repos"`
	InProgressRuns int      `json:"in_progress_runs"`
	MostActiveRepo string   `json:"most_active_repo,omitempty"`
}

// Dashboard is the complete view produced by one refresh cycle. It is a
// plain data structure: rendering (JSON API, TUI) is a separate consumer.
type Dashboard struct {
	GeneratedAt time.Time                     `json:"generated_at"`
	Repos       map[string]model.RepoSnapshot `json:"repos"`
	Summary     Summary                       `json:"summary"`
	Timeline    []TimelineEntry               `json:"timeline"`
	Insights    Insights                      `json:"insights"`
}

// BuildDashboard assembles the dashboard from per-repository snapshots.
// It is read-only over the snapshot data and has no side effects.
func BuildDashboard(now time.Time, snapshots []model.RepoSnapshot) Dashboard {
	repos := make(map[string]model.RepoSnapshot, len(snapshots))
	for _, snap := range snapshots {
		repos[snap.Repo] = snap
	}

	timeline := BuildTimeline(snapshots)

	return Dashboard{
		GeneratedAt: now,
		Repos:       repos,
		Summary:     Summarize(snapshots, timeline),
		Timeline:    timeline,
		Insights:    BuildInsights(snapshots),
	}
}

// BuildTimeline merges every repository's runs into a single slice sorted by
// start time descending. The sort is stable so runs with identical
// timestamps keep their per-repo order.
func BuildTimeline(snapshots []model.RepoSnapshot) []TimelineEntry {
	timeline := []TimelineEntry{}
	for _, snap := range snapshots {
		for _, run := range snap.Runs {
			timeline = append(timeline, TimelineEntry{Repo: snap.Repo, Run: run})
		}
	}

	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].Run.StartedAt.After(timeline[j].Run.StartedAt)
	})

	return timeline
}

// Summarize computes the aggregate statistics over all snapshots. The
// timeline must already be sorted newest-first; the success streak scans it
// and stops at the first non-success.
func Summarize(snapshots []model.RepoSnapshot, timeline []TimelineEntry) Summary {
	summary := Summary{
		CategoryPasses: make(map[model.Category]int, len(model.Categories)),
	}
	for _, c := range model.Categories {
		summary.CategoryPasses[c] = 0
	}

	for _, snap := range snapshots {
		summary.TotalRuns += len(snap.Runs)
		for _, run := range snap.Runs {
			if run.Conclusion == model.ConclusionSuccess {
				summary.SuccessfulRuns++
			}
		}

		if snap.Conclusion == model.ConclusionSuccess {
			summary.HealthyRepos++
		}

		for category, bucket := range snap.Categories {
			for _, item := range bucket.Items {
				if item.Conclusion == model.ConclusionSuccess {
					summary.CategoryPasses[category]++
				}
			}
		}
	}

	if summary.TotalRuns > 0 {
		rate := float64(summary.SuccessfulRuns) / float64(summary.TotalRuns) * 100
		summary.PassRate = math.Round(rate*10) / 10
	}

	for _, entry := range timeline {
		if entry.Run.Conclusion != model.ConclusionSuccess {
			break
		}
		summary.SuccessStreak++
	}

	return summary
}

// BuildInsights derives the observation view: repositories whose latest run
// failed, the count of in-flight runs, and the repository with the most
// recorded runs.
func BuildInsights(snapshots []model.RepoSnapshot) Insights {
	insights := Insights{FailingRepos: []string{}}

	maxRuns := 0
	for _, snap := range snapshots {
		if snap.Conclusion == model.ConclusionFailure {
			insights.FailingRepos = append(insights.FailingRepos, snap.Repo)
		}
		for _, run := range snap.Runs {
			if run.Status != "completed" {
				insights.InProgressRuns++
			}
		}
		if len(snap.Runs) > maxRuns {
			maxRuns = len(snap.Runs)
			insights.MostActiveRepo = snap.Repo
		}
	}

	sort.Strings(insights.FailingRepos)
	return insights
}
