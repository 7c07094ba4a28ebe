package application

import (
	"sort"
	"strings"

	"github.com/ericfisherdev/ciboard/internal/domain/model"
)

// categoryRule pairs a category with its name patterns. Rules are evaluated
// in declaration order against the lowercased name; the first category with
// any matching pattern wins.
type categoryRule struct {
	category model.Category
	patterns []string
}

var categoryRules = []categoryRule{
	{model.CategoryLint, []string{"lint"}},
	{model.CategoryTest, []string{"test"}},
	{model.CategorySecurity, []string{"security", "scan", "sast", "trivy", "vuln"}},
	{model.CategoryRelease, []string{"release"}},
}

// ClassifyName maps a run or job name to its category. The second return is
// false when no pattern matches; such items are dropped, not an error.
func ClassifyName(name string) (model.Category, bool) {
	lower := strings.ToLower(name)
	for _, rule := range categoryRules {
		for _, pattern := range rule.patterns {
			if strings.Contains(lower, pattern) {
				return rule.category, true
			}
		}
	}
	return "", false
}

// Categorize buckets jobs and runs into the four category buckets for one
// repository. Jobs classify into lint/test/security; release items are
// sourced exclusively from runs. When the job list is empty (older data
// without per-job detail) every non-release run lands in the test bucket as a
// best-effort approximation -- a deliberate heuristic preserved from the
// original dashboard, not a bug.
func Categorize(jobs []model.WorkflowJob, runs []model.WorkflowRun) map[model.Category]*model.CategoryBucket {
	buckets := make(map[model.Category]*model.CategoryBucket, len(model.Categories))
	for _, c := range model.Categories {
		buckets[c] = &model.CategoryBucket{Items: []model.CategoryItem{}}
	}

	for _, job := range jobs {
		category, ok := ClassifyName(job.Name)
		if !ok || category == model.CategoryRelease {
			continue
		}
		buckets[category].Items = append(buckets[category].Items, itemFromJob(job))
	}

	for _, run := range runs {
		if run.IsRelease() {
			buckets[model.CategoryRelease].Items = append(buckets[model.CategoryRelease].Items, itemFromRun(run))
		}
	}

	if len(jobs) == 0 {
		for _, run := range runs {
			if run.IsRelease() {
				continue
			}
			buckets[model.CategoryTest].Items = append(buckets[model.CategoryTest].Items, itemFromRun(run))
		}
	}

	for _, bucket := range buckets {
		finalizeBucket(bucket)
	}

	return buckets
}

// finalizeBucket sorts items newest-first (stable, so ties keep their
// original order) and derives Latest and the bucket conclusion. The bucket
// conclusion is never inferred from anything but its own latest item.
func finalizeBucket(bucket *model.CategoryBucket) {
	sort.SliceStable(bucket.Items, func(i, j int) bool {
		return bucket.Items[i].Timestamp.After(bucket.Items[j].Timestamp)
	})

	if len(bucket.Items) == 0 {
		bucket.Latest = nil
		bucket.Conclusion = model.ConclusionUnknown
		return
	}

	latest := bucket.Items[0]
	bucket.Latest = &latest
	bucket.Conclusion = latest.Conclusion
}

func itemFromJob(job model.WorkflowJob) model.CategoryItem {
	return model.CategoryItem{
		ID:         job.ID,
		Name:       job.Name,
		Status:     job.Status,
		Conclusion: job.Conclusion,
		URL:        job.URL,
		Branch:     job.Branch,
		Event:      job.Event,
		RunNumber:  job.RunNumber,
		Actor:      job.Actor,
		Timestamp:  job.StartedAt,
	}
}

func itemFromRun(run model.WorkflowRun) model.CategoryItem {
	return model.CategoryItem{
		ID:         run.ID,
		Name:       run.Name,
		Status:     run.Status,
		Conclusion: run.Conclusion,
		URL:        run.URL,
		Branch:     run.Branch,
		Event:      run.Event,
		RunNumber:  run.RunNumber,
		Actor:      run.Actor,
		Timestamp:  run.StartedAt,
	}
}
