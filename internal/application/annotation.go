// Package application contains the data pipeline: normalization,
// categorization, aggregation, and the refresh orchestration service.
package application

import (
	"strings"

	"github.com/ericfisherdev/ciboard/internal/domain/model"
)

// Annotation titles recognized by the stat pipeline. Anything else is ignored.
const (
	annotationTitleLint     = "ci_lint"
	annotationTitleTest     = "ci_test"
	annotationTitleSecurity = "ci_security"
)

// ParseAnnotationStats parses a pipe-delimited key=value annotation message
// ("total=50|passed=48|coverage=87%") into a metric map. Whitespace around
// separators is tolerated and segments without an "=" are skipped silently.
// The function is total: any input, including "", yields a non-nil map.
func ParseAnnotationStats(message string) map[string]string {
	stats := map[string]string{}
	if strings.TrimSpace(message) == "" {
		return stats
	}

	for _, segment := range strings.Split(message, "|") {
		key, value, ok := strings.Cut(segment, "=")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}

		stats[key] = strings.TrimSpace(value)
	}

	return stats
}

// BuildCIStats folds check-run annotations into the per-category stat blocks.
// When multiple annotations carry the same title, the last one wins.
func BuildCIStats(annotations []model.Annotation) model.CIStats {
	stats := model.EmptyCIStats()

	for _, a := range annotations {
		switch a.Title {
		case annotationTitleLint:
			stats.Lint = ParseAnnotationStats(a.Message)
		case annotationTitleTest:
			stats.Test = ParseAnnotationStats(a.Message)
		case annotationTitleSecurity:
			stats.Security = ParseAnnotationStats(a.Message)
		}
	}

	return stats
}
