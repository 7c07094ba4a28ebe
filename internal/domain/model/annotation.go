package model

// Annotation is a structured message attached to a job by the CI process,
// used to carry machine-parseable metrics. Recognized titles are exactly
// ci_lint, ci_test, and ci_security; the message is a pipe-delimited
// key=value string.
type Annotation struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// CIStats holds the annotation-derived metric blocks per category: a flat
// metric-name to value mapping for each of lint, test, and security.
// Example: Test = {"total": "50", "passed": "48", "failed": "2", "coverage": "87%"}.
type CIStats struct {
	Lint     map[string]string `json:"lint"`
	Test     map[string]string `json:"test"`
	Security map[string]string `json:"security"`
}

// EmptyCIStats returns a CIStats with all three blocks initialized so JSON
// output renders {} rather than null.
func EmptyCIStats() CIStats {
	return CIStats{
		Lint:     map[string]string{},
		Test:     map[string]string{},
		Security: map[string]string{},
	}
}
