package model

import "time"

// RepoArtifact is the per-repository JSON document produced by the static
// data generator and consumed by the fetcher's static fallback. Runs and jobs
// are carried in wire shape so the same normalizer runs over them as over
// live API payloads.
type RepoArtifact struct {
	GeneratedAt time.Time `json:"generated_at"`
	Runs        []RawRun  `json:"runs"`
	Jobs        []RawJob  `json:"jobs"`
	CIStats     CIStats   `json:"ciStats"`
}

// CombinedArtifact bundles every repository's artifact into a single
// document, keyed by "owner/name".
type CombinedArtifact struct {
	GeneratedAt time.Time               `json:"generated_at"`
	Repos       map[string]RepoArtifact `json:"repos"`
}
