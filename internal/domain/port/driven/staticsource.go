package driven

import (
	"github.com/ericfisherdev/ciboard/internal/domain/model"
)

// StaticSource reads pre-generated per-repository JSON artifacts. It is the
// second data source in the fallback chain, between the live API and the
// last-good cache.
type StaticSource interface {
	// Load returns the artifact for the repository. A missing or unreadable
	// artifact is an error; the caller decides how to degrade.
	Load(repoFullName string) (*model.RepoArtifact, error)
}
