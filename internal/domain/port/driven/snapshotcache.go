package driven

import (
	"context"

	"github.com/ericfisherdev/ciboard/internal/domain/model"
)

// SnapshotCache persists the last successfully fetched snapshot per
// repository. It is the third and final data source in the fallback chain;
// the TTL check on read is the caller's responsibility.
type SnapshotCache interface {
	// Get returns the cached snapshot for the repository, or nil when none
	// exists.
	Get(ctx context.Context, repoFullName string) (*model.RepoSnapshot, error)

	// Put replaces the cached snapshot for the snapshot's repository.
	Put(ctx context.Context, snapshot model.RepoSnapshot) error
}
