package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/ciboard/internal/domain/model"
	"github.com/ericfisherdev/ciboard/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SnapshotCache = (*SnapshotRepo)(nil)

// SnapshotRepo is the SQLite implementation of the SnapshotCache port. Each
// repository has at most one row holding its last successfully fetched
// snapshot as a JSON payload. TTL enforcement happens in the application
// layer; the repo just records when the snapshot was fetched.
type SnapshotRepo struct {
	db *DB
}

// NewSnapshotRepo creates a new SnapshotRepo backed by the given DB.
func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// Put replaces the cached snapshot for the snapshot's repository.
func (r *SnapshotRepo) Put(ctx context.Context, snapshot model.RepoSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot for %s: %w", snapshot.Repo, err)
	}

	const query = `
		INSERT INTO snapshots (repo_full_name, fetched_at, payload)
		VALUES (?, ?, ?)
		ON CONFLICT (repo_full_name) DO UPDATE SET
			fetched_at = excluded.fetched_at,
			payload = excluded.payload
	`

	if _, err := r.db.Writer.ExecContext(ctx, query, snapshot.Repo, snapshot.FetchedAt.UTC(), string(payload)); err != nil {
		return fmt.Errorf("upsert snapshot for %s: %w", snapshot.Repo, err)
	}

	return nil
}

// Get returns the cached snapshot for the repository, or nil when none exists.
func (r *SnapshotRepo) Get(ctx context.Context, repoFullName string) (*model.RepoSnapshot, error) {
	const query = `
		SELECT fetched_at, payload
		FROM snapshots
		WHERE repo_full_name = ?
	`

	var fetchedAtRaw, payload string

	err := r.db.Reader.QueryRowContext(ctx, query, repoFullName).Scan(&fetchedAtRaw, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot for %s: %w", repoFullName, err)
	}

	var snapshot model.RepoSnapshot
	if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot for %s: %w", repoFullName, err)
	}

	// The column is authoritative for TTL checks; the payload copy may lose
	// precision in round-tripping.
	fetchedAt, err := parseTime(fetchedAtRaw)
	if err != nil {
		return nil, fmt.Errorf("parse fetched_at for %s: %w", repoFullName, err)
	}
	snapshot.FetchedAt = fetchedAt

	return &snapshot, nil
}

// parseTime parses a timestamp string from SQLite, which may use any of
// several formats depending on how the value was bound.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format %q", s)
}
