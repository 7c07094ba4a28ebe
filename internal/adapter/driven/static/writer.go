package static

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ericfisherdev/ciboard/internal/domain/model"
)

// repoDocument mirrors model.RepoArtifact on the write side. Normalized runs
// and jobs marshal to a JSON shape the wire-side RawRun/RawJob types read
// back, so artifacts round-trip through the same normalizer as API payloads.
type repoDocument struct {
	GeneratedAt time.Time           `json:"generated_at"`
	Runs        []model.WorkflowRun `json:"runs"`
	Jobs        []model.WorkflowJob `json:"jobs"`
	CIStats     model.CIStats       `json:"ciStats"`
}

type combinedDocument struct {
	GeneratedAt time.Time               `json:"generated_at"`
	Repos       map[string]repoDocument `json:"repos"`
}

// Writer writes the artifacts produced by the static data generator.
type Writer struct {
	dir string
}

// NewWriter creates a Writer that writes artifacts into dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// WriteAll writes one per-repository artifact per snapshot plus the combined
// document, creating the output directory if needed.
func (w *Writer) WriteAll(generatedAt time.Time, snapshots []model.RepoSnapshot) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("creating output dir %s: %w", w.dir, err)
	}

	combined := combinedDocument{
		GeneratedAt: generatedAt,
		Repos:       make(map[string]repoDocument, len(snapshots)),
	}

	for _, snap := range snapshots {
		doc := repoDocument{
			GeneratedAt: generatedAt,
			Runs:        snap.Runs,
			Jobs:        snap.Jobs,
			CIStats:     snap.CIStats,
		}
		combined.Repos[snap.Repo] = doc

		if err := w.writeJSON(RepoFileName(snap.Repo), doc); err != nil {
			return err
		}
	}

	return w.writeJSON(CombinedFileName, combined)
}

func (w *Writer) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}
