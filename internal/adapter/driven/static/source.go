// Package static reads and writes the pre-generated JSON artifacts that
// serve as the fetcher's fallback data source.
package static

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ericfisherdev/ciboard/internal/domain/model"
	"github.com/ericfisherdev/ciboard/internal/domain/port/driven"
)

// CombinedFileName is the combined all-repositories artifact document.
const CombinedFileName = "all.json"

// RepoFileName returns the artifact file name for a repository:
// "owner/name" becomes "owner-name.json".
func RepoFileName(repoFullName string) string {
	return strings.ReplaceAll(repoFullName, "/", "-") + ".json"
}

// Compile-time interface satisfaction check.
var _ driven.StaticSource = (*Source)(nil)

// Source implements the StaticSource port over a directory of JSON artifacts.
type Source struct {
	dir string
}

// NewSource creates a Source reading artifacts from dir.
func NewSource(dir string) *Source {
	return &Source{dir: dir}
}

// Load returns the artifact for the repository, preferring the per-repo file
// and falling back to the repository's entry in the combined document.
func (s *Source) Load(repoFullName string) (*model.RepoArtifact, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, RepoFileName(repoFullName)))
	if err == nil {
		var artifact model.RepoArtifact
		if jsonErr := json.Unmarshal(data, &artifact); jsonErr != nil {
			return nil, fmt.Errorf("parsing artifact for %s: %w", repoFullName, jsonErr)
		}
		return &artifact, nil
	}

	combined, combinedErr := os.ReadFile(filepath.Join(s.dir, CombinedFileName))
	if combinedErr != nil {
		return nil, fmt.Errorf("no static data for %s: %w", repoFullName, err)
	}

	var doc model.CombinedArtifact
	if jsonErr := json.Unmarshal(combined, &doc); jsonErr != nil {
		return nil, fmt.Errorf("parsing combined artifact: %w", jsonErr)
	}

	artifact, ok := doc.Repos[repoFullName]
	if !ok {
		return nil, fmt.Errorf("combined artifact has no entry for %s", repoFullName)
	}

	return &artifact, nil
}
