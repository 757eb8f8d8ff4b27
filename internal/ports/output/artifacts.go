package output

import (
	"context"

	"github.com/geolearn/terrasample/internal/domain"
)

// ArtifactWriter defines the secondary port for persisting extraction
// results.
type ArtifactWriter interface {
	// WriteMatrix writes the feature matrix (and the coordinate companion
	// file when the manifest carries coordinate columns) under the given
	// base name. It returns the keys of all written artifacts.
	WriteMatrix(ctx context.Context, name string, result *domain.ExtractionResult) ([]string, error)

	// WriteSummary writes the YAML run summary and returns its key.
	WriteSummary(ctx context.Context, name string, summary domain.RunSummary) (string, error)
}
