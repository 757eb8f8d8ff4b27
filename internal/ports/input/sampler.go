// Package input defines the primary/driving ports of the application.
package input

import (
	"context"

	"github.com/geolearn/terrasample/internal/domain"
)

// Sampler defines the primary port for per-geometry feature extraction.
type Sampler interface {
	// Extract samples every geometry against the shared query and returns
	// the assembled label+feature matrix. Per-geometry read failures are
	// retried and then dropped; configuration and contract errors fail
	// the whole run.
	Extract(ctx context.Context, geometries []domain.LabeledGeometry, query domain.FeatureQuery) (*domain.ExtractionResult, error)
}

// ExtractionRunner defines the primary port for end-to-end extraction
// runs: load a vector file, sample it, write the artifacts.
type ExtractionRunner interface {
	// Run performs one extraction run over the named vector input and
	// returns its summary.
	Run(ctx context.Context, input string) (*domain.RunSummary, error)

	// LastRun returns the summary of the most recent completed run, or
	// false if no run has completed yet.
	LastRun() (domain.RunSummary, bool)
}
