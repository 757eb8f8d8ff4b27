// Package output defines the secondary/driven ports of the application.
package output

import (
	"context"

	"github.com/geolearn/terrasample/internal/domain"
)

// FeatureSource defines the secondary port for per-geometry feature
// extraction. It is the boundary around the caller-supplied feature
// function: raster fetch and index computation happen behind it, and the
// sampler only depends on the input query and the returned grid shape.
//
// The returned grid must carry only spatial dimensions; a grid retaining a
// time axis violates the contract and aborts the run.
type FeatureSource interface {
	// Extract retrieves a multi-band feature grid for the query's region.
	Extract(ctx context.Context, query domain.FeatureQuery) (*domain.FeatureGrid, error)
}

// FeatureSourceFunc adapts a plain function to the FeatureSource port.
type FeatureSourceFunc func(ctx context.Context, query domain.FeatureQuery) (*domain.FeatureGrid, error)

// Extract implements FeatureSource.
func (f FeatureSourceFunc) Extract(ctx context.Context, query domain.FeatureQuery) (*domain.FeatureGrid, error) {
	return f(ctx, query)
}
