package output

import (
	"context"

	"github.com/geolearn/terrasample/internal/domain"
)

// VectorReader defines the secondary port for loading labeled geometry
// collections from vector files.
type VectorReader interface {
	// Read loads all geometries from the given file, taking the class
	// label from the named field. A missing label field or a label value
	// that is not representable as an integer is a configuration error.
	Read(ctx context.Context, path string, labelField string) ([]domain.LabeledGeometry, error)
}
