package domain

import "math"

// GridBand is one named channel of a feature grid. Values are stored
// row-major: Values[row*len(X)+col] is the pixel at (X[col], Y[row]).
type GridBand struct {
	Name   string
	Values []float64
}

// FeatureGrid is the output of the feature source for one geometry: a set
// of named bands over a shared pair of spatial coordinate axes, with no
// time dimension.
type FeatureGrid struct {
	X     []float64 // Pixel center x coordinates
	Y     []float64 // Pixel center y coordinates
	SRID  int
	Bands []GridBand
}

// SpatialSize returns the number of pixels in the grid.
func (g *FeatureGrid) SpatialSize() int {
	return len(g.X) * len(g.Y)
}

// BandNames returns the band names in grid order.
func (g *FeatureGrid) BandNames() []string {
	names := make([]string, len(g.Bands))
	for i, b := range g.Bands {
		names[i] = b.Name
	}
	return names
}

// Validate checks the grid against the feature-source output contract:
// every band must cover exactly the spatial plane. A band whose value
// count is a larger multiple of the spatial size has retained a time
// dimension; both cases are contract violations.
func (g *FeatureGrid) Validate() error {
	size := g.SpatialSize()
	if size == 0 {
		return &ContractError{Message: "grid has no spatial extent"}
	}
	if len(g.Bands) == 0 {
		return &ContractError{Message: "grid has no bands"}
	}
	for _, b := range g.Bands {
		if b.Name == "" {
			return &ContractError{Message: "grid band with empty name"}
		}
		if len(b.Values) == size {
			continue
		}
		if len(b.Values) > size && len(b.Values)%size == 0 {
			return &ContractError{
				Band:    b.Name,
				Message: "band retains a time dimension",
			}
		}
		return &ContractError{
			Band:    b.Name,
			Message: "band size does not match spatial dimensions",
		}
	}
	return nil
}

// Centroid returns the representative coordinate of the sampled region,
// computed from the grid's coordinate axes rather than geometry vertices.
func (g *FeatureGrid) Centroid() Coordinate {
	return Coordinate{
		X:    axisMean(g.X),
		Y:    axisMean(g.Y),
		SRID: g.SRID,
	}
}

func axisMean(axis []float64) float64 {
	if len(axis) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range axis {
		sum += v
	}
	return sum / float64(len(axis))
}

// InvalidFraction returns the fraction of NaN or infinite values in vs.
// An empty slice counts as fully invalid.
func InvalidFraction(vs []float64) float64 {
	if len(vs) == 0 {
		return 1
	}
	invalid := 0
	for _, v := range vs {
		if !IsFinite(v) {
			invalid++
		}
	}
	return float64(invalid) / float64(len(vs))
}

// IsFinite returns true if v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
