package domain

import "time"

// FeatureQuery describes what raster data the feature source should retrieve
// for a geometry's bounding region. One query is built per run and shared
// read-only across all geometries; the sampler derives a per-geometry copy
// with Region set from the geometry's bounds.
type FeatureQuery struct {
	TimeStart  time.Time // Inclusive start of the time range
	TimeEnd    time.Time // Inclusive end of the time range
	Bands      []string  // Band/measurement names to retrieve
	Resolution float64   // Pixel size in CRS units (positive)
	OutputSRID int       // CRS of the returned grid

	// Region scopes the query to one geometry. It is set by the sampler;
	// a caller supplying it is a configuration error.
	Region *Extent
}

// Validate checks the shared query for caller errors.
func (q *FeatureQuery) Validate() error {
	if q.Region != nil {
		return &ConfigError{
			Field:   "region",
			Message: "spatial extent is derived per geometry and must not be set on the shared query",
		}
	}
	if len(q.Bands) == 0 {
		return &ConfigError{Field: "bands", Message: "at least one band is required"}
	}
	seen := make(map[string]bool, len(q.Bands))
	for _, b := range q.Bands {
		if b == "" {
			return &ConfigError{Field: "bands", Message: "band names must not be empty"}
		}
		if seen[b] {
			return &ConfigError{Field: "bands", Message: "duplicate band name: " + b}
		}
		seen[b] = true
	}
	if q.Resolution <= 0 {
		return &ConfigError{Field: "resolution", Message: "resolution must be positive"}
	}
	if !q.TimeStart.IsZero() && !q.TimeEnd.IsZero() && q.TimeEnd.Before(q.TimeStart) {
		return &ConfigError{Field: "time", Message: "time range end precedes start"}
	}
	return nil
}

// WithRegion returns a copy of the query scoped to the given extent.
func (q FeatureQuery) WithRegion(e Extent) FeatureQuery {
	q.Region = &e
	return q
}
