package domain

import "time"

// Column names reserved by the manifest.
const (
	ColumnLabel  = "label"
	ColumnXCoord = "x_coord"
	ColumnYCoord = "y_coord"
)

// Manifest is the ordered list of output column names: label, then band
// names in feature-source order, then the optional coordinate columns. It
// is fixed from the first successful extraction of a run and identical
// across all records.
type Manifest []string

// NewManifest builds a manifest from band names.
func NewManifest(bands []string, withCoords bool) Manifest {
	m := make(Manifest, 0, len(bands)+3)
	m = append(m, ColumnLabel)
	m = append(m, bands...)
	if withCoords {
		m = append(m, ColumnXCoord, ColumnYCoord)
	}
	return m
}

// Bands returns the band columns of the manifest.
func (m Manifest) Bands() []string {
	if len(m) < 2 {
		return nil
	}
	end := len(m)
	if m.HasCoords() {
		end -= 2
	}
	return m[1:end]
}

// HasCoords returns true if the manifest carries coordinate columns.
func (m Manifest) HasCoords() bool {
	return len(m) >= 3 && m[len(m)-2] == ColumnXCoord && m[len(m)-1] == ColumnYCoord
}

// SampleRecord is one output row: the geometry's label followed by its
// feature values (and optional trailing centroid coordinates), in manifest
// order. Records are never mutated after creation.
type SampleRecord struct {
	GeometryIndex int       // Index of the source geometry in the input collection
	Label         int       // Class label
	Features      []float64 // Feature values in band order
	X             float64   // Centroid x (when coordinates are requested)
	Y             float64   // Centroid y
	HasCoords     bool
}

// Row returns the record as a flat value slice in manifest order.
func (r *SampleRecord) Row() []float64 {
	row := make([]float64, 0, len(r.Features)+3)
	row = append(row, float64(r.Label))
	row = append(row, r.Features...)
	if r.HasCoords {
		row = append(row, r.X, r.Y)
	}
	return row
}

// ExtractionResult is the terminal output of a sampling run: the ordered
// records that succeeded, the column manifest, and a count of geometries
// dropped for producing unrecoverable reads.
type ExtractionResult struct {
	Records  []SampleRecord
	Manifest Manifest
	Dropped  int           // Geometries dropped after retries were exhausted
	Duration time.Duration // Wall-clock extraction time
}

// RecordCount returns the number of sample records.
func (r *ExtractionResult) RecordCount() int {
	return len(r.Records)
}

// RunSummary describes one completed extraction run. It is recorded by the
// extraction service and exposed on the status endpoint and in the YAML
// summary written next to the matrix.
type RunSummary struct {
	RunID      string        `yaml:"run_id" json:"run_id"`
	Input      string        `yaml:"input" json:"input"`
	Geometries int           `yaml:"geometries" json:"geometries"`
	Records    int           `yaml:"records" json:"records"`
	Dropped    int           `yaml:"dropped" json:"dropped"`
	Columns    []string      `yaml:"columns" json:"columns"`
	ZonalStat  string        `yaml:"zonal_stat" json:"zonal_stat"`
	StartedAt  time.Time     `yaml:"started_at" json:"started_at"`
	Duration   time.Duration `yaml:"duration" json:"duration"`
}
