package application

import (
	"context"
	"io"
	"sync"

	"github.com/geolearn/terrasample/internal/domain"
	"github.com/geolearn/terrasample/internal/ports/output"
)

// mockSource implements output.FeatureSource for testing. The extract
// function receives the per-region attempt number so tests can script
// failures that recover on a later retry.
type mockSource struct {
	mu       sync.Mutex
	attempts map[float64]int
	calls    int
	extract  func(q domain.FeatureQuery, attempt int) (*domain.FeatureGrid, error)
}

func (m *mockSource) Extract(_ context.Context, q domain.FeatureQuery) (*domain.FeatureGrid, error) {
	m.mu.Lock()
	if m.attempts == nil {
		m.attempts = make(map[float64]int)
	}
	key := 0.0
	if q.Region != nil {
		key = q.Region.MinX
	}
	m.attempts[key]++
	attempt := m.attempts[key]
	m.calls++
	m.mu.Unlock()

	return m.extract(q, attempt)
}

func (m *mockSource) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// makeGrid builds a 2x2 feature grid centered on the query region with
// one value per band computed by fill.
func makeGrid(q domain.FeatureQuery, bands []string, fill func(band string, px int) float64) *domain.FeatureGrid {
	region := domain.Extent{MaxX: 1, MaxY: 1}
	if q.Region != nil {
		region = *q.Region
	}

	grid := &domain.FeatureGrid{
		X:    []float64{region.MinX, region.MaxX},
		Y:    []float64{region.MinY, region.MaxY},
		SRID: region.SRID,
	}
	for _, name := range bands {
		values := make([]float64, 4)
		for px := range values {
			values[px] = fill(name, px)
		}
		grid.Bands = append(grid.Bands, domain.GridBand{Name: name, Values: values})
	}
	return grid
}

// squareAt returns a labeled unit-square polygon with its lower-left
// corner at (x, y). Distinct corners give geometries distinct regions.
func squareAt(label int, x, y float64) domain.LabeledGeometry {
	return domain.NewPolygon(label, []domain.Coordinate{
		{X: x, Y: y},
		{X: x + 1, Y: y},
		{X: x + 1, Y: y + 1},
		{X: x, Y: y + 1},
		{X: x, Y: y},
	}, domain.SRIDAlbersAU)
}

// mockVectorReader implements output.VectorReader for testing.
type mockVectorReader struct {
	geometries []domain.LabeledGeometry
	err        error
}

func (m *mockVectorReader) Read(_ context.Context, _ string, _ string) ([]domain.LabeledGeometry, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.geometries, nil
}

// mockArtifactWriter implements output.ArtifactWriter for testing.
type mockArtifactWriter struct {
	mu        sync.Mutex
	matrices  map[string]*domain.ExtractionResult
	summaries map[string]domain.RunSummary
	writeErr  error
}

func (m *mockArtifactWriter) WriteMatrix(_ context.Context, name string, result *domain.ExtractionResult) ([]string, error) {
	if m.writeErr != nil {
		return nil, m.writeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.matrices == nil {
		m.matrices = make(map[string]*domain.ExtractionResult)
	}
	m.matrices[name] = result
	return []string{name + ".txt"}, nil
}

func (m *mockArtifactWriter) WriteSummary(_ context.Context, name string, summary domain.RunSummary) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.summaries == nil {
		m.summaries = make(map[string]domain.RunSummary)
	}
	m.summaries[name] = summary
	return name + ".summary.yaml", nil
}

// mockStorage implements output.ObjectStorage for testing.
type mockStorage struct {
	objects     []output.StorageObject
	existsErr   error
	downloadErr error
}

func (m *mockStorage) List(_ context.Context) ([]output.StorageObject, error) {
	return m.objects, nil
}

func (m *mockStorage) Download(_ context.Context, _, _ string) error {
	return m.downloadErr
}

func (m *mockStorage) GetReader(_ context.Context, _ string) (io.ReadCloser, error) {
	return nil, domain.ErrNotFound
}

func (m *mockStorage) Exists(_ context.Context, key string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	for _, obj := range m.objects {
		if obj.Key == key {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStorage) Upload(_ context.Context, _ string, _ io.Reader) error {
	return nil
}
