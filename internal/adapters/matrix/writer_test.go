package matrix

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/geolearn/terrasample/internal/domain"
	"github.com/geolearn/terrasample/internal/ports/output"
)

type memStorage struct {
	objects map[string][]byte
	failAll bool
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte)}
}

func (m *memStorage) List(_ context.Context) ([]output.StorageObject, error) { return nil, nil }

func (m *memStorage) Download(_ context.Context, _, _ string) error { return nil }

func (m *memStorage) GetReader(_ context.Context, _ string) (io.ReadCloser, error) {
	return nil, domain.ErrNotFound
}

func (m *memStorage) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.objects[key]
	return ok, nil
}

func (m *memStorage) Upload(_ context.Context, key string, body io.Reader) error {
	if m.failAll {
		return domain.ErrStorageUnavailable
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[key] = data
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testResult(withCoords bool) *domain.ExtractionResult {
	return &domain.ExtractionResult{
		Manifest: domain.NewManifest([]string{"red", "nir"}, withCoords),
		Records: []domain.SampleRecord{
			{Label: 1, Features: []float64{0.5, 0.25}, X: 10, Y: 20, HasCoords: withCoords},
			{Label: 2, Features: []float64{1.5, 2.75}, X: 30, Y: 40, HasCoords: withCoords},
		},
		Dropped: 1,
	}
}

func TestWriteMatrix(t *testing.T) {
	store := newMemStorage()
	w := NewWriter(store, &output.NoOpMetrics{}, testLogger(), Config{})

	keys, err := w.WriteMatrix(t.Context(), "sites_training_data", testResult(false))
	if err != nil {
		t.Fatalf("WriteMatrix() error = %v", err)
	}
	if len(keys) != 1 || keys[0] != "sites_training_data.txt" {
		t.Fatalf("keys = %v, want the single matrix key", keys)
	}

	content := string(store.objects["sites_training_data.txt"])
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("matrix lines = %d, want header plus 2 rows", len(lines))
	}
	if lines[0] != "label red nir" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "1 0.5 0.25" {
		t.Errorf("row 1 = %q", lines[1])
	}
	if lines[2] != "2 1.5 2.75" {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestWriteMatrixWithCoords(t *testing.T) {
	store := newMemStorage()
	w := NewWriter(store, &output.NoOpMetrics{}, testLogger(), Config{})

	keys, err := w.WriteMatrix(t.Context(), "sites_training_data", testResult(true))
	if err != nil {
		t.Fatalf("WriteMatrix() error = %v", err)
	}
	if len(keys) != 2 || keys[1] != "sites_training_data_coords.txt" {
		t.Fatalf("keys = %v, want matrix plus coords companion", keys)
	}

	matrix := string(store.objects["sites_training_data.txt"])
	if !strings.HasPrefix(matrix, "label red nir x_coord y_coord\n") {
		t.Errorf("matrix header = %q", strings.SplitN(matrix, "\n", 2)[0])
	}
	if !strings.Contains(matrix, "1 0.5 0.25 10 20\n") {
		t.Errorf("matrix missing coordinate columns:\n%s", matrix)
	}

	coords := string(store.objects["sites_training_data_coords.txt"])
	want := "x_coord y_coord\n10 20\n30 40\n"
	if coords != want {
		t.Errorf("coords file = %q, want %q", coords, want)
	}
}

func TestWriteMatrixPrefixAndDelimiter(t *testing.T) {
	store := newMemStorage()
	w := NewWriter(store, &output.NoOpMetrics{}, testLogger(), Config{
		Prefix:    "artifacts/2023",
		Delimiter: ",",
	})

	keys, err := w.WriteMatrix(t.Context(), "sites_training_data", testResult(false))
	if err != nil {
		t.Fatalf("WriteMatrix() error = %v", err)
	}
	if keys[0] != "artifacts/2023/sites_training_data.txt" {
		t.Errorf("key = %q, want prefixed key", keys[0])
	}

	content := string(store.objects[keys[0]])
	if !strings.HasPrefix(content, "label,red,nir\n") {
		t.Errorf("header = %q, want comma delimited", strings.SplitN(content, "\n", 2)[0])
	}
}

func TestWriteMatrixFixedPrecision(t *testing.T) {
	store := newMemStorage()
	w := NewWriter(store, &output.NoOpMetrics{}, testLogger(), Config{Precision: 3})

	_, err := w.WriteMatrix(t.Context(), "sites_training_data", testResult(false))
	if err != nil {
		t.Fatalf("WriteMatrix() error = %v", err)
	}

	content := string(store.objects["sites_training_data.txt"])
	if !strings.Contains(content, "1 0.500 0.250\n") {
		t.Errorf("expected 3-digit precision, got:\n%s", content)
	}
}

func TestWriteMatrixUploadFailure(t *testing.T) {
	store := newMemStorage()
	store.failAll = true
	w := NewWriter(store, &output.NoOpMetrics{}, testLogger(), Config{})

	_, err := w.WriteMatrix(t.Context(), "sites_training_data", testResult(false))
	var storageErr *domain.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("WriteMatrix() error = %v, want StorageError", err)
	}
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Errorf("expected the backend error to remain unwrappable")
	}
}

func TestWriteSummary(t *testing.T) {
	store := newMemStorage()
	w := NewWriter(store, &output.NoOpMetrics{}, testLogger(), Config{})

	summary := domain.RunSummary{
		RunID:      "run-1",
		Input:      "sites.geojson",
		Geometries: 3,
		Records:    2,
		Dropped:    1,
		Columns:    []string{"label", "red", "nir"},
		ZonalStat:  "mean",
		StartedAt:  time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC),
		Duration:   42 * time.Second,
	}

	key, err := w.WriteSummary(t.Context(), "sites_training_data", summary)
	if err != nil {
		t.Fatalf("WriteSummary() error = %v", err)
	}
	if key != "sites_training_data.summary.yaml" {
		t.Errorf("key = %q", key)
	}

	var decoded domain.RunSummary
	if err := yaml.Unmarshal(store.objects[key], &decoded); err != nil {
		t.Fatalf("unmarshaling summary: %v", err)
	}
	if decoded.RunID != summary.RunID || decoded.Records != summary.Records {
		t.Errorf("round-tripped summary = %+v", decoded)
	}
	if decoded.ZonalStat != "mean" {
		t.Errorf("zonal stat = %q, want mean", decoded.ZonalStat)
	}
}
