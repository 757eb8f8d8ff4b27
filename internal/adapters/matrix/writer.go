// Package matrix writes extraction results as delimited text artifacts.
package matrix

import (
	"bytes"
	"context"
	"log/slog"
	"path"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/geolearn/terrasample/internal/domain"
	"github.com/geolearn/terrasample/internal/ports/output"
)

// Config holds matrix writer configuration.
type Config struct {
	Prefix    string // Key prefix for all artifacts
	Delimiter string // Column delimiter, default single space
	Precision int    // Fractional digits for feature values, -1 for shortest
}

// Writer implements the ArtifactWriter port: a whitespace- or
// comma-delimited text matrix with a header line in manifest order, a
// coordinate-only companion file when coordinates were requested, and a
// YAML run summary.
type Writer struct {
	storage output.ObjectStorage
	metrics output.MetricsCollector
	logger  *slog.Logger
	cfg     Config
}

// NewWriter creates a new matrix writer.
func NewWriter(storage output.ObjectStorage, metrics output.MetricsCollector, logger *slog.Logger, cfg Config) *Writer {
	if cfg.Delimiter == "" {
		cfg.Delimiter = " "
	}
	if cfg.Precision == 0 {
		cfg.Precision = -1
	}

	return &Writer{
		storage: storage,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
	}
}

// WriteMatrix writes the feature matrix and, when the manifest carries
// coordinate columns, the coordinate companion file.
func (w *Writer) WriteMatrix(ctx context.Context, name string, result *domain.ExtractionResult) ([]string, error) {
	matrixKey := w.key(name + ".txt")
	if err := w.upload(ctx, matrixKey, w.renderMatrix(result)); err != nil {
		return nil, err
	}
	keys := []string{matrixKey}

	if result.Manifest.HasCoords() {
		coordsKey := w.key(name + "_coords.txt")
		if err := w.upload(ctx, coordsKey, w.renderCoords(result)); err != nil {
			return nil, err
		}
		keys = append(keys, coordsKey)
	}

	w.logger.Info("matrix artifacts written", "keys", keys, "records", result.RecordCount())
	return keys, nil
}

// WriteSummary writes the YAML run summary.
func (w *Writer) WriteSummary(ctx context.Context, name string, summary domain.RunSummary) (string, error) {
	data, err := yaml.Marshal(summary)
	if err != nil {
		return "", err
	}

	key := w.key(name + ".summary.yaml")
	if err := w.upload(ctx, key, data); err != nil {
		return "", err
	}
	return key, nil
}

// renderMatrix renders the header and one row per record, all columns in
// manifest order.
func (w *Writer) renderMatrix(result *domain.ExtractionResult) []byte {
	var buf bytes.Buffer
	buf.WriteString(strings.Join(result.Manifest, w.cfg.Delimiter))
	buf.WriteByte('\n')

	for i := range result.Records {
		row := result.Records[i].Row()
		for c, v := range row {
			if c > 0 {
				buf.WriteString(w.cfg.Delimiter)
			}
			buf.WriteString(w.formatValue(v, c == 0))
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// renderCoords renders the coordinate-only companion file.
func (w *Writer) renderCoords(result *domain.ExtractionResult) []byte {
	var buf bytes.Buffer
	buf.WriteString(domain.ColumnXCoord + w.cfg.Delimiter + domain.ColumnYCoord + "\n")
	for i := range result.Records {
		rec := &result.Records[i]
		buf.WriteString(w.formatValue(rec.X, false))
		buf.WriteString(w.cfg.Delimiter)
		buf.WriteString(w.formatValue(rec.Y, false))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// formatValue formats one cell. Labels are integral and printed without a
// fraction; feature values use the configured precision.
func (w *Writer) formatValue(v float64, label bool) string {
	if label {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', w.cfg.Precision, 64)
}

func (w *Writer) upload(ctx context.Context, key string, data []byte) error {
	if err := w.storage.Upload(ctx, key, bytes.NewReader(data)); err != nil {
		w.metrics.IncStorageOperations("upload", false)
		return &domain.StorageError{Operation: "upload", Key: key, Err: err}
	}
	w.metrics.IncStorageOperations("upload", true)
	return nil
}

func (w *Writer) key(name string) string {
	if w.cfg.Prefix == "" {
		return name
	}
	return path.Join(w.cfg.Prefix, name)
}
