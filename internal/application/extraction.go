package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/geolearn/terrasample/internal/domain"
	"github.com/geolearn/terrasample/internal/ports/input"
	"github.com/geolearn/terrasample/internal/ports/output"
)

// ExtractionConfig holds configuration for the extraction service.
type ExtractionConfig struct {
	Query      domain.FeatureQuery // Shared query, one per run
	LabelField string              // Attribute holding the integer class label
	ZonalStat  domain.ZonalStatistic
	WorkDir    string // Scratch directory for downloaded inputs
}

// ExtractionService runs end-to-end extractions: load a labeled vector
// collection, sample it through the geometry sampler and persist the
// resulting artifacts.
type ExtractionService struct {
	sampler input.Sampler
	storage output.ObjectStorage
	writer  output.ArtifactWriter
	metrics output.MetricsCollector
	logger  *slog.Logger
	cfg     ExtractionConfig

	mu      sync.RWMutex
	readers map[string]output.VectorReader
	lastRun *domain.RunSummary
}

// NewExtractionService creates a new extraction service.
func NewExtractionService(
	sampler input.Sampler,
	storage output.ObjectStorage,
	writer output.ArtifactWriter,
	metrics output.MetricsCollector,
	logger *slog.Logger,
	cfg ExtractionConfig,
) *ExtractionService {
	if cfg.LabelField == "" {
		cfg.LabelField = "class"
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = os.TempDir()
	}

	return &ExtractionService{
		sampler: sampler,
		storage: storage,
		writer:  writer,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		readers: make(map[string]output.VectorReader),
	}
}

// RegisterReader registers a vector reader for a file extension
// (including the leading dot, e.g. ".geojson").
func (s *ExtractionService) RegisterReader(ext string, reader output.VectorReader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readers[strings.ToLower(ext)] = reader
}

// Run performs one extraction run over the named vector input.
func (s *ExtractionService) Run(ctx context.Context, inputName string) (*domain.RunSummary, error) {
	runID := uuid.NewString()
	started := time.Now()

	s.logger.Info("starting extraction run",
		"run_id", runID,
		"input", inputName,
		"label_field", s.cfg.LabelField,
	)

	path, err := s.localize(ctx, inputName)
	if err != nil {
		return nil, err
	}

	reader, err := s.readerFor(path)
	if err != nil {
		return nil, err
	}

	geometries, err := reader.Read(ctx, path, s.cfg.LabelField)
	if err != nil {
		return nil, err
	}
	s.logger.Info("vector collection loaded",
		"run_id", runID,
		"geometries", len(geometries),
	)

	result, err := s.sampler.Extract(ctx, geometries, s.cfg.Query)
	if err != nil {
		return nil, err
	}

	name := artifactName(inputName)
	keys, err := s.writer.WriteMatrix(ctx, name, result)
	if err != nil {
		return nil, err
	}

	summary := domain.RunSummary{
		RunID:      runID,
		Input:      inputName,
		Geometries: len(geometries),
		Records:    result.RecordCount(),
		Dropped:    result.Dropped,
		Columns:    result.Manifest,
		ZonalStat:  string(s.cfg.ZonalStat),
		StartedAt:  started,
		Duration:   time.Since(started),
	}
	if _, err := s.writer.WriteSummary(ctx, name, summary); err != nil {
		s.logger.Warn("failed to write run summary", "run_id", runID, "error", err)
	}

	s.mu.Lock()
	s.lastRun = &summary
	s.mu.Unlock()

	s.logger.Info("extraction run complete",
		"run_id", runID,
		"records", summary.Records,
		"dropped", summary.Dropped,
		"artifacts", keys,
		"duration", summary.Duration,
	)

	return &summary, nil
}

// LastRun returns the summary of the most recent completed run.
func (s *ExtractionService) LastRun() (domain.RunSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastRun == nil {
		return domain.RunSummary{}, false
	}
	return *s.lastRun, true
}

// localize resolves the input to a local file path, downloading it from
// object storage when it is not already on disk.
func (s *ExtractionService) localize(ctx context.Context, inputName string) (string, error) {
	if _, err := os.Stat(inputName); err == nil {
		return inputName, nil
	}
	if s.storage == nil {
		return "", &domain.VectorError{Path: inputName, Err: domain.ErrNotFound}
	}

	exists, err := s.storage.Exists(ctx, inputName)
	if err != nil {
		s.metrics.IncStorageOperations("exists", false)
		return "", &domain.StorageError{
			Operation: "exists",
			Key:       inputName,
			Err:       fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err),
		}
	}
	if !exists {
		return "", &domain.VectorError{Path: inputName, Err: domain.ErrNotFound}
	}

	dest := filepath.Join(s.cfg.WorkDir, filepath.Base(inputName))
	if err := s.storage.Download(ctx, inputName, dest); err != nil {
		s.metrics.IncStorageOperations("download", false)
		return "", &domain.StorageError{
			Operation: "download",
			Key:       inputName,
			Err:       fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err),
		}
	}
	s.metrics.IncStorageOperations("download", true)
	return dest, nil
}

// readerFor selects a vector reader by file extension.
func (s *ExtractionService) readerFor(path string) (output.VectorReader, error) {
	ext := strings.ToLower(filepath.Ext(path))

	s.mu.RLock()
	reader, ok := s.readers[ext]
	s.mu.RUnlock()

	if !ok {
		return nil, &domain.ConfigError{
			Field:   "input",
			Message: "no vector reader registered for extension " + ext,
		}
	}
	return reader, nil
}

// artifactName derives the artifact base name from the input file name.
func artifactName(inputName string) string {
	base := filepath.Base(inputName)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "_training_data"
}
