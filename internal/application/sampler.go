// Package application contains the application services.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/geolearn/terrasample/internal/domain"
	"github.com/geolearn/terrasample/internal/ports/output"
)

// SamplerConfig holds configuration for the geometry sampler.
type SamplerConfig struct {
	// ZonalStat collapses all pixels inside a geometry to one feature
	// vector. ZonalNone emits one record per pixel instead.
	ZonalStat domain.ZonalStatistic

	// ReturnCoords appends the sampled region's centroid as two trailing
	// columns.
	ReturnCoords bool

	// Workers is the degree of parallelism. 1 runs fully sequential.
	Workers int

	// Retries is the number of resubmissions allowed per geometry after
	// a failed read.
	Retries int

	// NullThreshold is the maximum allowed fraction of NaN/Inf values in
	// an extracted result before the geometry counts as a failed read.
	NullThreshold float64
}

// GeometrySampler extracts a fixed-width feature vector per labeled
// geometry through a feature source, retrying geometries whose extraction
// produced excessive invalid data and assembling a deterministic
// label+feature matrix.
type GeometrySampler struct {
	source  output.FeatureSource
	metrics output.MetricsCollector
	logger  *slog.Logger
	cfg     SamplerConfig
}

// NewGeometrySampler creates a new geometry sampler.
func NewGeometrySampler(
	source output.FeatureSource,
	metrics output.MetricsCollector,
	logger *slog.Logger,
	cfg SamplerConfig,
) *GeometrySampler {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.ZonalStat == "" {
		cfg.ZonalStat = domain.ZonalNone
	}

	return &GeometrySampler{
		source:  source,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
	}
}

// extractJob is one unit of work: a geometry index and its attempt number.
type extractJob struct {
	index   int
	attempt int // 1-based
}

// extractOutcome is the result of processing one job.
type extractOutcome struct {
	index   int
	attempt int
	records []domain.SampleRecord
	bands   []string
	readErr *domain.ReadError
	fatal   error
}

// Extract samples every geometry against the shared query.
//
// Completion order across workers is unconstrained, but the assembled
// result is reordered to input geometry order, so repeated runs over the
// same input produce identical output for any worker count.
func (s *GeometrySampler) Extract(ctx context.Context, geometries []domain.LabeledGeometry, query domain.FeatureQuery) (*domain.ExtractionResult, error) {
	start := time.Now()

	if err := s.validate(geometries, &query); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	n := len(geometries)
	maxJobs := n * (s.cfg.Retries + 1)

	// Both channels are sized so that neither workers nor the dispatcher
	// can ever block on a send, which keeps resubmission deadlock-free.
	jobs := make(chan extractJob, maxJobs)
	outcomes := make(chan extractOutcome, maxJobs)

	var wg sync.WaitGroup
	for w := 0; w < s.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				outcomes <- s.processJob(ctx, j, geometries[j.index], query)
			}
		}()
	}

	for i := range geometries {
		jobs <- extractJob{index: i, attempt: 1}
	}

	perGeometry := make([][]domain.SampleRecord, n)
	dropped := 0
	var manifest domain.Manifest
	var runErr error

	// Single collector loop: it alone decides retries, owns the manifest
	// and accumulates results, so workers share no mutable state.
	pending := n
	for pending > 0 {
		out := <-outcomes

		switch {
		case out.fatal != nil:
			if runErr == nil {
				runErr = out.fatal
				cancel()
			}
			pending--

		case out.readErr != nil:
			if runErr == nil && out.attempt <= s.cfg.Retries {
				s.logger.Warn("read failure, resubmitting geometry",
					"geometry", out.index,
					"attempt", out.attempt,
					"error", out.readErr,
				)
				s.metrics.IncRetry()
				s.metrics.IncGeometry(output.OutcomeRetried)
				jobs <- extractJob{index: out.index, attempt: out.attempt + 1}
				continue
			}
			if runErr == nil {
				s.logger.Warn("dropping geometry after exhausted retries",
					"geometry", out.index,
					"attempts", out.attempt,
					"error", out.readErr,
				)
			}
			s.metrics.IncGeometry(output.OutcomeDropped)
			dropped++
			pending--

		default:
			if err := s.adoptManifest(&manifest, out); err != nil {
				if runErr == nil {
					runErr = err
					cancel()
				}
			} else {
				perGeometry[out.index] = out.records
				s.metrics.IncGeometry(output.OutcomeSuccess)
			}
			pending--
		}
	}

	close(jobs)
	wg.Wait()

	if runErr != nil {
		return nil, runErr
	}

	result := &domain.ExtractionResult{
		Manifest: manifest,
		Dropped:  dropped,
		Duration: time.Since(start),
	}
	for i := range perGeometry {
		result.Records = append(result.Records, perGeometry[i]...)
	}

	s.metrics.ObserveRunDuration(result.Duration)
	s.metrics.SetRunTotals(len(result.Records), dropped)
	s.logger.Info("extraction complete",
		"geometries", n,
		"records", len(result.Records),
		"dropped", dropped,
		"duration", result.Duration,
	)

	return result, nil
}

// validate rejects caller errors before any extraction work starts.
func (s *GeometrySampler) validate(geometries []domain.LabeledGeometry, query *domain.FeatureQuery) error {
	if len(geometries) == 0 {
		return domain.ErrNoGeometries
	}
	for i := range geometries {
		if geometries[i].IsEmpty() {
			return &domain.ConfigError{
				Field:   "geometries",
				Message: "geometry without vertices in collection",
			}
		}
	}
	if s.cfg.NullThreshold < 0 || s.cfg.NullThreshold > 1 {
		return &domain.ConfigError{
			Field:   "null_threshold",
			Message: "threshold must be within [0, 1]",
		}
	}
	return query.Validate()
}

// adoptManifest fixes the run manifest from the first successful
// extraction and rejects any later band-set divergence.
func (s *GeometrySampler) adoptManifest(manifest *domain.Manifest, out extractOutcome) error {
	if *manifest == nil {
		*manifest = domain.NewManifest(out.bands, s.cfg.ReturnCoords)
		return nil
	}
	if !bandsEqual((*manifest).Bands(), out.bands) {
		return &domain.ContractError{
			GeometryIndex: out.index,
			Message:       "band set differs from run manifest",
		}
	}
	return nil
}

// processJob extracts one geometry. Read failures are reported as
// retryable outcomes; contract violations and context cancellation are
// fatal to the run.
func (s *GeometrySampler) processJob(ctx context.Context, j extractJob, geom domain.LabeledGeometry, query domain.FeatureQuery) extractOutcome {
	start := time.Now()
	defer func() {
		s.metrics.ObserveGeometryDuration(time.Since(start))
	}()

	if err := ctx.Err(); err != nil {
		return extractOutcome{index: j.index, attempt: j.attempt, fatal: fmt.Errorf("%w: %w", domain.ErrRunAborted, err)}
	}

	region := geom.Bounds()
	if region.Width() == 0 && region.Height() == 0 {
		// A point's extent is degenerate; pad it to one pixel.
		region = region.Buffer(query.Resolution / 2)
	}

	grid, err := s.source.Extract(ctx, query.WithRegion(region))
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return extractOutcome{index: j.index, attempt: j.attempt, fatal: fmt.Errorf("%w: %w", domain.ErrRunAborted, cerr)}
		}
		return extractOutcome{
			index:   j.index,
			attempt: j.attempt,
			readErr: &domain.ReadError{GeometryIndex: j.index, Attempt: j.attempt, Err: err},
		}
	}

	if err := grid.Validate(); err != nil {
		if cerr, ok := err.(*domain.ContractError); ok {
			cerr.GeometryIndex = j.index
		}
		return extractOutcome{index: j.index, attempt: j.attempt, fatal: err}
	}

	records := s.buildRecords(j.index, geom, grid)

	// A fully invalid result is a failed read even at the maximum
	// threshold: it carries no usable feature values.
	fraction := recordInvalidFraction(records)
	if fraction >= 1 || fraction > s.cfg.NullThreshold {
		return extractOutcome{
			index:   j.index,
			attempt: j.attempt,
			readErr: &domain.ReadError{
				GeometryIndex: j.index,
				Attempt:       j.attempt,
				NullFraction:  fraction,
			},
		}
	}

	s.logger.Debug("geometry sampled",
		"geometry", j.index,
		"attempt", j.attempt,
		"records", len(records),
		"invalid_fraction", fraction,
	)

	return extractOutcome{
		index:   j.index,
		attempt: j.attempt,
		records: records,
		bands:   grid.BandNames(),
	}
}

// buildRecords turns a grid into sample records: one aggregated record per
// geometry, or one record per pixel when no zonal statistic is set. Rows
// keep whatever invalid values survive the threshold; nothing is imputed.
func (s *GeometrySampler) buildRecords(index int, geom domain.LabeledGeometry, grid *domain.FeatureGrid) []domain.SampleRecord {
	centroid := grid.Centroid()

	if !s.cfg.ZonalStat.IsNone() {
		features := make([]float64, len(grid.Bands))
		for b, band := range grid.Bands {
			features[b] = s.cfg.ZonalStat.Reduce(band.Values)
		}
		return []domain.SampleRecord{{
			GeometryIndex: index,
			Label:         geom.Label,
			Features:      features,
			X:             centroid.X,
			Y:             centroid.Y,
			HasCoords:     s.cfg.ReturnCoords,
		}}
	}

	size := grid.SpatialSize()
	records := make([]domain.SampleRecord, 0, size)
	for px := 0; px < size; px++ {
		features := make([]float64, len(grid.Bands))
		for b, band := range grid.Bands {
			features[b] = band.Values[px]
		}
		records = append(records, domain.SampleRecord{
			GeometryIndex: index,
			Label:         geom.Label,
			Features:      features,
			X:             centroid.X,
			Y:             centroid.Y,
			HasCoords:     s.cfg.ReturnCoords,
		})
	}
	return records
}

// recordInvalidFraction computes the NaN/Inf fraction across all feature
// values of the built records. Every record of a geometry has the same
// feature width, so the mean of the per-record fractions equals the
// fraction over all values.
func recordInvalidFraction(records []domain.SampleRecord) float64 {
	if len(records) == 0 {
		return 1
	}
	sum := 0.0
	for i := range records {
		sum += domain.InvalidFraction(records[i].Features)
	}
	return sum / float64(len(records))
}

// bandsEqual compares two band lists for exact order and content.
func bandsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
