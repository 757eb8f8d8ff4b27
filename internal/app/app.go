// Package app provides application initialization and wiring.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/geolearn/terrasample/internal/adapters/datacube"
	"github.com/geolearn/terrasample/internal/adapters/geopackage"
	"github.com/geolearn/terrasample/internal/adapters/matrix"
	"github.com/geolearn/terrasample/internal/adapters/metrics"
	"github.com/geolearn/terrasample/internal/adapters/storage"
	"github.com/geolearn/terrasample/internal/adapters/vector"
	"github.com/geolearn/terrasample/internal/adapters/watcher"
	"github.com/geolearn/terrasample/internal/application"
	"github.com/geolearn/terrasample/internal/config"
	"github.com/geolearn/terrasample/internal/domain"
	"github.com/geolearn/terrasample/internal/ports/output"
)

// App holds all application components.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Storage       output.ObjectStorage
	Source        *datacube.Client
	Sampler       *application.GeometrySampler
	Extraction    *application.ExtractionService
	Watcher       *watcher.Watcher
	Metrics       *metrics.Collector
	MetricsServer *metrics.Server
}

// New creates and initializes a new application.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize metrics
	if cfg.Metrics.Enabled {
		app.Metrics = metrics.NewCollector("terrasample")
	}

	var metricsCollector output.MetricsCollector
	if app.Metrics != nil {
		metricsCollector = app.Metrics
	} else {
		metricsCollector = &output.NoOpMetrics{}
	}

	// Initialize storage adapter
	store, err := initStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	app.Storage = store

	// Initialize feature source
	app.Source = datacube.NewClient(datacube.Config{
		BaseURL: cfg.Datacube.BaseURL,
		APIKey:  cfg.Datacube.APIKey,
		Product: cfg.Datacube.Product,
		Timeout: cfg.Datacube.Timeout,
	}, logger)

	zonal, err := domain.ParseZonalStatistic(cfg.Sampler.ZonalStat)
	if err != nil {
		return nil, err
	}

	// Initialize geometry sampler
	app.Sampler = application.NewGeometrySampler(
		app.Source,
		metricsCollector,
		logger,
		application.SamplerConfig{
			ZonalStat:     zonal,
			ReturnCoords:  cfg.Sampler.ReturnCoords,
			Workers:       cfg.Sampler.Workers,
			Retries:       cfg.Sampler.Retries,
			NullThreshold: cfg.Sampler.NullThreshold,
		},
	)

	query, err := buildQuery(cfg.Query)
	if err != nil {
		return nil, err
	}

	// Initialize artifact writer
	writer := matrix.NewWriter(store, metricsCollector, logger, matrix.Config{
		Prefix:    cfg.Output.Prefix,
		Delimiter: cfg.Output.Delimiter,
		Precision: cfg.Output.Precision,
	})

	// Initialize extraction service with one reader per input format
	app.Extraction = application.NewExtractionService(
		app.Sampler,
		store,
		writer,
		metricsCollector,
		logger,
		application.ExtractionConfig{
			Query:      query,
			LabelField: cfg.Input.LabelField,
			ZonalStat:  zonal,
		},
	)

	geojsonReader := vector.NewGeoJSONReader(cfg.Input.SRID)
	app.Extraction.RegisterReader(".geojson", geojsonReader)
	app.Extraction.RegisterReader(".json", geojsonReader)
	app.Extraction.RegisterReader(".gpkg", geopackage.NewReader(cfg.Input.Layer))

	// Initialize metrics server
	if cfg.Metrics.Enabled {
		app.MetricsServer = metrics.NewServer(
			metrics.ServerConfig{
				Host: cfg.Metrics.Host,
				Port: cfg.Metrics.Port,
				Path: cfg.Metrics.Path,
			},
			app.Extraction,
			logger,
		)
	}

	// Initialize file watcher for watch mode
	if len(cfg.Watch.Paths) > 0 {
		w, err := watcher.New(
			watcher.Config{
				Paths:    cfg.Watch.Paths,
				Debounce: cfg.Watch.Debounce,
			},
			app.handleFileEvent,
			logger,
		)
		if err != nil {
			return nil, fmt.Errorf("initializing file watcher: %w", err)
		}
		app.Watcher = w
	}

	return app, nil
}

// RunOnce performs a single extraction run over the named input.
func (a *App) RunOnce(ctx context.Context, input string) (*domain.RunSummary, error) {
	return a.Extraction.Run(ctx, input)
}

// StartWatch starts watch mode: the file watcher plus the metrics and
// status server. It blocks until the context is canceled.
func (a *App) StartWatch(ctx context.Context) error {
	if a.Watcher == nil {
		return &domain.ConfigError{Field: "watch.paths", Message: "no watch paths configured"}
	}

	if err := a.Watcher.Start(ctx); err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}

	if a.MetricsServer != nil {
		go func() {
			if err := a.MetricsServer.Start(); err != nil && err != http.ErrServerClosed {
				a.Logger.Error("metrics server error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	return nil
}

// Shutdown gracefully shuts down all components.
func (a *App) Shutdown(ctx context.Context) error {
	a.Logger.Info("shutting down application")

	if a.Watcher != nil {
		_ = a.Watcher.Stop()
	}

	if a.MetricsServer != nil {
		if err := a.MetricsServer.Shutdown(ctx); err != nil {
			a.Logger.Error("metrics server shutdown error", "error", err)
		}
	}

	return nil
}

// handleFileEvent triggers an extraction run when a vector input settles.
func (a *App) handleFileEvent(ctx context.Context, event watcher.Event) error {
	a.Logger.Info("file event", "path", event.Path, "operation", event.Operation.String())

	switch event.Operation {
	case watcher.OpCreate, watcher.OpModify:
		_, err := a.Extraction.Run(ctx, event.Path)
		return err

	case watcher.OpDelete:
		// Nothing to do for removed inputs.
		return nil
	}

	return nil
}

// buildQuery assembles the shared feature query from configuration.
func buildQuery(cfg config.QueryConfig) (domain.FeatureQuery, error) {
	var start, end time.Time
	if cfg.TimeStart != "" || cfg.TimeEnd != "" {
		var err error
		start, end, err = cfg.TimeRange()
		if err != nil {
			return domain.FeatureQuery{}, err
		}
	}

	query := domain.FeatureQuery{
		TimeStart:  start,
		TimeEnd:    end,
		Bands:      cfg.Bands,
		Resolution: cfg.Resolution,
		OutputSRID: cfg.OutputSRID,
	}

	if err := query.Validate(); err != nil {
		return domain.FeatureQuery{}, err
	}
	return query, nil
}

// initStorage initializes the appropriate storage adapter.
func initStorage(ctx context.Context, cfg config.StorageConfig) (output.ObjectStorage, error) {
	switch cfg.Type {
	case "local":
		return storage.NewLocalStorage(cfg.LocalPath), nil

	case "s3":
		return storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Prefix:          cfg.S3.Prefix,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})

	case "azure":
		return storage.NewAzureStorage(storage.AzureConfig{
			Container:        cfg.Azure.Container,
			AccountName:      cfg.Azure.AccountName,
			AccountKey:       cfg.Azure.AccountKey,
			ConnectionString: cfg.Azure.ConnectionString,
			Prefix:           cfg.Azure.Prefix,
		})

	case "http":
		return storage.NewHTTPStorage(storage.HTTPConfig{
			BaseURL:   cfg.HTTP.BaseURL,
			IndexFile: cfg.HTTP.IndexFile,
			Timeout:   cfg.HTTP.Timeout,
			Username:  cfg.HTTP.Username,
			Password:  cfg.HTTP.Password,
		}), nil

	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
