// Package main provides the entry point for the terrasample extraction tool.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/geolearn/terrasample/internal/app"
	"github.com/geolearn/terrasample/internal/config"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var cfgFile string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "terrasample",
	Short: "Terrasample - per-geometry satellite feature extraction",
	Long: `Terrasample samples satellite imagery features for labeled vector
geometries and assembles machine-learning training matrices.

Each geometry in a labeled vector collection (GeoJSON or GeoPackage) is
sampled against a data-cube feature service. Failed or excessively null
extractions are retried and eventually dropped, and the surviving
geometries are written as a deterministic label+feature text matrix.

Features:
  - Parallel per-geometry extraction with bounded retries
  - Zonal statistics (mean, median, max, min) or per-pixel records
  - Multiple storage backends (local, AWS S3, Azure, HTTP)
  - Watch mode with automatic extraction of new inputs
  - Prometheus metrics`,
}

var extractCmd = &cobra.Command{
	Use:   "extract <input>",
	Short: "Run one extraction over a labeled vector input",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch directories and extract new vector inputs",
	RunE:  runWatch,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("Terrasample %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Build Date: %s\n", buildDate)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json, text)")

	// Sampler flags
	rootCmd.PersistentFlags().String("zonal-stat", "none", "zonal statistic (none, mean, median, max, min)")
	rootCmd.PersistentFlags().Bool("return-coords", false, "append centroid coordinate columns")
	rootCmd.PersistentFlags().Int("workers", 4, "parallel extraction workers")
	rootCmd.PersistentFlags().Int("retries", 2, "retries per geometry after a failed read")
	rootCmd.PersistentFlags().Float64("null-threshold", 0.5, "maximum allowed invalid-value fraction per geometry")

	// Query flags
	rootCmd.PersistentFlags().StringSlice("bands", nil, "bands to sample")
	rootCmd.PersistentFlags().String("time-start", "", "query start date (YYYY-MM-DD)")
	rootCmd.PersistentFlags().String("time-end", "", "query end date (YYYY-MM-DD)")
	rootCmd.PersistentFlags().Float64("resolution", 30.0, "pixel resolution in output CRS units")
	rootCmd.PersistentFlags().Int("output-srid", 3577, "output spatial reference system")

	// Input flags
	rootCmd.PersistentFlags().String("label-field", "class", "attribute holding the integer class label")
	rootCmd.PersistentFlags().String("layer", "", "GeoPackage layer (default: sole features layer)")

	// Datacube flags
	rootCmd.PersistentFlags().String("datacube-url", "", "data-cube service base URL")
	rootCmd.PersistentFlags().String("product", "", "data-cube product to sample")

	// Storage flags
	rootCmd.PersistentFlags().String("storage-type", "local", "storage type (local, s3, azure, http)")
	rootCmd.PersistentFlags().String("storage-path", "./data", "local storage path")

	// Watch flags
	watchCmd.Flags().StringSlice("paths", nil, "directories to watch for vector inputs")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("sampler.zonal_stat", rootCmd.PersistentFlags().Lookup("zonal-stat"))
	_ = viper.BindPFlag("sampler.return_coords", rootCmd.PersistentFlags().Lookup("return-coords"))
	_ = viper.BindPFlag("sampler.workers", rootCmd.PersistentFlags().Lookup("workers"))
	_ = viper.BindPFlag("sampler.retries", rootCmd.PersistentFlags().Lookup("retries"))
	_ = viper.BindPFlag("sampler.null_threshold", rootCmd.PersistentFlags().Lookup("null-threshold"))
	_ = viper.BindPFlag("query.bands", rootCmd.PersistentFlags().Lookup("bands"))
	_ = viper.BindPFlag("query.time_start", rootCmd.PersistentFlags().Lookup("time-start"))
	_ = viper.BindPFlag("query.time_end", rootCmd.PersistentFlags().Lookup("time-end"))
	_ = viper.BindPFlag("query.resolution", rootCmd.PersistentFlags().Lookup("resolution"))
	_ = viper.BindPFlag("query.output_srid", rootCmd.PersistentFlags().Lookup("output-srid"))
	_ = viper.BindPFlag("input.label_field", rootCmd.PersistentFlags().Lookup("label-field"))
	_ = viper.BindPFlag("input.layer", rootCmd.PersistentFlags().Lookup("layer"))
	_ = viper.BindPFlag("datacube.base_url", rootCmd.PersistentFlags().Lookup("datacube-url"))
	_ = viper.BindPFlag("datacube.product", rootCmd.PersistentFlags().Lookup("product"))
	_ = viper.BindPFlag("storage.type", rootCmd.PersistentFlags().Lookup("storage-type"))
	_ = viper.BindPFlag("storage.local_path", rootCmd.PersistentFlags().Lookup("storage-path"))
	_ = viper.BindPFlag("watch.paths", watchCmd.Flags().Lookup("paths"))

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	config.Defaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting terrasample",
		"version", version,
		"input", args[0],
		"zonal_stat", cfg.Sampler.ZonalStat,
		"workers", cfg.Sampler.Workers,
	)

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}

	summary, err := application.RunOnce(ctx, args[0])
	if err != nil {
		return fmt.Errorf("extraction run: %w", err)
	}

	logger.Info("extraction complete",
		"run_id", summary.RunID,
		"records", summary.Records,
		"dropped", summary.Dropped,
		"duration", summary.Duration,
	)
	return nil
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting terrasample in watch mode",
		"version", version,
		"paths", cfg.Watch.Paths,
		"storage_type", cfg.Storage.Type,
	)

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}

	if err := application.StartWatch(ctx); err != nil {
		return err
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}

	logger.Info("stopped")
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(time.Now().UTC().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
