// Package config provides configuration management using Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Sampler  SamplerConfig  `mapstructure:"sampler"`
	Query    QueryConfig    `mapstructure:"query"`
	Input    InputConfig    `mapstructure:"input"`
	Output   OutputConfig   `mapstructure:"output"`
	Datacube DatacubeConfig `mapstructure:"datacube"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// SamplerConfig holds the per-geometry extraction settings.
type SamplerConfig struct {
	ZonalStat     string  `mapstructure:"zonal_stat"` // none, mean, median, max, min
	ReturnCoords  bool    `mapstructure:"return_coords"`
	Workers       int     `mapstructure:"workers"`
	Retries       int     `mapstructure:"retries"`
	NullThreshold float64 `mapstructure:"null_threshold"`
}

// QueryConfig holds the shared feature query settings.
type QueryConfig struct {
	TimeStart  string   `mapstructure:"time_start"` // YYYY-MM-DD
	TimeEnd    string   `mapstructure:"time_end"`
	Bands      []string `mapstructure:"bands"`
	Resolution float64  `mapstructure:"resolution"`
	OutputSRID int      `mapstructure:"output_srid"`
}

// InputConfig holds vector input settings.
type InputConfig struct {
	LabelField string `mapstructure:"label_field"`
	Layer      string `mapstructure:"layer"` // GeoPackage layer, empty for sole features layer
	SRID       int    `mapstructure:"srid"`  // GeoJSON coordinate SRID
}

// OutputConfig holds matrix artifact settings.
type OutputConfig struct {
	Prefix    string `mapstructure:"prefix"`
	Delimiter string `mapstructure:"delimiter"`
	Precision int    `mapstructure:"precision"`
}

// DatacubeConfig holds the feature source settings.
type DatacubeConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Product string        `mapstructure:"product"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StorageConfig holds object storage configuration.
type StorageConfig struct {
	Type      string      `mapstructure:"type"` // s3, azure, http, local
	LocalPath string      `mapstructure:"local_path"`
	S3        S3Config    `mapstructure:"s3"`
	Azure     AzureConfig `mapstructure:"azure"`
	HTTP      HTTPConfig  `mapstructure:"http"`
}

// S3Config holds AWS S3 configuration.
type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Prefix          string `mapstructure:"prefix"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// AzureConfig holds Azure Blob Storage configuration.
type AzureConfig struct {
	Container        string `mapstructure:"container"`
	AccountName      string `mapstructure:"account_name"`
	AccountKey       string `mapstructure:"account_key"`
	ConnectionString string `mapstructure:"connection_string"`
	Prefix           string `mapstructure:"prefix"`
}

// HTTPConfig holds HTTP download configuration.
type HTTPConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	IndexFile string        `mapstructure:"index_file"` // default: index.txt
	Timeout   time.Duration `mapstructure:"timeout"`
	Username  string        `mapstructure:"username"`
	Password  string        `mapstructure:"password"`
}

// WatchConfig holds watch mode configuration.
type WatchConfig struct {
	Paths    []string      `mapstructure:"paths"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// MetricsConfig holds Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, text
}

// Defaults sets the default configuration values.
func Defaults() {
	// Sampler defaults
	viper.SetDefault("sampler.zonal_stat", "none")
	viper.SetDefault("sampler.return_coords", false)
	viper.SetDefault("sampler.workers", 4)
	viper.SetDefault("sampler.retries", 2)
	viper.SetDefault("sampler.null_threshold", 0.5)

	// Query defaults
	viper.SetDefault("query.resolution", 30.0)
	viper.SetDefault("query.output_srid", 3577)

	// Input defaults
	viper.SetDefault("input.label_field", "class")
	viper.SetDefault("input.srid", 4326)

	// Output defaults
	viper.SetDefault("output.delimiter", " ")
	viper.SetDefault("output.precision", -1)

	// Datacube defaults
	viper.SetDefault("datacube.timeout", 2*time.Minute)

	// Storage defaults
	viper.SetDefault("storage.type", "local")
	viper.SetDefault("storage.local_path", "./data")
	viper.SetDefault("storage.http.index_file", "index.txt")
	viper.SetDefault("storage.http.timeout", 5*time.Minute)

	// Watch defaults
	viper.SetDefault("watch.debounce", 500*time.Millisecond)

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.host", "0.0.0.0")
	viper.SetDefault("metrics.port", 9090)
	viper.SetDefault("metrics.path", "/metrics")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// Load loads configuration from environment and config file.
func Load(configPath string) (*Config, error) {
	Defaults()

	// Environment variable binding
	viper.SetEnvPrefix("TERRASAMPLE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Config file
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/terrasample")
	}

	// Try to read config file (not required)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Sampler.Workers < 1 {
		return fmt.Errorf("sampler workers must be at least 1, got %d", c.Sampler.Workers)
	}
	if c.Sampler.Retries < 0 {
		return fmt.Errorf("sampler retries must not be negative, got %d", c.Sampler.Retries)
	}
	if c.Sampler.NullThreshold < 0 || c.Sampler.NullThreshold > 1 {
		return fmt.Errorf("null threshold must be within [0, 1], got %g", c.Sampler.NullThreshold)
	}

	switch c.Sampler.ZonalStat {
	case "", "none", "mean", "median", "max", "min":
	default:
		return fmt.Errorf("unknown zonal statistic: %s", c.Sampler.ZonalStat)
	}

	if len(c.Query.Bands) == 0 {
		return fmt.Errorf("at least one query band is required")
	}
	if c.Query.Resolution <= 0 {
		return fmt.Errorf("query resolution must be positive, got %g", c.Query.Resolution)
	}

	if c.Datacube.BaseURL == "" {
		return fmt.Errorf("datacube base URL is required")
	}

	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		return fmt.Errorf("invalid metrics port: %d", c.Metrics.Port)
	}

	switch c.Storage.Type {
	case "local":
		if c.Storage.LocalPath == "" {
			return fmt.Errorf("local storage path is required")
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required")
		}
		if c.Storage.S3.Region == "" {
			return fmt.Errorf("S3 region is required")
		}
	case "azure":
		if c.Storage.Azure.Container == "" {
			return fmt.Errorf("azure container is required")
		}
		if c.Storage.Azure.AccountName == "" && c.Storage.Azure.ConnectionString == "" {
			return fmt.Errorf("azure account name or connection string is required")
		}
	case "http":
		if c.Storage.HTTP.BaseURL == "" {
			return fmt.Errorf("HTTP base URL is required")
		}
	default:
		return fmt.Errorf("unknown storage type: %s", c.Storage.Type)
	}

	return nil
}

// TimeRange parses the configured query time range.
func (c *QueryConfig) TimeRange() (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", c.TimeStart)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing query time_start: %w", err)
	}
	end, err := time.Parse("2006-01-02", c.TimeEnd)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing query time_end: %w", err)
	}
	return start, end, nil
}
