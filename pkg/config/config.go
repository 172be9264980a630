package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by LoadFromEnv.
const EnvPrefix = "PAPERHARVEST_"

// Config holds all configuration options for paperharvest
type Config struct {
	Source   SourceConfig   `yaml:"source" json:"source"`
	Harvest  HarvestConfig  `yaml:"harvest" json:"harvest"`
	Retry    RetryConfig    `yaml:"retry" json:"retry"`
	Storage  StorageConfig  `yaml:"storage" json:"storage"`
	Redis    RedisConfig    `yaml:"redis" json:"redis"`
	Database DatabaseConfig `yaml:"database" json:"database"`
	Metrics  MetricsConfig  `yaml:"metrics" json:"metrics"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// SourceConfig configures the arXiv query API client
type SourceConfig struct {
	BaseURL         string        `yaml:"base_url" json:"base_url"`
	PageSize        int           `yaml:"page_size" json:"page_size"`
	RequestInterval time.Duration `yaml:"request_interval" json:"request_interval"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent       string        `yaml:"user_agent" json:"user_agent"`
}

// HarvestConfig controls unit sizing, result caps and pacing
type HarvestConfig struct {
	Granularity         string        `yaml:"granularity" json:"granularity"`
	ChunkDays           int           `yaml:"chunk_days" json:"chunk_days"`
	DayMaxResults       int           `yaml:"day_max_results" json:"day_max_results"`
	ChunkMaxResults     int           `yaml:"chunk_max_results" json:"chunk_max_results"`
	InterUnitDelayMin   time.Duration `yaml:"inter_unit_delay_min" json:"inter_unit_delay_min"`
	InterUnitDelayMax   time.Duration `yaml:"inter_unit_delay_max" json:"inter_unit_delay_max"`
	BackfillHorizonDays int           `yaml:"backfill_horizon_days" json:"backfill_horizon_days"`
	BackfillMaxUnits    int           `yaml:"backfill_max_units" json:"backfill_max_units"`
	RefetchCorrupt      bool          `yaml:"refetch_corrupt" json:"refetch_corrupt"`
}

// RetryConfig holds the per-unit retry policy
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	Backoff     time.Duration `yaml:"backoff" json:"backoff"`
}

// StorageConfig holds checkpoint and artifact locations
type StorageConfig struct {
	Backend         string      `yaml:"backend" json:"backend"`
	CheckpointDir   string      `yaml:"checkpoint_dir" json:"checkpoint_dir"`
	OutputDir       string      `yaml:"output_dir" json:"output_dir"`
	StatusFile      string      `yaml:"status_file" json:"status_file"`
	DirPermissions  os.FileMode `yaml:"dir_permissions" json:"dir_permissions"`
	FilePermissions os.FileMode `yaml:"file_permissions" json:"file_permissions"`
}

// RedisConfig configures the redis checkpoint backend
type RedisConfig struct {
	Addr      string `yaml:"addr" json:"addr"`
	Password  string `yaml:"password" json:"password"`
	DB        int    `yaml:"db" json:"db"`
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`
}

// DatabaseConfig configures the Postgres import target. URL may be left empty
// when the DSN is kept in the credential store.
type DatabaseConfig struct {
	URL             string `yaml:"url" json:"url"`
	MaxConns        int32  `yaml:"max_conns" json:"max_conns"`
	ApplicationName string `yaml:"application_name" json:"application_name"`
}

// MetricsConfig configures Prometheus export
type MetricsConfig struct {
	Textfile   string `yaml:"textfile" json:"textfile"`
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	Format  string `yaml:"format" json:"format"`
	File    string `yaml:"file" json:"file"`
	NoColor bool   `yaml:"no_color" json:"no_color"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			BaseURL:         "http://export.arxiv.org/api/query",
			PageSize:        100,
			RequestInterval: 3 * time.Second,
			Timeout:         30 * time.Second,
			UserAgent:       "paperharvest/1.0",
		},
		Harvest: HarvestConfig{
			Granularity:         "day",
			ChunkDays:           7,
			DayMaxResults:       1000,
			ChunkMaxResults:     5000,
			InterUnitDelayMin:   3 * time.Second,
			InterUnitDelayMax:   5 * time.Second,
			BackfillHorizonDays: 3650,
			BackfillMaxUnits:    90,
		},
		Retry: RetryConfig{
			MaxAttempts: 2,
			Backoff:     60 * time.Second,
		},
		Storage: StorageConfig{
			Backend:         "file",
			CheckpointDir:   "./scraping",
			OutputDir:       "./public/data",
			StatusFile:      "scraping_status.json",
			DirPermissions:  0755,
			FilePermissions: 0644,
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			KeyPrefix: "paperharvest",
		},
		Database: DatabaseConfig{
			MaxConns:        4,
			ApplicationName: "paperharvest",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadFromEnv loads configuration from PAPERHARVEST_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error
	str := func(name string, dst *string) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}

	str("SOURCE_URL", &c.Source.BaseURL)
	str("USER_AGENT", &c.Source.UserAgent)
	num("PAGE_SIZE", &c.Source.PageSize)
	dur("REQUEST_INTERVAL", &c.Source.RequestInterval)

	str("GRANULARITY", &c.Harvest.Granularity)
	num("CHUNK_DAYS", &c.Harvest.ChunkDays)
	num("DAY_MAX_RESULTS", &c.Harvest.DayMaxResults)
	num("CHUNK_MAX_RESULTS", &c.Harvest.ChunkMaxResults)
	dur("INTER_UNIT_DELAY_MIN", &c.Harvest.InterUnitDelayMin)
	dur("INTER_UNIT_DELAY_MAX", &c.Harvest.InterUnitDelayMax)

	num("MAX_ATTEMPTS", &c.Retry.MaxAttempts)
	dur("RETRY_BACKOFF", &c.Retry.Backoff)

	str("STORAGE_BACKEND", &c.Storage.Backend)
	str("CHECKPOINT_DIR", &c.Storage.CheckpointDir)
	str("OUTPUT_DIR", &c.Storage.OutputDir)

	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	num("REDIS_DB", &c.Redis.DB)

	str("DATABASE_URL", &c.Database.URL)

	str("METRICS_TEXTFILE", &c.Metrics.Textfile)
	str("METRICS_ADDR", &c.Metrics.ListenAddr)

	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)
	str("LOG_FILE", &c.Logging.File)

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file. An empty path searches
// the default locations; finding nothing there is not an error.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".paperharvest.yaml",
		".paperharvest.yml",
		filepath.Join(home, ".config", "paperharvest", "config.yaml"),
		filepath.Join(home, ".config", "paperharvest", "config.yml"),
		filepath.Join(home, ".paperharvest.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.Source.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("source base URL %q is not an absolute URL", c.Source.BaseURL))
	}
	if c.Source.PageSize <= 0 {
		errs = append(errs, errors.New("source page size must be positive"))
	}
	if c.Source.RequestInterval < 0 {
		errs = append(errs, errors.New("source request interval cannot be negative"))
	}
	if c.Source.Timeout <= 0 {
		errs = append(errs, errors.New("source timeout must be positive"))
	}

	switch c.Harvest.Granularity {
	case "day", "chunk":
	default:
		errs = append(errs, fmt.Errorf("invalid harvest granularity %q", c.Harvest.Granularity))
	}
	if c.Harvest.ChunkDays < 2 {
		errs = append(errs, errors.New("chunk days must be at least 2"))
	}
	if c.Harvest.DayMaxResults <= 0 || c.Harvest.ChunkMaxResults <= 0 {
		errs = append(errs, errors.New("result caps must be positive"))
	}
	if c.Harvest.InterUnitDelayMin < 0 || c.Harvest.InterUnitDelayMax < c.Harvest.InterUnitDelayMin {
		errs = append(errs, errors.New("inter-unit delay range is invalid"))
	}
	if c.Harvest.BackfillHorizonDays <= 0 || c.Harvest.BackfillMaxUnits <= 0 {
		errs = append(errs, errors.New("backfill horizon and max units must be positive"))
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("max attempts must be at least 1"))
	}
	if c.Retry.Backoff < 0 {
		errs = append(errs, errors.New("retry backoff cannot be negative"))
	}

	switch c.Storage.Backend {
	case "file":
		if c.Storage.CheckpointDir == "" {
			errs = append(errs, errors.New("checkpoint directory is required"))
		}
	case "redis":
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis address is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid storage backend %q", c.Storage.Backend))
	}
	if c.Storage.OutputDir == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		errs = append(errs, fmt.Errorf("invalid log format %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only non-zero values override.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["no-color"].(bool); ok && v {
		c.Logging.NoColor = true
	}
	if v, ok := flags["checkpoint-dir"].(string); ok && v != "" {
		c.Storage.CheckpointDir = v
	}
	if v, ok := flags["output-dir"].(string); ok && v != "" {
		c.Storage.OutputDir = v
	}
	if v, ok := flags["storage"].(string); ok && v != "" {
		c.Storage.Backend = v
	}
	if v, ok := flags["chunk-days"].(int); ok && v > 0 {
		c.Harvest.Granularity = "chunk"
		c.Harvest.ChunkDays = v
	}
	if v, ok := flags["max-attempts"].(int); ok && v > 0 {
		c.Retry.MaxAttempts = v
	}
	if v, ok := flags["database-url"].(string); ok && v != "" {
		c.Database.URL = v
	}
}

// Load loads configuration from all sources with proper precedence:
// flags > environment (including .env files) > config file > defaults.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".paperharvest.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
