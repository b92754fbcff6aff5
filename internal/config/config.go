package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/aviation-accident-etl/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all pipeline settings, populated from environment variables.
type Config struct {
	InputDir     string
	InputPattern string
	RawColumns   []string
	DateLayout   string

	OutputDir   string
	OutputFiles map[string]string // table name -> file name inside OutputDir

	IDStrategy            string
	DeduplicateDimensions bool
	FixRouteDestination   bool
	SkipMalformedRecords  bool
	Workers               int
	Progress              bool

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	MetricsTextfile string

	// Run notification, disabled when KafkaBrokers is empty.
	KafkaBrokers []string
	KafkaTopic   string

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s"))
	if err != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	workers, err := parsePositiveInt("WORKERS", 1, 64)
	if err != nil {
		return nil, err
	}

	flags := map[string]*bool{}
	cfg := &Config{
		InputDir:     sharedcfg.EnvOrDefault("INPUT_DIR", "data/raw"),
		InputPattern: sharedcfg.EnvOrDefault("INPUT_PATTERN", "*.json"),
		RawColumns:   parseList(sharedcfg.EnvOrDefault("RAW_COLUMNS", strings.Join(domain.DefaultRawColumns, ","))),
		DateLayout:   sharedcfg.EnvOrDefault("DATE_LAYOUT", domain.DefaultDateLayout),
		OutputDir:    sharedcfg.EnvOrDefault("OUTPUT_DIR", "data/processed"),
		OutputFiles:  outputFiles(),
		IDStrategy:   sharedcfg.EnvOrDefault("ID_STRATEGY", domain.IDStrategyUUID),
		Workers:      workers,

		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),

		KafkaTopic: sharedcfg.EnvOrDefault("KAFKA_TOPIC", "aviation-etl-runs"),

		MapboxToken:     os.Getenv("MAPBOX_TOKEN"),
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
	}
	flags["DEDUPLICATE_DIMENSIONS"] = &cfg.DeduplicateDimensions
	flags["FIX_ROUTE_DESTINATION"] = &cfg.FixRouteDestination
	flags["SKIP_MALFORMED_RECORDS"] = &cfg.SkipMalformedRecords
	flags["PROGRESS"] = &cfg.Progress
	for name, dst := range flags {
		if *dst, err = parseBool(name); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(v)
	}

	cfg.MapboxEnabled = cfg.MapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		cfg.MapboxEnabled = v == "true"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.InputDir == "" {
		return errors.New("INPUT_DIR is required")
	}
	if c.OutputDir == "" {
		return errors.New("OUTPUT_DIR is required")
	}
	if _, err := filepath.Match(c.InputPattern, ""); err != nil {
		return fmt.Errorf("invalid INPUT_PATTERN: %w", err)
	}
	if len(c.RawColumns) == 0 {
		return errors.New("RAW_COLUMNS is required")
	}
	seen := make(map[string]bool, len(c.RawColumns))
	for _, col := range c.RawColumns {
		if seen[col] {
			return fmt.Errorf("RAW_COLUMNS lists %q twice", col)
		}
		seen[col] = true
	}
	if _, err := domain.NewIDGenerator(c.IDStrategy); err != nil {
		return fmt.Errorf("invalid ID_STRATEGY: %w", err)
	}
	if c.KafkaTopic == "" && len(c.KafkaBrokers) > 0 {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	if c.MapboxEnabled && c.MapboxToken == "" {
		return errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	return nil
}

// OutputPath returns the full path of a table's output file.
func (c *Config) OutputPath(table string) string {
	return filepath.Join(c.OutputDir, c.OutputFiles[table])
}

// outputFiles reads per-table file names, e.g. DIM_ROUTE_FILE=routes.parquet.
func outputFiles() map[string]string {
	files := make(map[string]string, len(domain.TableNames))
	for _, table := range domain.TableNames {
		key := strings.ToUpper(table) + "_FILE"
		files[table] = sharedcfg.EnvOrDefault(key, table+".parquet")
	}
	return files
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBool(key string) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parsePositiveInt(key string, def, maxValue int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > maxValue {
		return 0, fmt.Errorf("invalid %s: must be between 1 and %d", key, maxValue)
	}
	return n, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
