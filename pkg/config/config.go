package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/symbolgraph/pkg/catalog"
	"github.com/platinummonkey/symbolgraph/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Conversion inputs
	Convert ConvertConfig

	// Preview server configuration
	Preview PreviewConfig

	// Object storage publishing
	Publish PublishConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ConvertConfig holds the settings consumed by a conversion run
type ConvertConfig struct {
	Input            string
	ModuleName       string
	BaseURL          string
	IncludeExamples  bool
	Overwrite        bool
	OutputDir        string
	IdentifierPrefix string
	MetricsFile      string

	// Debounce is how long watch mode waits for writes to settle
	Debounce time.Duration
}

// PreviewConfig holds preview server configuration
type PreviewConfig struct {
	Addr            string
	CatalogDir      string
	CacheSize       int
	CacheTTL        time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// PublishConfig holds S3-compatible storage settings
type PublishConfig struct {
	CatalogDir   string
	Bucket       string
	Prefix       string
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel
	LogJSON  bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// LoadConfig loads configuration from SYMBOLGRAPH_* environment variables.
// Command flags are applied on top and checked with the per-command
// validators.
func LoadConfig() (*Config, error) {
	obs, err := loadObservabilityConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Convert:       loadConvertConfig(),
		Preview:       loadPreviewConfig(),
		Publish:       loadPublishConfig(),
		Observability: obs,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadConvertConfig() ConvertConfig {
	return ConvertConfig{
		Input:            getEnv("SYMBOLGRAPH_INPUT", ""),
		ModuleName:       getEnv("SYMBOLGRAPH_MODULE", ""),
		BaseURL:          getEnv("SYMBOLGRAPH_BASE_URL", ""),
		IncludeExamples:  getEnvBool("SYMBOLGRAPH_INCLUDE_EXAMPLES", false),
		Overwrite:        getEnvBool("SYMBOLGRAPH_OVERWRITE", false),
		OutputDir:        getEnv("SYMBOLGRAPH_OUTPUT_DIR", "."),
		IdentifierPrefix: getEnv("SYMBOLGRAPH_IDENTIFIER_PREFIX", "s"),
		MetricsFile:      getEnv("SYMBOLGRAPH_METRICS_FILE", ""),
		Debounce:         getEnvDuration("SYMBOLGRAPH_WATCH_DEBOUNCE", 200*time.Millisecond),
	}
}

func loadPreviewConfig() PreviewConfig {
	return PreviewConfig{
		Addr:            getEnv("SYMBOLGRAPH_ADDR", ":8080"),
		CatalogDir:      getEnv("SYMBOLGRAPH_CATALOG", ""),
		CacheSize:       getEnvInt("SYMBOLGRAPH_CACHE_SIZE", 256),
		CacheTTL:        getEnvDuration("SYMBOLGRAPH_CACHE_TTL", 5*time.Minute),
		ReadTimeout:     getEnvDuration("SYMBOLGRAPH_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("SYMBOLGRAPH_WRITE_TIMEOUT", 15*time.Second),
		ShutdownTimeout: getEnvDuration("SYMBOLGRAPH_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func loadPublishConfig() PublishConfig {
	return PublishConfig{
		CatalogDir:   getEnv("SYMBOLGRAPH_CATALOG", ""),
		Bucket:       getEnv("SYMBOLGRAPH_S3_BUCKET", ""),
		Prefix:       getEnv("SYMBOLGRAPH_S3_PREFIX", ""),
		Region:       getEnv("SYMBOLGRAPH_S3_REGION", "us-east-1"),
		Endpoint:     getEnv("SYMBOLGRAPH_S3_ENDPOINT", ""),
		AccessKey:    getEnv("SYMBOLGRAPH_S3_ACCESS_KEY", ""),
		SecretKey:    getEnv("SYMBOLGRAPH_S3_SECRET_KEY", ""),
		UsePathStyle: getEnvBool("SYMBOLGRAPH_S3_USE_PATH_STYLE", false),
	}
}

func loadObservabilityConfig() (ObservabilityConfig, error) {
	level, err := observability.ParseLogLevel(getEnv("SYMBOLGRAPH_LOG_LEVEL", "info"))
	if err != nil {
		return ObservabilityConfig{}, err
	}

	return ObservabilityConfig{
		LogLevel:           level,
		LogJSON:            getEnvBool("SYMBOLGRAPH_LOG_JSON", false),
		OTelEnabled:        getEnvBool("SYMBOLGRAPH_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("SYMBOLGRAPH_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("SYMBOLGRAPH_OTEL_SERVICE_NAME", "symbolgraph"),
		OTelServiceVersion: getEnv("SYMBOLGRAPH_OTEL_SERVICE_VERSION", "dev"),
		OTelInsecure:       getEnvBool("SYMBOLGRAPH_OTEL_INSECURE", true),
	}, nil
}

// OTel converts the observability settings for observability.InitOTel
func (o ObservabilityConfig) OTel() observability.OTelConfig {
	return observability.OTelConfig{
		Enabled:        o.OTelEnabled,
		Endpoint:       o.OTelEndpoint,
		ServiceName:    o.OTelServiceName,
		ServiceVersion: o.OTelServiceVersion,
		Insecure:       o.OTelInsecure,
	}
}

// Validate checks the settings shared by every command
func (c *Config) Validate() error {
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}
	if c.Preview.CacheSize < 0 {
		return fmt.Errorf("cache size must not be negative: %d", c.Preview.CacheSize)
	}
	return nil
}

// Validate checks the settings a conversion needs
func (c ConvertConfig) Validate() error {
	if c.Input == "" {
		return errors.New("input file is required")
	}
	if c.OutputDir == "" {
		return errors.New("output directory is required")
	}
	if c.ModuleName != "" {
		if err := catalog.ValidateModuleName(c.ModuleName); err != nil {
			return err
		}
	}
	if c.IdentifierPrefix == "" {
		return errors.New("identifier prefix must not be empty")
	}
	if strings.ContainsAny(c.IdentifierPrefix, ":/") {
		return fmt.Errorf("identifier prefix %q must not contain ':' or '/'", c.IdentifierPrefix)
	}
	if c.BaseURL != "" && !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("base URL %q must start with http:// or https://", c.BaseURL)
	}
	return nil
}

// Validate checks the settings the preview server needs
func (c PreviewConfig) Validate() error {
	if c.CatalogDir == "" {
		return errors.New("catalog directory is required")
	}
	if c.Addr == "" {
		return errors.New("listen address is required")
	}
	return nil
}

// Validate checks the settings publishing needs
func (c PublishConfig) Validate() error {
	if c.CatalogDir == "" {
		return errors.New("catalog directory is required")
	}
	if c.Bucket == "" {
		return errors.New("bucket is required")
	}
	if (c.AccessKey == "") != (c.SecretKey == "") {
		return errors.New("access key and secret key must be set together")
	}
	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
