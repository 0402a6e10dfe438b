package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/kode4food/tartan/pkg/api"
)

type (
	// Config holds configuration settings for the orchestrator
	Config struct {
		// API Server
		APIHost  string
		APIPort  int
		LogLevel string

		// Stores
		Redis             RedisConfig
		FlowBucketURL     string
		ArtifactBucketURL string

		// Execution Units
		ExecutorBaseURL     string
		ExecutorTimeout     int64
		ExecutorMaxResponse int64

		// Work & Retry
		Work api.WorkConfig

		// Engine
		GraphCacheSize  int
		ShutdownTimeout time.Duration
	}

	// RedisConfig locates the Redis instance backing the project, artifact,
	// and checkpoint stores
	RedisConfig struct {
		Addr     string
		Password string
		Prefix   string
		DB       int
	}
)

const (
	DefaultExecutorTimeout     = 30 * api.Second
	DefaultExecutorMaxResponse = 16 << 20
	DefaultShutdownTimeout     = 10 * time.Second

	DefaultAPIPort = 8080
	DefaultAPIHost = "0.0.0.0"
	MaxTCPPort     = 65535

	DefaultRedisEndpoint = "localhost:6379"
	DefaultRedisPrefix   = "tartan"
	DefaultRedisDB       = 0
	MaxRedisDB           = 15

	DefaultFlowBucketURL     = "file:///var/lib/tartan/flows"
	DefaultArtifactBucketURL = "file:///var/lib/tartan/artifacts"
	DefaultExecutorBaseURL   = "http://localhost:8081/units"

	DefaultGraphCacheSize = 1024

	DefaultRetryMaxRetries  = 3
	DefaultRetryInitBackoff = 1000
	DefaultMaxRetryBackoff  = 60000
	DefaultRetryBackoffType = api.BackoffTypeExponential

	MaxGraphCacheSize   = 1_000_000
	MaxRetryMaxRetries  = 1000
	MaxExecutorTimeout  = 24 * api.Hour
	MaxExecutorResponse = 1 << 30
	MaxRetryInitBackoff = 24 * 60 * api.Minute // 1 day in ms
	MaxRetryMaxBackoff  = MaxRetryInitBackoff
)

var (
	ErrInvalidAPIPort         = errors.New("invalid API port")
	ErrInvalidExecutorTimeout = errors.New(
		"executor timeout must be positive",
	)
	ErrExecutorBaseURLEmpty   = errors.New("executor base URL empty")
	ErrInvalidExecutorMaxBody = errors.New(
		"executor max response must be positive",
	)
	ErrBucketURLEmpty  = errors.New("bucket URL empty")
	ErrRedisAddrEmpty  = errors.New("redis address empty")
	ErrInvalidLogLevel = errors.New("invalid log level")

	ErrInvalidRetryMaxRetries = errors.New(
		"retry max retries must be positive",
	)
	ErrInvalidRetryInitBackoff = errors.New(
		"retry initial backoff must be positive",
	)
	ErrInvalidRetryMaxBackoff = errors.New(
		"retry max backoff must be positive",
	)
	ErrRetryMaxBackoffTooSmall = errors.New(
		"retry max backoff must be >= retry initial backoff",
	)
	ErrInvalidRetryBackoffType = errors.New("invalid retry backoff type")
)

var logLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// NewDefaultConfig creates a configuration with sensible defaults for the
// server, stores, execution units, and retry behavior
func NewDefaultConfig() *Config {
	return &Config{
		APIPort: DefaultAPIPort,
		APIHost: DefaultAPIHost,
		Redis: RedisConfig{
			Addr:   DefaultRedisEndpoint,
			Prefix: DefaultRedisPrefix,
			DB:     DefaultRedisDB,
		},
		FlowBucketURL:       DefaultFlowBucketURL,
		ArtifactBucketURL:   DefaultArtifactBucketURL,
		ExecutorBaseURL:     DefaultExecutorBaseURL,
		ExecutorTimeout:     DefaultExecutorTimeout,
		ExecutorMaxResponse: DefaultExecutorMaxResponse,
		Work: api.WorkConfig{
			MaxRetries:  DefaultRetryMaxRetries,
			InitBackoff: DefaultRetryInitBackoff,
			MaxBackoff:  DefaultMaxRetryBackoff,
			BackoffType: DefaultRetryBackoffType,
		},
		GraphCacheSize:  DefaultGraphCacheSize,
		ShutdownTimeout: DefaultShutdownTimeout,
		LogLevel:        "info",
	}
}

// LoadFromEnv populates configuration values from environment variables.
// Returns an error if any env var cannot be parsed.
func (c *Config) LoadFromEnv() error {
	loadEnvString("API_HOST", &c.APIHost)
	loadEnvString("LOG_LEVEL", &c.LogLevel)
	loadEnvString("REDIS_ADDR", &c.Redis.Addr)
	loadEnvString("REDIS_PASSWORD", &c.Redis.Password)
	loadEnvString("REDIS_PREFIX", &c.Redis.Prefix)
	loadEnvString("FLOW_BUCKET_URL", &c.FlowBucketURL)
	loadEnvString("ARTIFACT_BUCKET_URL", &c.ArtifactBucketURL)
	loadEnvString("EXECUTOR_BASE_URL", &c.ExecutorBaseURL)
	loadEnvString("RETRY_BACKOFF_TYPE", &c.Work.BackoffType)

	if err := loadEnvInt("API_PORT", &c.APIPort, 0, MaxTCPPort); err != nil {
		return err
	}
	if err := loadEnvInt(
		"REDIS_DB", &c.Redis.DB, -1, MaxRedisDB,
	); err != nil {
		return err
	}
	if err := loadEnvInt(
		"EXECUTOR_TIMEOUT", &c.ExecutorTimeout, 0, MaxExecutorTimeout,
	); err != nil {
		return err
	}
	if err := loadEnvInt(
		"EXECUTOR_MAX_RESPONSE_BYTES", &c.ExecutorMaxResponse,
		0, MaxExecutorResponse,
	); err != nil {
		return err
	}
	if err := loadEnvInt(
		"GRAPH_CACHE_SIZE", &c.GraphCacheSize, 0, MaxGraphCacheSize,
	); err != nil {
		return err
	}

	if err := loadEnvInt(
		"RETRY_MAX_RETRIES", &c.Work.MaxRetries, 0, MaxRetryMaxRetries,
	); err != nil {
		return err
	}
	if err := loadEnvInt(
		"RETRY_INITIAL_BACKOFF", &c.Work.InitBackoff, 0, MaxRetryInitBackoff,
	); err != nil {
		return err
	}
	if err := loadEnvInt(
		"RETRY_MAX_BACKOFF", &c.Work.MaxBackoff, 0, MaxRetryMaxBackoff,
	); err != nil {
		return err
	}

	return nil
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > MaxTCPPort {
		return fmt.Errorf("%w: %d", ErrInvalidAPIPort, c.APIPort)
	}

	if !logLevels[c.LogLevel] {
		return fmt.Errorf("%w: %s", ErrInvalidLogLevel, c.LogLevel)
	}

	if c.Redis.Addr == "" {
		return ErrRedisAddrEmpty
	}

	if c.FlowBucketURL == "" || c.ArtifactBucketURL == "" {
		return ErrBucketURLEmpty
	}

	if c.ExecutorBaseURL == "" {
		return ErrExecutorBaseURLEmpty
	}

	if c.ExecutorTimeout <= 0 {
		return ErrInvalidExecutorTimeout
	}

	if c.ExecutorMaxResponse <= 0 {
		return ErrInvalidExecutorMaxBody
	}

	return c.validateWork()
}

func (c *Config) validateWork() error {
	if c.Work.MaxRetries <= 0 {
		return ErrInvalidRetryMaxRetries
	}

	if c.Work.InitBackoff <= 0 {
		return ErrInvalidRetryInitBackoff
	}

	if c.Work.MaxBackoff <= 0 {
		return ErrInvalidRetryMaxBackoff
	}

	if c.Work.MaxBackoff < c.Work.InitBackoff {
		return ErrRetryMaxBackoffTooSmall
	}

	if !api.IsValidBackoffType(c.Work.BackoffType) {
		return fmt.Errorf("%w: %s",
			ErrInvalidRetryBackoffType, c.Work.BackoffType)
	}

	return nil
}

func loadEnvString(key string, dst *string) {
	if s := os.Getenv(key); s != "" {
		*dst = s
	}
}

// loadEnvInt reads key from the environment, parses it as an integer, and
// sets *dst if the value is in the range (min, max]. Returns an error if
// the value cannot be parsed or falls outside the valid range.
func loadEnvInt[T ~int | ~int64](key string, dst *T, min, max T) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	tv := T(v)
	if tv <= min || tv > max {
		return fmt.Errorf("invalid %s: %d out of range [%d, %d]",
			key, tv, min+1, max)
	}
	*dst = tv
	return nil
}
