// Package config assembles the runtime settings of the sitepins server and
// CLI from defaults, an optional JSON file, SITEPINS_* environment
// variables and command-line flags, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dmitrijs2005/sitepins/internal/remotestore"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds runtime settings.
//
// Fields:
//   - HTTPAddr: bind address of the HTTP API.
//   - GRPCHealthAddr: bind address of the gRPC health service; empty disables it.
//   - LocalDSN: SQLite DSN of the local store, or "memory".
//   - StorageKey: key of the local state blob.
//   - CompressLocal: store the blob zstd-compressed.
//   - Remote: remote document store and write-behind queue settings.
type Config struct {
	HTTPAddr        string        `env:"SITEPINS_HTTP_ADDR"`
	GRPCHealthAddr  string        `env:"SITEPINS_GRPC_ADDR"`
	LocalDSN        string        `env:"SITEPINS_LOCAL_DSN"`
	StorageKey      string        `env:"SITEPINS_STORAGE_KEY"`
	CompressLocal   bool          `env:"SITEPINS_COMPRESS"`
	LogLevel        string        `env:"SITEPINS_LOG_LEVEL"`
	MetricsEnabled  bool          `env:"SITEPINS_METRICS"`
	CORSOrigins     []string      `env:"SITEPINS_CORS_ORIGINS" env-separator:","`
	ShutdownTimeout time.Duration `env:"SITEPINS_SHUTDOWN_TIMEOUT"`
	Remote          RemoteConfig
}

type RemoteConfig struct {
	Backend     string        `env:"SITEPINS_REMOTE_BACKEND"`
	PostgresDSN string        `env:"SITEPINS_REMOTE_DSN"`
	S3Bucket    string        `env:"SITEPINS_S3_BUCKET"`
	S3Region    string        `env:"SITEPINS_S3_REGION"`
	S3Endpoint  string        `env:"SITEPINS_S3_ENDPOINT"`
	S3AccessKey string        `env:"SITEPINS_S3_ACCESS_KEY"`
	S3SecretKey string        `env:"SITEPINS_S3_SECRET_KEY"`
	S3Prefix    string        `env:"SITEPINS_S3_PREFIX"`
	QueueSize   int           `env:"SITEPINS_QUEUE_SIZE"`
	Retries     uint64        `env:"SITEPINS_REMOTE_RETRIES"`
	RetryDelay  time.Duration `env:"SITEPINS_REMOTE_RETRY_DELAY"`
	Timeout     time.Duration `env:"SITEPINS_REMOTE_TIMEOUT"`
}

// Store converts the remote settings into remotestore.Config.
func (r RemoteConfig) Store() remotestore.Config {
	return remotestore.Config{
		Backend:     r.Backend,
		PostgresDSN: r.PostgresDSN,
		S3: remotestore.S3Config{
			Bucket:       r.S3Bucket,
			Region:       r.S3Region,
			BaseEndpoint: r.S3Endpoint,
			AccessKey:    r.S3AccessKey,
			SecretKey:    r.S3SecretKey,
			Prefix:       r.S3Prefix,
		},
	}
}

// LoadDefaults populates Config with development defaults: a local SQLite
// file and no remote store.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.GRPCHealthAddr = ":50051"
	c.LocalDSN = "sitepins.db"
	c.StorageKey = "pont_du_gard_points_v8"
	c.CompressLocal = false
	c.LogLevel = "info"
	c.MetricsEnabled = true
	c.CORSOrigins = []string{"*"}
	c.ShutdownTimeout = 10 * time.Second
	c.Remote = RemoteConfig{
		Backend:    remotestore.BackendNone,
		S3Region:   "us-east-1",
		S3Prefix:   "sitepins",
		QueueSize:  256,
		Retries:    0,
		RetryDelay: 500 * time.Millisecond,
		Timeout:    10 * time.Second,
	}
}

var logLevels = []string{"debug", "info", "warn", "error"}

// Validate checks that the selected remote backend has what it needs and
// that numeric settings are in range.
func (c *Config) Validate() error {
	if c.StorageKey == "" {
		return fmt.Errorf("%w: storage key is empty", ErrInvalidConfig)
	}
	if !slices.Contains(logLevels, c.LogLevel) {
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.LogLevel)
	}

	r := c.Remote
	switch r.Backend {
	case "", remotestore.BackendNone, remotestore.BackendMemory:
	case remotestore.BackendPostgres:
		if r.PostgresDSN == "" {
			return fmt.Errorf("%w: postgres backend needs a DSN", ErrInvalidConfig)
		}
	case remotestore.BackendS3:
		if r.S3Bucket == "" || r.S3Region == "" {
			return fmt.Errorf("%w: s3 backend needs bucket and region", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown remote backend %q", ErrInvalidConfig, r.Backend)
	}

	if r.QueueSize < 1 {
		return fmt.Errorf("%w: queue size must be positive", ErrInvalidConfig)
	}
	if r.Timeout <= 0 {
		return fmt.Errorf("%w: remote timeout must be positive", ErrInvalidConfig)
	}
	if r.Retries > 0 && r.RetryDelay <= 0 {
		return fmt.Errorf("%w: retry delay must be positive", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally args.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
