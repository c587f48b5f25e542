package config

import (
	"fmt"
	"os"

	"github.com/dmitrijs2005/sitepins/internal/flagx"
	"github.com/dmitrijs2005/sitepins/internal/timex"
	"github.com/goccy/go-json"
)

// jsonConfig mirrors Config for JSON files. Durations accept "3s" as well
// as integer nanoseconds. It is seeded from the current Config so keys
// missing from the file keep their value.
type jsonConfig struct {
	HTTPAddr        string         `json:"http_addr"`
	GRPCHealthAddr  string         `json:"grpc_health_addr"`
	LocalDSN        string         `json:"local_dsn"`
	StorageKey      string         `json:"storage_key"`
	CompressLocal   bool           `json:"compress_local"`
	LogLevel        string         `json:"log_level"`
	MetricsEnabled  bool           `json:"metrics_enabled"`
	CORSOrigins     []string       `json:"cors_origins"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout"`
	Remote          jsonRemote     `json:"remote"`
}

type jsonRemote struct {
	Backend     string         `json:"backend"`
	PostgresDSN string         `json:"postgres_dsn"`
	S3Bucket    string         `json:"s3_bucket"`
	S3Region    string         `json:"s3_region"`
	S3Endpoint  string         `json:"s3_endpoint"`
	S3AccessKey string         `json:"s3_access_key"`
	S3SecretKey string         `json:"s3_secret_key"`
	S3Prefix    string         `json:"s3_prefix"`
	QueueSize   int            `json:"queue_size"`
	Retries     uint64         `json:"retries"`
	RetryDelay  timex.Duration `json:"retry_delay"`
	Timeout     timex.Duration `json:"timeout"`
}

func toJSONConfig(c *Config) jsonConfig {
	r := c.Remote
	return jsonConfig{
		HTTPAddr:        c.HTTPAddr,
		GRPCHealthAddr:  c.GRPCHealthAddr,
		LocalDSN:        c.LocalDSN,
		StorageKey:      c.StorageKey,
		CompressLocal:   c.CompressLocal,
		LogLevel:        c.LogLevel,
		MetricsEnabled:  c.MetricsEnabled,
		CORSOrigins:     c.CORSOrigins,
		ShutdownTimeout: timex.Duration{Duration: c.ShutdownTimeout},
		Remote: jsonRemote{
			Backend:     r.Backend,
			PostgresDSN: r.PostgresDSN,
			S3Bucket:    r.S3Bucket,
			S3Region:    r.S3Region,
			S3Endpoint:  r.S3Endpoint,
			S3AccessKey: r.S3AccessKey,
			S3SecretKey: r.S3SecretKey,
			S3Prefix:    r.S3Prefix,
			QueueSize:   r.QueueSize,
			Retries:     r.Retries,
			RetryDelay:  timex.Duration{Duration: r.RetryDelay},
			Timeout:     timex.Duration{Duration: r.Timeout},
		},
	}
}

func (j jsonConfig) apply(c *Config) {
	c.HTTPAddr = j.HTTPAddr
	c.GRPCHealthAddr = j.GRPCHealthAddr
	c.LocalDSN = j.LocalDSN
	c.StorageKey = j.StorageKey
	c.CompressLocal = j.CompressLocal
	c.LogLevel = j.LogLevel
	c.MetricsEnabled = j.MetricsEnabled
	c.CORSOrigins = j.CORSOrigins
	c.ShutdownTimeout = j.ShutdownTimeout.Duration

	r := j.Remote
	c.Remote = RemoteConfig{
		Backend:     r.Backend,
		PostgresDSN: r.PostgresDSN,
		S3Bucket:    r.S3Bucket,
		S3Region:    r.S3Region,
		S3Endpoint:  r.S3Endpoint,
		S3AccessKey: r.S3AccessKey,
		S3SecretKey: r.S3SecretKey,
		S3Prefix:    r.S3Prefix,
		QueueSize:   r.QueueSize,
		Retries:     r.Retries,
		RetryDelay:  r.RetryDelay.Duration,
		Timeout:     r.Timeout.Duration,
	}
}

// parseJSON overlays the file named by -c or -config, if any.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	c := toJSONConfig(cfg)
	if err := json.Unmarshal(file, &c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.apply(cfg)
	return nil
}
