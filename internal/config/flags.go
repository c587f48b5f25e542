package config

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/sitepins/internal/flagx"
)

var (
	valueFlags = []string{"-a", "-g", "-d", "-k", "-l", "-o", "-r", "-p", "-b", "-e", "-q", "-n", "-t"}
	boolFlags  = []string{"-z", "-m"}
)

// parseFlags overlays command-line flags.
//
// Supported flags:
//
//	-a string    HTTP bind address
//	-g string    gRPC health bind address
//	-d string    local store DSN
//	-k string    storage key
//	-z           compress the local blob
//	-l string    log level
//	-m           expose metrics
//	-o string    comma-separated CORS origins
//	-r string    remote backend (none, memory, postgres, s3)
//	-p string    remote Postgres DSN
//	-b string    S3 bucket
//	-e string    S3 base endpoint
//	-q int       write-behind queue size
//	-n int       retries per remote call
//	-t duration  timeout per remote call
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("sitepins", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.HTTPAddr, "a", cfg.HTTPAddr, "HTTP bind address")
	fs.StringVar(&cfg.GRPCHealthAddr, "g", cfg.GRPCHealthAddr, "gRPC health bind address")
	fs.StringVar(&cfg.LocalDSN, "d", cfg.LocalDSN, "local store DSN")
	fs.StringVar(&cfg.StorageKey, "k", cfg.StorageKey, "storage key")
	fs.BoolVar(&cfg.CompressLocal, "z", cfg.CompressLocal, "compress local blob")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.BoolVar(&cfg.MetricsEnabled, "m", cfg.MetricsEnabled, "expose metrics")
	origins := fs.String("o", strings.Join(cfg.CORSOrigins, ","), "CORS origins")
	fs.StringVar(&cfg.Remote.Backend, "r", cfg.Remote.Backend, "remote backend")
	fs.StringVar(&cfg.Remote.PostgresDSN, "p", cfg.Remote.PostgresDSN, "remote Postgres DSN")
	fs.StringVar(&cfg.Remote.S3Bucket, "b", cfg.Remote.S3Bucket, "S3 bucket")
	fs.StringVar(&cfg.Remote.S3Endpoint, "e", cfg.Remote.S3Endpoint, "S3 base endpoint")
	fs.IntVar(&cfg.Remote.QueueSize, "q", cfg.Remote.QueueSize, "queue size")
	fs.Uint64Var(&cfg.Remote.Retries, "n", cfg.Remote.Retries, "retries per remote call")
	fs.DurationVar(&cfg.Remote.Timeout, "t", cfg.Remote.Timeout, "timeout per remote call")

	if err := fs.Parse(flagx.FilterArgs(args, valueFlags, boolFlags...)); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	cfg.CORSOrigins = splitList(*origins)
	return nil
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
