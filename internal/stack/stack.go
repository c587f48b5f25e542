// Package stack wires the local store, the optional remote store, the
// write-behind queue and the reconciler into a Tracker, and tears them
// down again in the right order.
package stack

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sitepins/internal/common"
	"github.com/dmitrijs2005/sitepins/internal/config"
	"github.com/dmitrijs2005/sitepins/internal/localstore"
	"github.com/dmitrijs2005/sitepins/internal/logging"
	"github.com/dmitrijs2005/sitepins/internal/metrics"
	"github.com/dmitrijs2005/sitepins/internal/reconcile"
	"github.com/dmitrijs2005/sitepins/internal/remotestore"
	"github.com/dmitrijs2005/sitepins/internal/syncqueue"
	"github.com/dmitrijs2005/sitepins/internal/tracker"
)

var openRemote = remotestore.Open

type Stack struct {
	Tracker *tracker.Tracker
	Metrics metrics.Provider

	local  *localstore.BlobStore
	remote remotestore.Store
	queue  *syncqueue.Queue
	logger logging.Logger
}

// Build opens the stores and assembles the tracker. An unreachable remote
// store is logged and the stack runs local-only; any other remote
// configuration error is returned. The tracker is not started.
func Build(ctx context.Context, cfg *config.Config, logger logging.Logger, m metrics.Provider) (*Stack, error) {
	if m == nil {
		m = metrics.Noop{}
	}
	s := &Stack{Metrics: m, logger: logger.With("module", "stack")}

	local, err := localstore.Open(ctx, cfg.LocalDSN, localstore.Options{
		Key:      cfg.StorageKey,
		Compress: cfg.CompressLocal,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("local store init error: %w", err)
	}
	s.local = local

	remote, err := openRemote(ctx, cfg.Remote.Store(), logger)
	switch {
	case errors.Is(err, common.ErrRemoteUnavailable):
		s.logger.Warn(ctx, "remote store unreachable, running local-only", "backend", cfg.Remote.Backend, "error", err)
	case err != nil:
		_ = local.Close()
		return nil, fmt.Errorf("remote store init error: %w", err)
	default:
		s.remote = remote
	}

	opts := tracker.Options{Metrics: m}
	if s.remote != nil {
		retry := syncqueue.NoRetry()
		if cfg.Remote.Retries > 0 {
			retry = syncqueue.ExponentialRetry(cfg.Remote.Retries, cfg.Remote.RetryDelay)
		}
		s.queue = syncqueue.New(s.remote, syncqueue.Options{
			Size:     cfg.Remote.QueueSize,
			Timeout:  cfg.Remote.Timeout,
			Retry:    retry,
			Observer: m,
		}, logger)
		opts.Mirror = s.queue
		opts.Reconciler = reconcile.New(s.remote, logger)
	}

	s.Tracker = tracker.New(local, opts, logger)
	return s, nil
}

// Start loads and reconciles the tracker state.
func (s *Stack) Start(ctx context.Context) error {
	return s.Tracker.Start(ctx)
}

// Remote reports whether a remote store is attached.
func (s *Stack) Remote() bool {
	return s.remote != nil
}

// Close drains the write-behind queue within ctx and closes both stores.
func (s *Stack) Close(ctx context.Context) error {
	var errs []error

	if s.queue != nil {
		if err := s.queue.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("queue drain: %w", err))
		}
		s.logger.Info(ctx, "write-behind queue closed", "pending", s.queue.Pending())
	}
	if s.remote != nil {
		if err := s.remote.Close(); err != nil {
			errs = append(errs, fmt.Errorf("remote store close: %w", err))
		}
	}
	if err := s.local.Close(); err != nil {
		errs = append(errs, fmt.Errorf("local store close: %w", err))
	}
	return errors.Join(errs...)
}
