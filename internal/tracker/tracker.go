// Package tracker owns the in-memory point state and implements the
// lifecycle operations: create, comment, reclassify and resolve. Every
// mutation is saved to the local store before the call returns and is
// then handed to the remote mirror, whose outcome the caller never waits
// for.
package tracker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/sitepins/internal/common"
	"github.com/dmitrijs2005/sitepins/internal/logging"
	"github.com/dmitrijs2005/sitepins/internal/metrics"
	"github.com/dmitrijs2005/sitepins/internal/models"
	"github.com/dmitrijs2005/sitepins/internal/reconcile"
	"github.com/dmitrijs2005/sitepins/internal/syncqueue"
)

var (
	ErrNotFound      = common.ErrorNotFound
	ErrValidation    = common.ErrValidation
	ErrEmptyComment  = errors.New("comment text is empty")
	ErrInvalidImport = errors.New("invalid import file")
	ErrNotReady      = errors.New("tracker is not ready")
)

// LocalStore persists the whole state as one blob.
type LocalStore interface {
	Load(ctx context.Context) (*models.Snapshot, error)
	Save(ctx context.Context, s models.Snapshot) error
	ReadRaw(ctx context.Context) ([]byte, error)
	WriteRaw(ctx context.Context, raw []byte) error
}

// Reconciler merges remote state into the loaded local state.
type Reconciler interface {
	Run(ctx context.Context, local models.Snapshot) (models.Snapshot, reconcile.Result, error)
}

type Options struct {
	// Mirror receives remote writes. Nil means local-only.
	Mirror syncqueue.Mirror
	// Reconciler runs at Start. Nil skips reconciliation.
	Reconciler Reconciler
	Metrics    metrics.Provider
	Now        func() time.Time
}

// Tracker serialises all mutations through one mutex so that every change
// and its save happen atomically with respect to other callers.
//
// gate is held exclusively while the state is replaced wholesale (Start and
// Import) and shared by every writer, so no mutation runs against a state
// that is about to be swapped out.
type Tracker struct {
	gate  sync.RWMutex
	mu    sync.Mutex
	state models.Snapshot
	ready atomic.Bool

	store      LocalStore
	mirror     syncqueue.Mirror
	reconciler Reconciler
	metrics    metrics.Provider
	logger     logging.Logger
	now        func() time.Time
}

func New(store LocalStore, opts Options, logger logging.Logger) *Tracker {
	if opts.Mirror == nil {
		opts.Mirror = syncqueue.Noop{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Noop{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Tracker{
		state:      models.Snapshot{IDCounter: 1},
		store:      store,
		mirror:     opts.Mirror,
		reconciler: opts.Reconciler,
		metrics:    opts.Metrics,
		logger:     logger.With("module", "tracker"),
		now:        opts.Now,
	}
}

// Start loads the saved state and, when a reconciler is configured, merges
// the remote collections into it. A failed remote read leaves the tracker
// running on local data only. Only a local store access failure is
// returned.
func (t *Tracker) Start(ctx context.Context) error {
	t.gate.Lock()
	defer t.gate.Unlock()

	if err := t.reloadLocked(ctx); err != nil {
		return err
	}
	t.ready.Store(true)
	return nil
}

// Ready reports whether Start has completed.
func (t *Tracker) Ready() bool {
	return t.ready.Load()
}

// acquire admits a writer. It fails with ErrNotReady before Start has
// completed and waits while an import is being applied.
func (t *Tracker) acquire() error {
	t.gate.RLock()
	if !t.ready.Load() {
		t.gate.RUnlock()
		return ErrNotReady
	}
	return nil
}

func (t *Tracker) release() {
	t.gate.RUnlock()
}

// reloadLocked replaces the state with the stored one merged with the
// remote collections. The caller holds gate exclusively.
func (t *Tracker) reloadLocked(ctx context.Context) error {
	loaded, err := t.store.Load(ctx)
	if err != nil {
		return err
	}

	local := models.Snapshot{IDCounter: 1}
	if loaded != nil {
		local = *loaded
	}

	next := local
	persist := false

	if t.reconciler != nil {
		merged, res, err := t.reconciler.Run(ctx, local)
		if err != nil {
			t.logger.Warn(ctx, "remote state unavailable, running local-only", "error", err)
		} else {
			next = merged
			persist = true
			t.logger.Debug(ctx, "reconciled", "counter", res.IDCounter)
		}
	}
	if next.NormalizeCounter() {
		persist = true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.state = next
	if persist {
		t.persistLocked(ctx)
	}
	t.metrics.SetPointCounts(len(t.state.Active), len(t.state.Resolved))

	t.logger.Info(ctx, "state ready",
		"active", len(t.state.Active),
		"resolved", len(t.state.Resolved),
		"counter", t.state.IDCounter,
	)
	return nil
}

// persistLocked saves the current state. A failed save is logged and
// counted; the in-memory state stays authoritative.
func (t *Tracker) persistLocked(ctx context.Context) error {
	start := time.Now()
	err := t.store.Save(ctx, t.state)
	t.metrics.ObserveSave(time.Since(start), err)
	t.metrics.SetPointCounts(len(t.state.Active), len(t.state.Resolved))
	if err != nil {
		t.logger.Error(ctx, "local save failed", "error", err)
	}
	return err
}

func indexOf(points []models.Point, id int64) int {
	for i, p := range points {
		if p.ID == id {
			return i
		}
	}
	return -1
}
