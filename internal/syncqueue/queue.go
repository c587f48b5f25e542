package syncqueue

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/sitepins/internal/logging"
	"github.com/dmitrijs2005/sitepins/internal/models"
	"github.com/dmitrijs2005/sitepins/internal/remotestore"
	"github.com/google/uuid"
)

// Outcomes reported to the Observer.
const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeDropped = "dropped"
)

// Observer receives one call per finished or dropped operation.
type Observer interface {
	RemoteOp(kind string, outcome string)
}

type nopObserver struct{}

func (nopObserver) RemoteOp(string, string) {}

type Options struct {
	// Size is the buffer capacity. Writes beyond it are dropped.
	Size int
	// Timeout bounds each attempt of each remote call.
	Timeout time.Duration
	Retry   RetryPolicy
	// Observer defaults to a no-op.
	Observer Observer
}

const (
	DefaultSize    = 256
	DefaultTimeout = 10 * time.Second
)

// Queue is a Mirror backed by a buffered channel and one worker goroutine.
type Queue struct {
	store    remotestore.Store
	ops      chan Op
	logger   logging.Logger
	retry    RetryPolicy
	timeout  time.Duration
	observer Observer
	now      func() time.Time

	mu        sync.RWMutex
	closed    bool
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

// New creates the queue and starts its worker.
func New(store remotestore.Store, opts Options, logger logging.Logger) *Queue {
	q := newQueue(store, opts, logger)
	q.start()
	return q
}

func newQueue(store remotestore.Store, opts Options, logger logging.Logger) *Queue {
	if opts.Size <= 0 {
		opts.Size = DefaultSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Retry == nil {
		opts.Retry = NoRetry()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	return &Queue{
		store:    store,
		ops:      make(chan Op, opts.Size),
		logger:   logger.With("module", "syncqueue"),
		retry:    opts.Retry,
		timeout:  opts.Timeout,
		observer: opts.Observer,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

func (q *Queue) start() {
	q.startOnce.Do(func() { go q.run() })
}

func (q *Queue) EnqueueUpsert(c remotestore.Collection, rec models.Record) {
	q.enqueue(Op{Kind: OpUpsert, Collection: c, DocID: rec.DocID(), Record: rec})
}

func (q *Queue) EnqueueUpdate(c remotestore.Collection, id string, f remotestore.Fields) {
	q.enqueue(Op{Kind: OpUpdate, Collection: c, DocID: id, Fields: f})
}

func (q *Queue) EnqueueDelete(c remotestore.Collection, id string) {
	q.enqueue(Op{Kind: OpDelete, Collection: c, DocID: id})
}

func (q *Queue) enqueue(op Op) {
	op.ID = uuid.New()
	op.EnqueuedAt = q.now()

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.drop(op, "queue closed")
		return
	}

	select {
	case q.ops <- op:
	default:
		q.drop(op, "queue full")
	}
}

func (q *Queue) drop(op Op, reason string) {
	q.logger.Warn(context.Background(), "remote write dropped",
		"op_id", op.ID, "kind", op.Kind, "collection", op.Collection, "doc", op.DocID, "reason", reason)
	q.observer.RemoteOp(string(op.Kind), OutcomeDropped)
}

func (q *Queue) run() {
	defer close(q.done)
	for op := range q.ops {
		q.apply(op)
	}
}

func (q *Queue) apply(op Op) {
	ctx := context.Background()
	log := q.logger.With("op_id", op.ID, "kind", op.Kind, "collection", op.Collection, "doc", op.DocID)

	err := q.retry.Do(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, q.timeout)
		defer cancel()
		return q.exec(ctx, op)
	})
	if err != nil {
		log.Warn(ctx, "remote write failed", "error", err, "queued_for", q.now().Sub(op.EnqueuedAt))
		q.observer.RemoteOp(string(op.Kind), OutcomeFailed)
		return
	}

	log.Debug(ctx, "remote write applied")
	q.observer.RemoteOp(string(op.Kind), OutcomeOK)
}

func (q *Queue) exec(ctx context.Context, op Op) error {
	switch op.Kind {
	case OpUpsert:
		return q.store.Put(ctx, op.Collection, op.Record)
	case OpUpdate:
		return q.store.Update(ctx, op.Collection, op.DocID, op.Fields)
	default:
		return q.store.Remove(ctx, op.Collection, op.DocID)
	}
}

// Close stops accepting writes and waits until the pending ones have been
// applied or ctx is done.
func (q *Queue) Close(ctx context.Context) error {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.ops)
		q.mu.Unlock()
	})
	q.start()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of buffered operations.
func (q *Queue) Pending() int {
	return len(q.ops)
}
