package syncqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/sitepins/internal/logging"
	"github.com/dmitrijs2005/sitepins/internal/models"
	"github.com/dmitrijs2005/sitepins/internal/remotestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	kind string
	c    remotestore.Collection
	id   string
}

// recordingStore logs every call and fails the ones listed in failures.
type recordingStore struct {
	remotestore.Store

	mu       sync.Mutex
	calls    []call
	failures map[string]int
	block    chan struct{}
}

func newRecordingStore() *recordingStore {
	return &recordingStore{Store: remotestore.NewMemoryStore(), failures: map[string]int{}}
}

func (r *recordingStore) record(kind string, c remotestore.Collection, id string) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{kind, c, id})
	key := fmt.Sprintf("%s:%s:%s", kind, c, id)
	if r.failures[key] > 0 {
		r.failures[key]--
		return errors.New("remote unavailable")
	}
	return nil
}

func (r *recordingStore) Put(ctx context.Context, c remotestore.Collection, rec models.Record) error {
	if err := r.record("put", c, rec.DocID()); err != nil {
		return err
	}
	return r.Store.Put(ctx, c, rec)
}

func (r *recordingStore) Update(ctx context.Context, c remotestore.Collection, id string, f remotestore.Fields) error {
	if err := r.record("update", c, id); err != nil {
		return err
	}
	return r.Store.Update(ctx, c, id, f)
}

func (r *recordingStore) Remove(ctx context.Context, c remotestore.Collection, id string) error {
	if err := r.record("remove", c, id); err != nil {
		return err
	}
	return r.Store.Remove(ctx, c, id)
}

func (r *recordingStore) snapshot() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]call(nil), r.calls...)
}

type countingObserver struct {
	mu     sync.Mutex
	counts map[string]int
}

func (o *countingObserver) RemoteOp(kind, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.counts == nil {
		o.counts = map[string]int{}
	}
	o.counts[kind+"/"+outcome]++
}

func (o *countingObserver) get(key string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.counts[key]
}

func record(id int64) models.Record {
	lat, lng := 1.0, 2.0
	return models.Record{ID: models.RecordID(id), LocationType: "map", Lat: &lat, Lng: &lng}
}

func closeQueue(t *testing.T, q *Queue) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Close(ctx))
}

func TestQueue_AppliesInOrder(t *testing.T) {
	store := newRecordingStore()
	obs := &countingObserver{}
	q := New(store, Options{Observer: obs}, logging.Discard())

	g := models.GroupShop
	q.EnqueueUpsert(remotestore.CollectionActive, record(1))
	q.EnqueueUpdate(remotestore.CollectionActive, "1", remotestore.Fields{Group: &g})
	q.EnqueueUpsert(remotestore.CollectionResolved, record(1))
	q.EnqueueDelete(remotestore.CollectionActive, "1")
	closeQueue(t, q)

	assert.Equal(t, []call{
		{"put", remotestore.CollectionActive, "1"},
		{"update", remotestore.CollectionActive, "1"},
		{"put", remotestore.CollectionResolved, "1"},
		{"remove", remotestore.CollectionActive, "1"},
	}, store.snapshot())
	assert.Equal(t, 2, obs.get("upsert/ok"))
	assert.Equal(t, 1, obs.get("delete/ok"))
}

func TestQueue_FailureDoesNotStopLaterOps(t *testing.T) {
	store := newRecordingStore()
	store.failures["put:deletedPoints:4"] = 1
	obs := &countingObserver{}
	q := New(store, Options{Observer: obs}, logging.Discard())

	q.EnqueueUpsert(remotestore.CollectionResolved, record(4))
	q.EnqueueDelete(remotestore.CollectionActive, "4")
	closeQueue(t, q)

	assert.Len(t, store.snapshot(), 2)
	assert.Equal(t, 1, obs.get("upsert/failed"))
	assert.Equal(t, 1, obs.get("delete/ok"))
}

func TestQueue_RetryPolicy(t *testing.T) {
	store := newRecordingStore()
	store.failures["put:points:2"] = 2
	obs := &countingObserver{}
	q := New(store, Options{Observer: obs, Retry: ExponentialRetry(3, time.Millisecond)}, logging.Discard())

	q.EnqueueUpsert(remotestore.CollectionActive, record(2))
	closeQueue(t, q)

	assert.Len(t, store.snapshot(), 3)
	assert.Equal(t, 1, obs.get("upsert/ok"))
	_, ok := store.Store.(*remotestore.MemoryStore).Get(remotestore.CollectionActive, 2)
	assert.True(t, ok)
}

func TestQueue_DropsWhenFull(t *testing.T) {
	store := newRecordingStore()
	obs := &countingObserver{}
	q := newQueue(store, Options{Size: 1, Observer: obs}, logging.Discard())

	q.EnqueueUpsert(remotestore.CollectionActive, record(1))
	q.EnqueueUpsert(remotestore.CollectionActive, record(2))
	assert.Equal(t, 1, q.Pending())
	assert.Equal(t, 1, obs.get("upsert/dropped"))

	closeQueue(t, q)
	assert.Equal(t, []call{{"put", remotestore.CollectionActive, "1"}}, store.snapshot())
}

func TestQueue_EnqueueAfterCloseIsDropped(t *testing.T) {
	store := newRecordingStore()
	obs := &countingObserver{}
	q := New(store, Options{Observer: obs}, logging.Discard())
	closeQueue(t, q)

	q.EnqueueDelete(remotestore.CollectionActive, "1")
	assert.Equal(t, 1, obs.get("delete/dropped"))
	assert.Empty(t, store.snapshot())

	closeQueue(t, q)
}

func TestQueue_CloseHonoursContext(t *testing.T) {
	store := newRecordingStore()
	store.block = make(chan struct{})
	q := New(store, Options{}, logging.Discard())

	q.EnqueueUpsert(remotestore.CollectionActive, record(1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, q.Close(ctx), context.DeadlineExceeded)

	close(store.block)
	closeQueue(t, q)
}

func TestQueue_TimeoutPerCall(t *testing.T) {
	store := &slowStore{Store: remotestore.NewMemoryStore()}
	obs := &countingObserver{}
	q := New(store, Options{Timeout: 10 * time.Millisecond, Observer: obs}, logging.Discard())

	q.EnqueueUpsert(remotestore.CollectionActive, record(1))
	closeQueue(t, q)

	assert.Equal(t, 1, obs.get("upsert/failed"))
}

type slowStore struct {
	remotestore.Store
}

func (s *slowStore) Put(ctx context.Context, _ remotestore.Collection, _ models.Record) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestNoop(t *testing.T) {
	var m Mirror = Noop{}
	m.EnqueueUpsert(remotestore.CollectionActive, record(1))
	m.EnqueueUpdate(remotestore.CollectionActive, "1", remotestore.Fields{})
	m.EnqueueDelete(remotestore.CollectionActive, "1")
}
