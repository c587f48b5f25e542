package localstore

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/sitepins/internal/logging"
)

type memoryEntry struct {
	value    []byte
	encoding string
}

type memoryBackend struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
}

// NewMemory returns a store that lives only as long as the process. It is
// used for throwaway sessions and in tests.
func NewMemory(opts Options, logger logging.Logger) (*BlobStore, error) {
	return newBlobStore(&memoryBackend{data: make(map[string]memoryEntry)}, opts, logger)
}

func (m *memoryBackend) get(_ context.Context, key string) ([]byte, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.data[key]
	if !ok {
		return nil, "", nil
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, e.encoding, nil
}

func (m *memoryBackend) put(_ context.Context, key string, value []byte, encoding string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = memoryEntry{value: v, encoding: encoding}
	return nil
}

func (m *memoryBackend) close() error {
	return nil
}
