package remotestore

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/dmitrijs2005/sitepins/internal/common"
	"github.com/dmitrijs2005/sitepins/internal/models"
)

// MemoryStore keeps documents in process memory. It backs single-process
// demos and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[Collection]map[string]models.Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: map[Collection]map[string]models.Record{
		CollectionActive:   {},
		CollectionResolved: {},
	}}
}

func (m *MemoryStore) Put(_ context.Context, c Collection, rec models.Record) error {
	if err := c.Valid(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[c][rec.DocID()] = cloneRecord(rec)
	return nil
}

func (m *MemoryStore) Update(_ context.Context, c Collection, id string, f Fields) error {
	if err := c.Valid(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.docs[c][id]
	if !ok {
		return common.ErrorNotFound
	}
	f.apply(&rec)
	m.docs[c][id] = rec
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, c Collection, id string) error {
	if err := c.Valid(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs[c], id)
	return nil
}

// ListAll returns the documents ordered by numeric id.
func (m *MemoryStore) ListAll(_ context.Context, c Collection) ([]models.Record, error) {
	if err := c.Valid(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Record, 0, len(m.docs[c]))
	for _, rec := range m.docs[c] {
		out = append(out, cloneRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get returns one document. It is meant for inspection in tests and tools.
func (m *MemoryStore) Get(c Collection, id int64) (models.Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.docs[c][strconv.FormatInt(id, 10)]
	if !ok {
		return models.Record{}, false
	}
	return cloneRecord(rec), true
}

func (m *MemoryStore) Close() error {
	return nil
}

func cloneRecord(r models.Record) models.Record {
	c := r
	c.Lat = cloneFloat(r.Lat)
	c.Lng = cloneFloat(r.Lng)
	c.RelX = cloneFloat(r.RelX)
	c.RelY = cloneFloat(r.RelY)
	if r.PlanIndex != nil {
		v := *r.PlanIndex
		c.PlanIndex = &v
	}
	if r.Comments != nil {
		c.Comments = make([]models.CommentRecord, len(r.Comments))
		copy(c.Comments, r.Comments)
	}
	if r.Photos != nil {
		c.Photos = make([]models.PhotoRecord, len(r.Photos))
		copy(c.Photos, r.Photos)
	}
	return c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
