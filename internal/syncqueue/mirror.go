// Package syncqueue mirrors local changes to the remote store in the
// background. Enqueueing never blocks the caller and remote failures never
// reach it: each operation is applied once by a single worker, in order,
// and its outcome is only logged and counted.
package syncqueue

import (
	"time"

	"github.com/dmitrijs2005/sitepins/internal/models"
	"github.com/dmitrijs2005/sitepins/internal/remotestore"
	"github.com/google/uuid"
)

// Mirror accepts remote writes without waiting for them.
type Mirror interface {
	EnqueueUpsert(c remotestore.Collection, rec models.Record)
	EnqueueUpdate(c remotestore.Collection, id string, f remotestore.Fields)
	EnqueueDelete(c remotestore.Collection, id string)
}

type OpKind string

const (
	OpUpsert OpKind = "upsert"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
)

// Op is one pending remote write.
type Op struct {
	ID         uuid.UUID
	Kind       OpKind
	Collection remotestore.Collection
	DocID      string
	Record     models.Record
	Fields     remotestore.Fields
	EnqueuedAt time.Time
}

// Noop discards every write. It is used when no remote store is configured.
type Noop struct{}

func (Noop) EnqueueUpsert(remotestore.Collection, models.Record)              {}
func (Noop) EnqueueUpdate(remotestore.Collection, string, remotestore.Fields) {}
func (Noop) EnqueueDelete(remotestore.Collection, string)                     {}
