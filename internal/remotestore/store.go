// Package remotestore mirrors tracker records into a shared document store
// so that several sessions can see each other's points. Two collections
// exist: active points and resolved points. Documents are keyed by the
// decimal point id and carry the full flat record.
package remotestore

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/sitepins/internal/common"
	"github.com/dmitrijs2005/sitepins/internal/logging"
	"github.com/dmitrijs2005/sitepins/internal/models"
)

type Collection string

const (
	CollectionActive   Collection = "points"
	CollectionResolved Collection = "deletedPoints"
)

func (c Collection) Valid() error {
	switch c {
	case CollectionActive, CollectionResolved:
		return nil
	default:
		return fmt.Errorf("%w: %q", common.ErrUnknownCollection, string(c))
	}
}

// Fields is a partial document update. Nil members are left untouched.
type Fields struct {
	Group    *models.Group
	Comments []models.Comment
}

func (f Fields) patch() map[string]any {
	out := make(map[string]any, 2)
	if f.Group != nil {
		out["group"] = string(*f.Group)
	}
	if f.Comments != nil {
		out["comments"] = models.CommentRecords(f.Comments)
	}
	return out
}

func (f Fields) apply(rec *models.Record) {
	if f.Group != nil {
		rec.Group = string(*f.Group)
	}
	if f.Comments != nil {
		rec.Comments = models.CommentRecords(f.Comments)
	}
}

// Store is a remote document store.
type Store interface {
	// Put creates or replaces the document rec in collection c.
	Put(ctx context.Context, c Collection, rec models.Record) error
	// Update merges f into an existing document. A missing document yields
	// common.ErrorNotFound.
	Update(ctx context.Context, c Collection, id string, f Fields) error
	// Remove deletes a document. Removing a missing document is not an error.
	Remove(ctx context.Context, c Collection, id string) error
	// ListAll returns every document of c. Documents that cannot be decoded
	// are left out.
	ListAll(ctx context.Context, c Collection) ([]models.Record, error)
	Close() error
}

// Backend names.
const (
	BackendNone     = "none"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
)

type Config struct {
	Backend     string
	PostgresDSN string
	S3          S3Config
}

// Open connects to the configured backend. It returns a nil Store for
// BackendNone, meaning the application runs local-only.
func Open(ctx context.Context, cfg Config, logger logging.Logger) (Store, error) {
	switch cfg.Backend {
	case "", BackendNone:
		return nil, nil
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendPostgres:
		return OpenPostgres(ctx, cfg.PostgresDSN, logger)
	case BackendS3:
		return OpenS3(ctx, cfg.S3, logger)
	default:
		return nil, fmt.Errorf("unknown remote backend %q", cfg.Backend)
	}
}
