// Package localstore persists the whole tracker state as one atomic blob
// under a fixed key. The blob is JSON, optionally zstd-compressed, and is
// kept either in a SQLite key-value table or in process memory.
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sitepins/internal/logging"
	"github.com/dmitrijs2005/sitepins/internal/models"
	_ "modernc.org/sqlite"
)

// DefaultKey is the storage key of the state blob.
const DefaultKey = "pont_du_gard_points_v8"

// MemoryDSN selects the in-process backend.
const MemoryDSN = "memory"

type Options struct {
	Key      string
	Compress bool
	Now      func() time.Time
}

type backend interface {
	get(ctx context.Context, key string) (value []byte, encoding string, err error)
	put(ctx context.Context, key string, value []byte, encoding string, at time.Time) error
	close() error
}

// BlobStore reads and writes the state blob through a backend.
type BlobStore struct {
	b        backend
	key      string
	compress bool
	codec    *zstdCodec
	logger   logging.Logger
	now      func() time.Time
}

func newBlobStore(b backend, opts Options, logger logging.Logger) (*BlobStore, error) {
	codec, err := newZstdCodec()
	if err != nil {
		return nil, err
	}
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &BlobStore{
		b:        b,
		key:      opts.Key,
		compress: opts.Compress,
		codec:    codec,
		logger:   logger.With("module", "localstore", "key", opts.Key),
		now:      opts.Now,
	}, nil
}

// Open opens the store described by dsn: MemoryDSN (or an empty string)
// for the in-process backend, a SQLite DSN otherwise.
func Open(ctx context.Context, dsn string, opts Options, logger logging.Logger) (*BlobStore, error) {
	if dsn == "" || dsn == MemoryDSN {
		return NewMemory(opts, logger)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(1)

	return NewSQLite(db, opts, logger)
}

// ReadRaw returns the stored blob, decompressed, or nil when nothing has
// been saved yet.
func (s *BlobStore) ReadRaw(ctx context.Context) ([]byte, error) {
	value, encoding, err := s.b.get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	return s.codec.decode(value, encoding)
}

// WriteRaw replaces the stored blob with raw as-is.
func (s *BlobStore) WriteRaw(ctx context.Context, raw []byte) error {
	value, encoding := s.codec.encode(raw, s.compress)
	return s.b.put(ctx, s.key, value, encoding, s.now())
}

// Save serialises the snapshot and overwrites the stored blob.
func (s *BlobStore) Save(ctx context.Context, snap models.Snapshot) error {
	raw, err := EncodeBlob(BlobFromSnapshot(snap))
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	return s.WriteRaw(ctx, raw)
}

// Load returns the saved snapshot, or nil when there is none. A corrupt
// blob is logged and treated as no saved state; records that cannot be
// decoded are skipped. Only backend access failures are returned.
func (s *BlobStore) Load(ctx context.Context) (*models.Snapshot, error) {
	raw, err := s.ReadRaw(ctx)
	if errors.Is(err, ErrInvalidBlob) {
		s.logger.Warn(ctx, "saved state is unreadable, starting empty", "error", err)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	blob, err := DecodeBlob(raw)
	if err != nil {
		s.logger.Warn(ctx, "saved state is corrupt, starting empty", "error", err)
		return nil, nil
	}

	snap, skipped := blob.Snapshot(s.now())
	if skipped > 0 {
		s.logger.Warn(ctx, "skipped malformed records", "count", skipped)
	}
	s.logger.Debug(ctx, "state loaded", "active", len(snap.Active), "resolved", len(snap.Resolved), "counter", snap.IDCounter)
	return &snap, nil
}

func (s *BlobStore) Close() error {
	s.codec.close()
	return s.b.close()
}
