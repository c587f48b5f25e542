package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sitepins/internal/dbx"
	"github.com/dmitrijs2005/sitepins/internal/localstore/migrations"
	"github.com/dmitrijs2005/sitepins/internal/logging"
	"github.com/pressly/goose/v3"
)

// RunMigrations applies the embedded schema to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to apply local migrations: %w", err)
	}
	return nil
}

type sqliteBackend struct {
	db      dbx.DBTX
	closeFn func() error
}

// NewSQLite wraps an already migrated database. Closing the returned store
// closes db.
func NewSQLite(db *sql.DB, opts Options, logger logging.Logger) (*BlobStore, error) {
	return newBlobStore(&sqliteBackend{db: db, closeFn: db.Close}, opts, logger)
}

func (r *sqliteBackend) get(ctx context.Context, key string) ([]byte, string, error) {
	var (
		value    []byte
		encoding string
	)
	err := r.db.QueryRowContext(ctx, `SELECT value, encoding FROM kv WHERE key = ?`, key).Scan(&value, &encoding)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to read kv[%s]: %w", key, err)
	}
	return value, encoding, nil
}

func (r *sqliteBackend) put(ctx context.Context, key string, value []byte, encoding string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, encoding, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			encoding = excluded.encoding,
			updated_at = excluded.updated_at
	`, key, value, encoding, at.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to write kv[%s]: %w", key, err)
	}
	return nil
}

func (r *sqliteBackend) close() error {
	return r.closeFn()
}
