package remotestore

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/dmitrijs2005/sitepins/internal/common"
	"github.com/dmitrijs2005/sitepins/internal/dbx"
	"github.com/dmitrijs2005/sitepins/internal/logging"
	"github.com/dmitrijs2005/sitepins/internal/models"
	"github.com/dmitrijs2005/sitepins/internal/remotestore/migrations"
	"github.com/goccy/go-json"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// gooseUp is a test seam.
var gooseUp = func(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return err
	}
	_, err = provider.Up(ctx)
	return err
}

// PostgresStore keeps each collection in its own table with the record as
// a JSONB document.
type PostgresStore struct {
	db      dbx.DBTX
	closeFn func() error
	logger  logging.Logger
}

func NewPostgresStore(db *sql.DB, logger logging.Logger) *PostgresStore {
	return &PostgresStore{db: db, closeFn: db.Close, logger: logger.With("module", "remotestore", "backend", BackendPostgres)}
}

// OpenPostgres connects using the pgx driver and applies migrations.
func OpenPostgres(ctx context.Context, dsn string, logger logging.Logger) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open remote database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", common.ErrRemoteUnavailable, err)
	}
	if err := gooseUp(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply remote migrations: %w", err)
	}
	return NewPostgresStore(db, logger), nil
}

func tableFor(c Collection) (string, error) {
	switch c {
	case CollectionActive:
		return "points", nil
	case CollectionResolved:
		return "deleted_points", nil
	default:
		return "", c.Valid()
	}
}

func (s *PostgresStore) Put(ctx context.Context, c Collection, rec models.Record) error {
	table, err := tableFor(c)
	if err != nil {
		return err
	}

	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", rec.DocID(), err)
	}

	query, args, err := psql.Insert(table).
		Columns("id", "doc", "updated_at").
		Values(rec.DocID(), sq.Expr("?::jsonb", string(doc)), sq.Expr("now()")).
		Suffix("ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", c, rec.DocID(), err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, c Collection, id string, f Fields) error {
	table, err := tableFor(c)
	if err != nil {
		return err
	}

	patch, err := json.Marshal(f.patch())
	if err != nil {
		return fmt.Errorf("failed to encode patch for %s: %w", id, err)
	}

	query, args, err := psql.Update(table).
		Set("doc", sq.Expr("doc || ?::jsonb", string(patch))).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", c, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", c, id, err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, c Collection, id string) error {
	table, err := tableFor(c)
	if err != nil {
		return err
	}

	query, args, err := psql.Delete(table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to remove %s/%s: %w", c, id, err)
	}
	return nil
}

func (s *PostgresStore) ListAll(ctx context.Context, c Collection) ([]models.Record, error) {
	table, err := tableFor(c)
	if err != nil {
		return nil, err
	}

	query, args, err := psql.Select("doc").From(table).OrderBy("updated_at").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c, err)
	}
	defer rows.Close()

	out := make([]models.Record, 0)
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", c, err)
		}
		var rec models.Record
		if err := json.Unmarshal(doc, &rec); err != nil {
			s.logger.Warn(ctx, "skipping undecodable document", "collection", string(c), "error", err)
			continue
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s rows: %w", c, err)
	}
	return out, nil
}

func (s *PostgresStore) Close() error {
	return s.closeFn()
}
