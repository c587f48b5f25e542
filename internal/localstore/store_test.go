package localstore

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/sitepins/internal/logging"
	"github.com/dmitrijs2005/sitepins/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func setupSQLite(t *testing.T, compress bool) (*BlobStore, *sql.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:localstore_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)

	require.NoError(t, RunMigrations(context.Background(), db))
	db.SetMaxOpenConns(1)

	s, err := NewSQLite(db, Options{Compress: compress, Now: func() time.Time { return fixedNow }}, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, db
}

func sampleSnapshot() models.Snapshot {
	resolved := fixedNow.Add(-time.Hour)
	return models.Snapshot{
		IDCounter: 3,
		Active: []models.Point{{
			ID: 1, Title: "Banc", Description: "cassé", Urgency: models.UrgencyHigh, Group: models.GroupMaintenance,
			Location: models.MapLocation{Lat: 43.9, Lng: 4.5}, CreatedAt: fixedNow.Add(-2 * time.Hour),
			Comments: []models.Comment{{Text: "vu", CreatedAt: fixedNow.Add(-90 * time.Minute)}},
			Photos:   []models.Photo{},
		}},
		Resolved: []models.Point{{
			ID: 2, Title: "Fuite", Description: "eau", Urgency: models.UrgencyLow, Group: models.GroupCleaning,
			Location: models.PlanLocation{PlanIndex: 0, RelX: 0.5, RelY: 0.5}, CreatedAt: fixedNow.Add(-3 * time.Hour),
			DeletedAt: &resolved, Comments: []models.Comment{}, Photos: []models.Photo{},
		}},
	}
}

func TestBlobStore_SaveLoad(t *testing.T) {
	for _, compress := range []bool{false, true} {
		t.Run(map[bool]string{false: "plain", true: "zstd"}[compress], func(t *testing.T) {
			s, db := setupSQLite(t, compress)
			ctx := context.Background()

			require.NoError(t, s.Save(ctx, sampleSnapshot()))

			var encoding string
			require.NoError(t, db.QueryRow(`SELECT encoding FROM kv WHERE key = ?`, DefaultKey).Scan(&encoding))
			if compress {
				assert.Equal(t, EncodingJSONZstd, encoding)
			} else {
				assert.Equal(t, EncodingJSON, encoding)
			}

			got, err := s.Load(ctx)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, int64(3), got.IDCounter)
			require.Len(t, got.Active, 1)
			require.Len(t, got.Resolved, 1)
			assert.Equal(t, "Banc", got.Active[0].Title)
			assert.Equal(t, "vu", got.Active[0].Comments[0].Text)
			assert.True(t, got.Resolved[0].IsResolved())
		})
	}
}

func TestBlobStore_LoadEmpty(t *testing.T) {
	s, _ := setupSQLite(t, false)

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)

	raw, err := s.ReadRaw(context.Background())
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestBlobStore_LoadCorruptIsEmpty(t *testing.T) {
	s, db := setupSQLite(t, false)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO kv (key, value, encoding, updated_at) VALUES (?, ?, 'json', 'now')`, DefaultKey, []byte(`{"points": [`))
	require.NoError(t, err)

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBlobStore_LoadBadCompressionIsEmpty(t *testing.T) {
	s, db := setupSQLite(t, false)

	_, err := db.Exec(`INSERT INTO kv (key, value, encoding, updated_at) VALUES (?, ?, 'json+zstd', 'now')`, DefaultKey, []byte(`not zstd`))
	require.NoError(t, err)

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBlobStore_WriteRawVerbatim(t *testing.T) {
	s, _ := setupSQLite(t, true)
	ctx := context.Background()
	raw := []byte(`{"points":[],"extra":"kept"}`)

	require.NoError(t, s.WriteRaw(ctx, raw))
	got, err := s.ReadRaw(ctx)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestBlobStore_BackendErrorIsReturned(t *testing.T) {
	s, db := setupSQLite(t, false)
	require.NoError(t, db.Close())

	_, err := s.Load(context.Background())
	require.Error(t, err)
	require.Error(t, s.Save(context.Background(), sampleSnapshot()))
}

func TestOpen_Memory(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, MemoryDSN, Options{Key: "k"}, logging.Discard())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(ctx, sampleSnapshot()))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Active, 1)
}

func TestOpen_SQLiteFile(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + t.TempDir() + "/state.db"

	s, err := Open(ctx, dsn, Options{}, logging.Discard())
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, sampleSnapshot()))
	require.NoError(t, s.Close())

	s, err = Open(ctx, dsn, Options{}, logging.Discard())
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(3), got.IDCounter)
}
