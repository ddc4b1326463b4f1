package blobs

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/controlsuite/auditfiles/internal/common"
	"github.com/controlsuite/auditfiles/internal/offline/models"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE blobs (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL,
  organization_id TEXT NOT NULL DEFAULT '',
  name TEXT NOT NULL,
  mime TEXT NOT NULL DEFAULT '',
  size INTEGER NOT NULL DEFAULT 0,
  data BLOB NOT NULL,
  origin TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL
);
`)
	require.NoError(t, err)

	return db
}

func sampleBlob(id string, created time.Time) *models.BlobRecord {
	return &models.BlobRecord{
		ID:             id,
		EventID:        "evt-1",
		OrganizationID: "org-9",
		Name:           "cert.pdf",
		MIME:           "application/pdf",
		Size:           3,
		Data:           []byte{1, 2, 3},
		Origin:         "mobile",
		CreatedAt:      created,
	}
}

func TestInsertAndGetByID(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, r.Insert(ctx, sampleBlob("b1", created)))

	got, err := r.GetByID(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "evt-1", got.EventID)
	assert.Equal(t, "org-9", got.OrganizationID)
	assert.Equal(t, []byte{1, 2, 3}, got.Data)
	assert.Equal(t, created, got.CreatedAt)
}

func TestGetByID_NotFound(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	_, err := r.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteByID(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, sampleBlob("b1", time.Now())))
	require.NoError(t, r.DeleteByID(ctx, "b1"))

	_, err := r.GetByID(ctx, "b1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	// deleting a missing blob is not an error
	assert.NoError(t, r.DeleteByID(ctx, "missing"))
}

func TestDeleteOlderThan(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fresh := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, r.Insert(ctx, sampleBlob("old", old)))
	require.NoError(t, r.Insert(ctx, sampleBlob("fresh", fresh)))

	n, err := r.DeleteOlderThan(ctx, fresh.Unix())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = r.GetByID(ctx, "old")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = r.GetByID(ctx, "fresh")
	assert.NoError(t, err)
}

func TestInsert_ExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO blobs").WillReturnError(sql.ErrConnDone)

	r := NewSQLiteRepository(db)
	err = r.Insert(context.Background(), sampleBlob("b1", time.Now()))
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}
