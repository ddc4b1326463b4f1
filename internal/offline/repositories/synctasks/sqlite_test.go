package synctasks

import (
	"context"
	"database/sql"
	"testing"
	"time"

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
CREATE TABLE sync_tasks (
  id TEXT PRIMARY KEY,
  blob_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  event_id TEXT NOT NULL,
  organization_id TEXT NOT NULL DEFAULT '',
  sub_unit_id TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT '',
  category_ref_id TEXT NOT NULL DEFAULT '',
  person_ids TEXT NOT NULL DEFAULT '',
  uploaded_by TEXT NOT NULL DEFAULT '',
  event_date INTEGER NOT NULL DEFAULT 0,
  priority INTEGER NOT NULL DEFAULT 0,
  attempts INTEGER NOT NULL DEFAULT 0,
  last_error TEXT NOT NULL DEFAULT '',
  next_retry_at INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at INTEGER NOT NULL
);
`)
	require.NoError(t, err)

	return db
}

var baseTime = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func sampleTask(id string, mutate func(*models.SyncTask)) *models.SyncTask {
	t := &models.SyncTask{
		ID:             id,
		BlobID:         "blob-" + id,
		Kind:           "training",
		EventID:        "evt-1",
		OrganizationID: "org-9",
		SubUnitID:      "branch-2",
		Category:       "evidence",
		CategoryRefID:  "ttype-4",
		PersonIDs:      "emp-1,emp-2",
		UploadedBy:     "user-7",
		EventDate:      baseTime,
		Status:         models.TaskStatusPending,
		NextRetryAt:    baseTime,
		CreatedAt:      baseTime,
	}
	if mutate != nil {
		mutate(t)
	}
	return t
}

func TestInsertAndGetByID(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, sampleTask("t1", nil)))

	got, err := r.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "blob-t1", got.BlobID)
	assert.Equal(t, "training", got.Kind)
	assert.Equal(t, "emp-1,emp-2", got.PersonIDs)
	assert.Equal(t, baseTime, got.EventDate)
	assert.Equal(t, models.TaskStatusPending, got.Status)

	fc := got.Context()
	assert.Equal(t, "evt-1", fc.EventID)
	assert.Equal(t, []string{"emp-1", "emp-2"}, fc.PersonIDs)

	_, err = r.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListDue_OrderAndFilter(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, sampleTask("late", func(s *models.SyncTask) {
		s.NextRetryAt = baseTime.Add(time.Hour)
	})))
	require.NoError(t, r.Insert(ctx, sampleTask("old-routine", func(s *models.SyncTask) {
		s.Priority = 5
		s.CreatedAt = baseTime.Add(-2 * time.Hour)
	})))
	require.NoError(t, r.Insert(ctx, sampleTask("urgent", func(s *models.SyncTask) {
		s.Priority = 1
	})))
	require.NoError(t, r.Insert(ctx, sampleTask("quarantined", func(s *models.SyncTask) {
		s.Status = models.TaskStatusFailed
	})))

	due, err := r.ListDue(ctx, baseTime)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "urgent", due[0].ID, "lower priority value replays first")
	assert.Equal(t, "old-routine", due[1].ID)
}

func TestListDue_SamePriorityOldestFirst(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, sampleTask("newer", nil)))
	require.NoError(t, r.Insert(ctx, sampleTask("older", func(s *models.SyncTask) {
		s.CreatedAt = baseTime.Add(-time.Hour)
	})))

	due, err := r.ListDue(ctx, baseTime)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "older", due[0].ID)
}

func TestReschedule(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, sampleTask("t1", nil)))
	next := baseTime.Add(30 * time.Second)
	require.NoError(t, r.Reschedule(ctx, "t1", 2, "network down", next))

	got, err := r.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Attempts)
	assert.Equal(t, "network down", got.LastError)
	assert.Equal(t, next, got.NextRetryAt)
	assert.Equal(t, models.TaskStatusPending, got.Status)

	due, err := r.ListDue(ctx, baseTime)
	require.NoError(t, err)
	assert.Empty(t, due, "rescheduled task is not due until its retry time")
}

func TestMarkFailed(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, sampleTask("t1", nil)))
	require.NoError(t, r.MarkFailed(ctx, "t1", 5, "gave up"))

	got, err := r.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusFailed, got.Status)
	assert.Equal(t, 5, got.Attempts)

	due, err := r.ListDue(ctx, baseTime.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, due, "quarantined tasks never come back as due")

	failed, err := r.ListFailed(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "t1", failed[0].ID)
}

func TestCount(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, sampleTask("p1", nil)))
	require.NoError(t, r.Insert(ctx, sampleTask("p2", nil)))
	require.NoError(t, r.Insert(ctx, sampleTask("f1", func(s *models.SyncTask) {
		s.Status = models.TaskStatusFailed
	})))

	c, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counts{Pending: 2, Failed: 1}, c)
}

func TestDeleteFailed(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, sampleTask("p1", nil)))
	require.NoError(t, r.Insert(ctx, sampleTask("f1", func(s *models.SyncTask) {
		s.Status = models.TaskStatusFailed
	})))

	blobIDs, err := r.DeleteFailed(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"blob-f1"}, blobIDs)

	_, err = r.GetByID(ctx, "f1")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = r.GetByID(ctx, "p1")
	assert.NoError(t, err)
}

func TestDeleteOlderThan(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, sampleTask("old", func(s *models.SyncTask) {
		s.CreatedAt = baseTime.Add(-48 * time.Hour)
	})))
	require.NoError(t, r.Insert(ctx, sampleTask("fresh", nil)))

	blobIDs, err := r.DeleteOlderThan(ctx, baseTime.Add(-24*time.Hour).Unix())
	require.NoError(t, err)
	assert.Equal(t, []string{"blob-old"}, blobIDs)

	_, err = r.GetByID(ctx, "fresh")
	assert.NoError(t, err)
}
