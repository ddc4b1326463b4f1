package synctasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/controlsuite/auditfiles/internal/common"
	"github.com/controlsuite/auditfiles/internal/dbx"
	"github.com/controlsuite/auditfiles/internal/offline/models"
)

const taskColumns = `id, blob_id, kind, event_id, organization_id, sub_unit_id, category,
	category_ref_id, person_ids, uploaded_by, event_date, priority, attempts,
	last_error, next_retry_at, status, created_at`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, t *models.SyncTask) error {
	query := `INSERT INTO sync_tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.BlobID, t.Kind, t.EventID, t.OrganizationID, t.SubUnitID, t.Category,
		t.CategoryRefID, t.PersonIDs, t.UploadedBy, t.EventDate.Unix(), t.Priority, t.Attempts,
		t.LastError, t.NextRetryAt.Unix(), t.Status, t.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert sync task: %w", err)
	}
	return nil
}

func scanTask(row interface{ Scan(...any) error }) (*models.SyncTask, error) {
	t := &models.SyncTask{}
	var eventDate, nextRetry, created int64
	err := row.Scan(&t.ID, &t.BlobID, &t.Kind, &t.EventID, &t.OrganizationID, &t.SubUnitID, &t.Category,
		&t.CategoryRefID, &t.PersonIDs, &t.UploadedBy, &eventDate, &t.Priority, &t.Attempts,
		&t.LastError, &nextRetry, &t.Status, &created)
	if err != nil {
		return nil, err
	}
	t.EventDate = time.Unix(eventDate, 0).UTC()
	t.NextRetryAt = time.Unix(nextRetry, 0).UTC()
	t.CreatedAt = time.Unix(created, 0).UTC()
	return t, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.SyncTask, error) {
	query := `SELECT ` + taskColumns + ` FROM sync_tasks WHERE id = ?`
	t, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select sync task: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]*models.SyncTask, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select sync tasks: %w", err)
	}
	defer rows.Close()

	var result []*models.SyncTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) ListDue(ctx context.Context, now time.Time) ([]*models.SyncTask, error) {
	query := `SELECT ` + taskColumns + ` FROM sync_tasks
		WHERE status = ? AND next_retry_at <= ?
		ORDER BY priority, created_at`
	return r.list(ctx, query, models.TaskStatusPending, now.Unix())
}

func (r *SQLiteRepository) ListFailed(ctx context.Context) ([]*models.SyncTask, error) {
	query := `SELECT ` + taskColumns + ` FROM sync_tasks
		WHERE status = ? ORDER BY created_at`
	return r.list(ctx, query, models.TaskStatusFailed)
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sync_tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sync task: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Reschedule(ctx context.Context, id string, attempts int, lastError string, next time.Time) error {
	query := `UPDATE sync_tasks SET attempts = ?, last_error = ?, next_retry_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, attempts, lastError, next.Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to reschedule sync task: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkFailed(ctx context.Context, id string, attempts int, lastError string) error {
	query := `UPDATE sync_tasks SET status = ?, attempts = ?, last_error = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, models.TaskStatusFailed, attempts, lastError, id)
	if err != nil {
		return fmt.Errorf("failed to quarantine sync task: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (Counts, error) {
	query := `SELECT status, COUNT(*) FROM sync_tasks GROUP BY status`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return Counts{}, fmt.Errorf("failed to count sync tasks: %w", err)
	}
	defer rows.Close()

	var c Counts
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return Counts{}, err
		}
		switch status {
		case models.TaskStatusPending:
			c.Pending = n
		case models.TaskStatusFailed:
			c.Failed = n
		}
	}
	return c, rows.Err()
}

func (r *SQLiteRepository) deleteReturningBlobs(ctx context.Context, where string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT blob_id FROM sync_tasks WHERE `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select sync tasks for purge: %w", err)
	}
	var blobIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		blobIDs = append(blobIDs, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM sync_tasks WHERE `+where, args...); err != nil {
		return nil, fmt.Errorf("failed to purge sync tasks: %w", err)
	}
	return blobIDs, nil
}

func (r *SQLiteRepository) DeleteFailed(ctx context.Context) ([]string, error) {
	return r.deleteReturningBlobs(ctx, `status = ?`, models.TaskStatusFailed)
}

func (r *SQLiteRepository) DeleteOlderThan(ctx context.Context, cutoff int64) ([]string, error) {
	return r.deleteReturningBlobs(ctx, `created_at < ?`, cutoff)
}
