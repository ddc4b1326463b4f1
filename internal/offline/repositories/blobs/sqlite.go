package blobs

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

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, b *models.BlobRecord) error {
	query := `INSERT INTO blobs (id, event_id, organization_id, name, mime, size, data, origin, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		b.ID, b.EventID, b.OrganizationID, b.Name, b.MIME, b.Size, b.Data, b.Origin, b.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert blob: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.BlobRecord, error) {
	query := `SELECT id, event_id, organization_id, name, mime, size, data, origin, created_at
		FROM blobs WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	b := &models.BlobRecord{}
	var created int64
	err := row.Scan(&b.ID, &b.EventID, &b.OrganizationID, &b.Name, &b.MIME, &b.Size, &b.Data, &b.Origin, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select blob: %w", err)
	}
	b.CreatedAt = time.Unix(created, 0).UTC()
	return b, nil
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM blobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM blobs WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge old blobs: %w", err)
	}
	return res.RowsAffected()
}
