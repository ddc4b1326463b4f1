package blobs

import (
	"context"

	"github.com/controlsuite/auditfiles/internal/offline/models"
)

// Repository stores staged file bytes until their sync task replays.
type Repository interface {
	// Insert persists a new blob.
	Insert(ctx context.Context, b *models.BlobRecord) error

	// GetByID returns a blob by its identifier.
	GetByID(ctx context.Context, id string) (*models.BlobRecord, error)

	// DeleteByID removes a blob after its upload completed.
	DeleteByID(ctx context.Context, id string) error

	// DeleteOlderThan purges blobs created before the cutoff and returns
	// how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error)
}
