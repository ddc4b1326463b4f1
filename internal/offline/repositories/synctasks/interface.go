package synctasks

import (
	"context"
	"time"

	"github.com/controlsuite/auditfiles/internal/offline/models"
)

// Counts summarizes the queue by lifecycle state.
type Counts struct {
	Pending int
	Failed  int
}

// Repository manages deferred upload tasks.
type Repository interface {
	// Insert persists a new pending task.
	Insert(ctx context.Context, t *models.SyncTask) error

	// GetByID returns a task by its identifier.
	GetByID(ctx context.Context, id string) (*models.SyncTask, error)

	// ListDue returns pending tasks whose retry time has passed, ordered
	// by priority and then by age.
	ListDue(ctx context.Context, now time.Time) ([]*models.SyncTask, error)

	// ListFailed returns quarantined tasks.
	ListFailed(ctx context.Context) ([]*models.SyncTask, error)

	// DeleteByID removes a task after its upload completed.
	DeleteByID(ctx context.Context, id string) error

	// Reschedule records a failed attempt and the time of the next one.
	Reschedule(ctx context.Context, id string, attempts int, lastError string, next time.Time) error

	// MarkFailed quarantines a task that exhausted its attempt budget.
	MarkFailed(ctx context.Context, id string, attempts int, lastError string) error

	// Count summarizes the queue by status.
	Count(ctx context.Context) (Counts, error)

	// DeleteFailed purges quarantined tasks and returns their blob ids so
	// the caller can drop the bytes too.
	DeleteFailed(ctx context.Context) ([]string, error)

	// DeleteOlderThan purges tasks created before the cutoff and returns
	// their blob ids.
	DeleteOlderThan(ctx context.Context, cutoff int64) ([]string, error)
}
