package syncer

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/controlsuite/auditfiles/internal/common"
	"github.com/controlsuite/auditfiles/internal/dbx"
	"github.com/controlsuite/auditfiles/internal/filecontext"
	"github.com/controlsuite/auditfiles/internal/logging"
	"github.com/controlsuite/auditfiles/internal/offline/models"
	"github.com/controlsuite/auditfiles/internal/offline/repositories/blobs"
	"github.com/controlsuite/auditfiles/internal/offline/repositories/synctasks"
	"github.com/controlsuite/auditfiles/internal/storage"
	"github.com/controlsuite/auditfiles/internal/uploader"
)

// retryIntervals spaces the attempts out: quick retries first for
// transient hiccups, then progressively longer waits.
var retryIntervals = []time.Duration{
	10 * time.Second,
	30 * time.Second,
	time.Minute,
	2 * time.Minute,
	5 * time.Minute,
}

// MaxAttempts is the retry budget before a task is quarantined.
const MaxAttempts = 5

// Consumer drains the staging queue while the backend is reachable.
type Consumer struct {
	db     *sql.DB
	repos  *consumerRepos
	upload Uploader
	online Connectivity
	log    logging.Logger
	now    func() time.Time
}

type consumerRepos struct {
	tasks synctasks.Repository
	blobs blobs.Repository
}

func NewConsumer(db *sql.DB, tasks synctasks.Repository, blobStore blobs.Repository, upload Uploader, online Connectivity, log logging.Logger) *Consumer {
	return &Consumer{
		db:     db,
		repos:  &consumerRepos{tasks: tasks, blobs: blobStore},
		upload: upload,
		online: online,
		log:    log,
		now:    time.Now,
	}
}

// Run processes due tasks on each tick until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !c.online.Online(ctx) {
				continue
			}
			if err := c.ProcessDue(ctx); err != nil {
				c.log.Error(ctx, "queue pass failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// ProcessDue replays every task whose retry time has passed, in
// priority order. Individual task failures are recorded on the task and
// do not stop the pass.
func (c *Consumer) ProcessDue(ctx context.Context) error {
	due, err := c.repos.tasks.ListDue(ctx, c.now())
	if err != nil {
		return err
	}
	for _, task := range due {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.replay(ctx, task)
	}
	return nil
}

func (c *Consumer) replay(ctx context.Context, task *models.SyncTask) {
	blob, err := c.repos.blobs.GetByID(ctx, task.BlobID)
	if errors.Is(err, common.ErrNotFound) {
		// Bytes are gone, the task can never complete.
		c.log.Error(ctx, "staged blob missing, quarantining task", "task", task.ID, "blob", task.BlobID)
		c.quarantine(ctx, task, "staged blob missing")
		return
	}
	if err != nil {
		c.fail(ctx, task, err)
		return
	}

	file := storage.FileInput{Name: blob.Name, MIME: blob.MIME, Size: blob.Size, Data: blob.Data}
	res, err := c.upload.Upload(ctx, file, task.Context(), uploader.Options{
		EventDate:  task.EventDate,
		UploadedBy: task.UploadedBy,
	})
	if err != nil {
		if filecontext.IsValidationError(err) {
			// Retrying cannot fix an invalid context.
			c.quarantine(ctx, task, err.Error())
			return
		}
		c.fail(ctx, task, err)
		return
	}

	// Task and blob leave together or not at all.
	err = dbx.WithTx(ctx, c.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := synctasks.NewSQLiteRepository(tx).DeleteByID(ctx, task.ID); err != nil {
			return err
		}
		return blobs.NewSQLiteRepository(tx).DeleteByID(ctx, blob.ID)
	})
	if err != nil {
		// The upload went through; the cleanup retries next pass and the
		// re-upload is a duplicate, not data loss.
		c.log.Error(ctx, "staging cleanup failed after replay", "task", task.ID, "error", err)
		return
	}

	c.log.Info(ctx, "staged file synced",
		"task", task.ID, "file", res.FileID, "kind", task.Kind, "event", task.EventID)
}

func (c *Consumer) fail(ctx context.Context, task *models.SyncTask, cause error) {
	attempts := task.Attempts + 1
	if attempts >= MaxAttempts {
		c.log.Warn(ctx, "task exhausted retries, quarantining",
			"task", task.ID, "attempts", attempts, "error", cause)
		c.quarantine(ctx, task, cause.Error())
		return
	}

	delay := retryIntervals[len(retryIntervals)-1]
	if attempts-1 < len(retryIntervals) {
		delay = retryIntervals[attempts-1]
	}
	next := c.now().Add(delay)
	if err := c.repos.tasks.Reschedule(ctx, task.ID, attempts, cause.Error(), next); err != nil {
		c.log.Error(ctx, "failed to reschedule task", "task", task.ID, "error", err)
		return
	}
	c.log.Warn(ctx, "replay failed, rescheduled",
		"task", task.ID, "attempt", attempts, "next", next, "error", cause)
}

func (c *Consumer) quarantine(ctx context.Context, task *models.SyncTask, reason string) {
	if err := c.repos.tasks.MarkFailed(ctx, task.ID, task.Attempts+1, reason); err != nil {
		c.log.Error(ctx, "failed to quarantine task", "task", task.ID, "error", err)
	}
}

// Stats summarizes the queue.
func (c *Consumer) Stats(ctx context.Context) (synctasks.Counts, error) {
	return c.repos.tasks.Count(ctx)
}

// ClearFailed drops quarantined tasks together with their staged bytes.
// Tasks and blobs leave in one transaction so a task can never vanish
// while its bytes linger.
func (c *Consumer) ClearFailed(ctx context.Context) (int, error) {
	var cleared int
	err := dbx.WithTx(ctx, c.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		blobIDs, err := synctasks.NewSQLiteRepository(tx).DeleteFailed(ctx)
		if err != nil {
			return err
		}
		blobRepo := blobs.NewSQLiteRepository(tx)
		for _, id := range blobIDs {
			if err := blobRepo.DeleteByID(ctx, id); err != nil {
				return err
			}
		}
		cleared = len(blobIDs)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return cleared, nil
}

// CleanupOld purges tasks and blobs older than age, regardless of
// status. It also removes orphaned blobs left behind by interrupted
// staging.
func (c *Consumer) CleanupOld(ctx context.Context, age time.Duration) error {
	cutoff := c.now().Add(-age).Unix()

	var tasks int
	var orphans int64
	err := dbx.WithTx(ctx, c.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		blobIDs, err := synctasks.NewSQLiteRepository(tx).DeleteOlderThan(ctx, cutoff)
		if err != nil {
			return err
		}
		blobRepo := blobs.NewSQLiteRepository(tx)
		for _, id := range blobIDs {
			if err := blobRepo.DeleteByID(ctx, id); err != nil {
				return err
			}
		}
		tasks = len(blobIDs)
		orphans, err = blobRepo.DeleteOlderThan(ctx, cutoff)
		return err
	})
	if err != nil {
		return err
	}
	if tasks > 0 || orphans > 0 {
		c.log.Info(ctx, "staging cleanup done", "tasks", tasks, "orphanedBlobs", orphans)
	}
	return nil
}
