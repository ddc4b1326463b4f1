// Package synctasks provides the local persistence layer for the
// deferred upload queue.
//
// # Overview
//
// Each task carries the complete resolution context of one staged file
// plus retry bookkeeping (attempts, last error, next retry time). Tasks
// start pending, get rescheduled with a growing backoff on failure and
// move to failed once the attempt budget runs out. Failed tasks stay in
// the database for inspection until purged.
//
// # Ordering
//
// ListDue returns tasks ordered by priority first and creation time
// second, so urgent work replays before older routine work.
//
// Key Types
//
//   - type Repository        — interface used by the sync consumer
//   - type SQLiteRepository  — SQLite implementation over dbx.DBTX
package synctasks
