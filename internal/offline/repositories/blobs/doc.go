// Package blobs provides the local persistence layer for staged file
// bytes.
//
// A blob is inserted when an upload cannot reach the backend and the
// file is parked locally. Its bytes stay in the staging database until
// the matching sync task replays successfully, at which point both are
// removed. DeleteOlderThan ages out blobs whose tasks were quarantined
// and never cleared.
//
// The SQLite implementation works over a dbx.DBTX, so it can run inside
// a transaction shared with the sync task repository.
package blobs
