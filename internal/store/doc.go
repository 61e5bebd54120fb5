// Package store persists job records in SQLite so status and history survive
// a server restart.
//
// Store implements jobs.Recorder: every snapshot written to the in-memory
// table is upserted here. On startup the server loads recent jobs back into
// the table after MarkInterrupted has closed out anything that was still
// running when the previous process exited.
package store
