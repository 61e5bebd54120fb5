// Package jobs defines job records and the in-memory status table the HTTP
// handlers read while workers advance their own jobs.
//
// Table is safe for concurrent use. Readers get copies; writers go through
// Update, which applies a mutation under the table lock and then hands a
// snapshot to the optional Recorder for persistence.
package jobs
