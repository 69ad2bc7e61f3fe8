// Package history keeps a SQLite ledger of pipeline and publish runs so the
// CLI and API can show what was processed and published, and why a run failed.
//
// The database lives at <log_dir>/history.db and uses modernc.org/sqlite.
// Writes retry briefly on SQLITE_BUSY because the server and the CLI may
// write concurrently.
package history
