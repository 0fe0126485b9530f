// Package history provides SQLite-based storage for past audit runs.
//
// This package implements the HistoryDB, which stores:
//   - Complete audit reports as JSON for later retrieval
//   - Per-run summary counters for quick listing without full decode
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package history
