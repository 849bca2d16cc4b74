// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - SnapshotStore: last committed value hash per (document, field)
//   - EventLog: append-only detected changes, with raw values as JSON
//   - RunLog: append-only workflow dispatch attempts
//   - ArtifactStore: references produced by successful runs
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Timestamps are stored as fixed-width UTC text so they compare lexicographically.
//
// # Data Location
//
// By default, the database is stored at ~/.notewatch/data/notewatch.db
//
// # Thread Safety
//
// All operations are thread-safe. SQLite runs in WAL mode with a busy timeout,
// and writes to each table are serialised by a per-table mutex. The store
// assumes a single notewatch process per database.
package sqlite
