// Package store provides the embedded SQLite persistence layer for storykeep.
//
// The store is the sole reader/writer of local application state: books,
// parts, chapters, AI summaries and reviews, reviewer profiles, and the
// story wiki. It owns schema creation and every CRUD, search, and reorder
// query. All other components (snapshot codec, cloud sync engine, CLI) go
// through this package.
//
// The database runs embedded via ncruces/go-sqlite3 with WAL mode enabled.
// A DSN of ":memory:" gives a file-less store.
//
// Initialization is guarded by an initialize-once contract: Init may be
// called concurrently from any number of callers, exactly one schema pass
// runs, and every other operation waits for that pass to finish. Calling
// any operation on a store whose Init was never started fails with
// ErrNotInitialized.
package store
