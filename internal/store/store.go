package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Store wraps the embedded SQLite database holding all local state.
//
// Construct with New, then call Init before use. Init is idempotent and
// safe under concurrent first calls; see the package documentation.
type Store struct {
	dsn string

	started  atomic.Bool
	initOnce sync.Once
	initDone chan struct{}
	initErr  error

	db *sql.DB
}

// New creates a Store for the given DSN without opening it.
//
// Use ":memory:" for a purely in-memory store, or a file path for a
// persistent one. The database is not touched until Init runs.
func New(dsn string) *Store {
	return &Store{
		dsn:      dsn,
		initDone: make(chan struct{}),
	}
}

// Init opens the database and creates the schema if absent.
//
// It is safe to call Init concurrently from multiple callers: exactly one
// initialization runs, later calls are no-ops, and every caller observes
// the outcome of the single real pass.
func (s *Store) Init(ctx context.Context) error {
	s.started.Store(true)
	s.initOnce.Do(func() {
		defer close(s.initDone)
		s.initErr = s.open(ctx)
	})
	select {
	case <-s.initDone:
		return s.initErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsInitialized reports whether initialization has completed successfully.
func (s *Store) IsInitialized() bool {
	if !s.started.Load() {
		return false
	}
	select {
	case <-s.initDone:
		return s.initErr == nil
	default:
		return false
	}
}

// ready gates every operation on the initialize-once contract: callers that
// arrive before Init completes wait for it, callers on a store that never
// started Init fail immediately.
func (s *Store) ready(ctx context.Context) error {
	if !s.started.Load() {
		return ErrNotInitialized
	}
	select {
	case <-s.initDone:
		if s.initErr != nil {
			return fmt.Errorf("%w: %v", ErrNotInitialized, s.initErr)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) open(ctx context.Context) error {
	if s.dsn != ":memory:" && !strings.HasPrefix(s.dsn, "file::memory:") {
		dir := filepath.Dir(s.dsn)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := s.dsn
	if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		dsn = "file:" + dsn
	}

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// The store has a single logical writer; one connection sidesteps
	// in-memory DSNs opening separate databases per connection.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(5 * time.Minute)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			_ = conn.Close()
			return fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if _, err := conn.ExecContext(ctx, schemaSQL); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	s.db = conn
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.db = nil
	return nil
}

// exists reports whether a row with the given id exists in table.
func (s *Store) exists(ctx context.Context, table, id string) (bool, error) {
	var one int
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE id = ?", table) // #nosec G201 - table names are compile-time constants
	err := s.db.QueryRowContext(ctx, query, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// requireRow maps a missing owner row to ErrNotFound.
func (s *Store) requireRow(ctx context.Context, table, id string) error {
	ok, err := s.exists(ctx, table, id)
	if err != nil {
		return fmt.Errorf("failed to check %s %s: %w", table, id, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s %s", ErrNotFound, strings.TrimSuffix(table, "s"), id)
	}
	return nil
}

// mapNoRows turns sql.ErrNoRows into ErrNotFound for a single-row lookup.
func mapNoRows(err error, kind, id string) error {
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
	}
	return fmt.Errorf("failed to query %s %s: %w", kind, id, err)
}

// marshalList serializes a string list for a TEXT column. Nil and empty
// lists both round-trip to an empty list.
func marshalList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to marshal list: %w", err)
	}
	return string(data), nil
}

func unmarshalList(data string) []string {
	if data == "" || data == "null" {
		return []string{}
	}
	var items []string
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return []string{}
	}
	return items
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func stringOrEmpty(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}
