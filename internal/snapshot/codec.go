// Package snapshot produces and consumes the transportable snapshot
// document representing the entire local store.
//
// The document is versioned JSON. Export serializes every entity table
// with stable ordering; Import performs a destructive replace of the local
// state inside a single transaction. Older document versions are upgraded
// in place through a table of pure step migrations before loading; newer
// versions fail with ErrUnsupportedSchema rather than attempting a lossy
// import.
//
// This format is the one on-disk/on-wire contract the core owns. Changing
// it requires a new schema version plus an upgrade step from the previous
// one.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gennitdev/storykeep/internal/store"
)

// SchemaVersion is the current snapshot document version.
//
// Version history:
//
//	1 - initial format: books, chapters, summaries, reviews, profiles,
//	    wiki pages, wiki updates, mentions
//	2 - adds parts and per-part chapter ordering
const SchemaVersion = 2

var (
	// ErrUnsupportedSchema is returned when a snapshot's version is newer
	// than this codec understands. The local state is left untouched.
	ErrUnsupportedSchema = errors.New("unsupported snapshot schema version")

	// ErrInvalidSnapshot is returned when the snapshot bytes cannot be
	// parsed as a snapshot document at all.
	ErrInvalidSnapshot = errors.New("invalid snapshot document")
)

// Document is the versioned snapshot format. The embedded Dataset carries
// every entity table.
type Document struct {
	SchemaVersion int       `json:"schema_version"`
	ExportedAt    time.Time `json:"exported_at"`
	store.Dataset
}

// Export reads the entire store and serializes it into a snapshot
// document. Entity ordering inside the document is stable, so exporting
// the same state twice yields identical bytes apart from the export
// timestamp.
func Export(ctx context.Context, s *store.Store) ([]byte, error) {
	ds, err := s.Dump(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to dump store: %w", err)
	}

	doc := Document{
		SchemaVersion: SchemaVersion,
		ExportedAt:    time.Now().UTC(),
		Dataset:       *ds,
	}

	data, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

// Import parses a snapshot document, migrates it to the current schema
// version, and replaces the store's contents with it as one transaction.
//
// A document with a newer schema version fails with ErrUnsupportedSchema;
// malformed bytes fail with ErrInvalidSnapshot. In both cases the store is
// untouched.
func Import(ctx context.Context, s *store.Store, data []byte) error {
	doc, err := decode(data)
	if err != nil {
		return err
	}
	if err := s.Load(ctx, &doc.Dataset); err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	return nil
}

// decode parses snapshot bytes and migrates them to the current version.
func decode(data []byte) (*Document, error) {
	var probe struct {
		SchemaVersion int `json:"schema_version"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if probe.SchemaVersion < 1 {
		return nil, fmt.Errorf("%w: missing schema_version", ErrInvalidSnapshot)
	}
	if probe.SchemaVersion > SchemaVersion {
		return nil, fmt.Errorf("%w: %d (this build understands up to %d)",
			ErrUnsupportedSchema, probe.SchemaVersion, SchemaVersion)
	}

	raw := make(map[string]any)
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	for v := probe.SchemaVersion; v < SchemaVersion; v++ {
		upgrade, ok := upgrades[v]
		if !ok {
			return nil, fmt.Errorf("%w: no upgrade path from version %d", ErrUnsupportedSchema, v)
		}
		migrated, err := upgrade(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to upgrade snapshot from version %d: %w", v, err)
		}
		migrated["schema_version"] = v + 1
		raw = migrated
	}

	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	var doc Document
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return &doc, nil
}
