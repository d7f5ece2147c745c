package store

import (
	"context"
	"database/sql"
	"fmt"
)

// CreatePart adds a chapter grouping to a book.
//
// Fails with ErrNotFound if the book does not exist and ErrValidation if
// the position is already taken within the book.
func (s *Store) CreatePart(ctx context.Context, part *Part) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := part.Validate(); err != nil {
		return err
	}
	if err := s.requireRow(ctx, "books", part.BookID); err != nil {
		return err
	}
	if err := s.checkPartPosition(ctx, part.BookID, part.ID, part.Position); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO parts (id, book_id, name, position)
		VALUES (?, ?, ?, ?)
	`, part.ID, part.BookID, part.Name, part.Position)
	if err != nil {
		return fmt.Errorf("failed to insert part %s: %w", part.ID, err)
	}
	return nil
}

// UpdatePart renames or repositions an existing part.
func (s *Store) UpdatePart(ctx context.Context, part *Part) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := part.Validate(); err != nil {
		return err
	}

	existing, err := s.partByID(ctx, part.ID)
	if err != nil {
		return err
	}
	if err := s.checkPartPosition(ctx, existing.BookID, part.ID, part.Position); err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE parts SET name = ?, position = ? WHERE id = ?
	`, part.Name, part.Position, part.ID)
	if err != nil {
		return fmt.Errorf("failed to update part %s: %w", part.ID, err)
	}
	return nil
}

// DeletePart removes a part. Its chapters survive: the part_id foreign key
// is declared ON DELETE SET NULL, so they become uncategorized rather than
// being destroyed.
func (s *Store) DeletePart(ctx context.Context, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.partByID(ctx, id); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM parts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete part %s: %w", id, err)
	}
	return nil
}

// Parts returns a book's parts ordered by position.
func (s *Store) Parts(ctx context.Context, bookID string) ([]*Part, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, book_id, name, position
		FROM parts
		WHERE book_id = ?
		ORDER BY position ASC
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to query parts: %w", err)
	}
	defer rows.Close()

	var parts []*Part
	for rows.Next() {
		var p Part
		if err := rows.Scan(&p.ID, &p.BookID, &p.Name, &p.Position); err != nil {
			return nil, fmt.Errorf("failed to scan part: %w", err)
		}
		parts = append(parts, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating parts: %w", err)
	}
	return parts, nil
}

func (s *Store) partByID(ctx context.Context, id string) (*Part, error) {
	var p Part
	err := s.db.QueryRowContext(ctx, `
		SELECT id, book_id, name, position FROM parts WHERE id = ?
	`, id).Scan(&p.ID, &p.BookID, &p.Name, &p.Position)
	if err != nil {
		return nil, mapNoRows(err, "part", id)
	}
	return &p, nil
}

// checkPartPosition rejects a position already held by a different part of
// the same book, so the unique constraint surfaces as a ValidationError
// instead of a raw SQLite error.
func (s *Store) checkPartPosition(ctx context.Context, bookID, partID string, position int) error {
	var other string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM parts WHERE book_id = ? AND position = ? AND id != ?
	`, bookID, position, partID).Scan(&other)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check part position: %w", err)
	}
	return fmt.Errorf("%w: position %d already used by part %s", ErrValidation, position, other)
}
