package store

import (
	"context"
	"fmt"
	"time"
)

// Books returns all books ordered by creation time, oldest first.
func (s *Store) Books(ctx context.Context) ([]*Book, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, created_at
		FROM books
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	var books []*Book
	for rows.Next() {
		var b Book
		var createdAt string
		if err := rows.Scan(&b.ID, &b.Title, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		b.CreatedAt = parseTime(createdAt)
		books = append(books, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating books: %w", err)
	}
	return books, nil
}

// Book retrieves a single book by id.
func (s *Store) Book(ctx context.Context, id string) (*Book, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	var b Book
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, created_at FROM books WHERE id = ?
	`, id).Scan(&b.ID, &b.Title, &createdAt)
	if err != nil {
		return nil, mapNoRows(err, "book", id)
	}
	b.CreatedAt = parseTime(createdAt)
	return &b, nil
}

// SaveBook inserts or updates a book by id. A zero CreatedAt is filled with
// the current time on first insert.
func (s *Store) SaveBook(ctx context.Context, book *Book) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := book.Validate(); err != nil {
		return err
	}
	if book.CreatedAt.IsZero() {
		book.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO books (id, title, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title
	`, book.ID, book.Title, formatTime(book.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert book %s: %w", book.ID, err)
	}
	return nil
}

// DeleteBook removes a book and, via schema cascade, all of its chapters,
// parts, wiki pages, summaries, reviews, mentions, and wiki log entries.
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := s.requireRow(ctx, "books", id); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete book %s: %w", id, err)
	}
	return nil
}
