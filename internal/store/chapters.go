package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// WordCount is the derived word count of a chapter body: the number of
// whitespace-delimited tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

const chapterColumns = `id, book_id, part_id, title, text, word_count,
	position, position_in_part, created_at, updated_at`

// Chapters returns a book's chapters in reading order: parted chapters
// first (by part position, then position within the part), uncategorized
// chapters last by their own position.
func (s *Store) Chapters(ctx context.Context, bookID string) ([]*Chapter, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.book_id, c.part_id, c.title, c.text, c.word_count,
			c.position, c.position_in_part, c.created_at, c.updated_at
		FROM chapters c
		LEFT JOIN parts p ON p.id = c.part_id
		WHERE c.book_id = ?
		ORDER BY c.part_id IS NULL ASC,
			p.position ASC,
			c.position_in_part ASC,
			c.position ASC
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chapters: %w", err)
	}
	defer rows.Close()

	return scanChapters(rows)
}

// Chapter retrieves a single chapter by id.
func (s *Store) Chapter(ctx context.Context, id string) (*Chapter, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	return s.chapterByID(ctx, id)
}

func (s *Store) chapterByID(ctx context.Context, id string) (*Chapter, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+chapterColumns+` FROM chapters WHERE id = ?
	`, id)

	c, err := scanChapter(row.Scan)
	if err != nil {
		return nil, mapNoRows(err, "chapter", id)
	}
	return c, nil
}

// SaveChapter inserts or updates a chapter by id.
//
// WordCount is always recomputed from Text; the caller-supplied value is
// ignored. Fails with ErrValidation when book_id is missing and ErrNotFound
// when the owning book (or referenced part) does not exist.
func (s *Store) SaveChapter(ctx context.Context, chapter *Chapter) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := chapter.Validate(); err != nil {
		return err
	}
	if err := s.requireRow(ctx, "books", chapter.BookID); err != nil {
		return err
	}
	if chapter.PartID != nil {
		if err := s.requireRow(ctx, "parts", *chapter.PartID); err != nil {
			return err
		}
	}

	now := time.Now()
	if chapter.CreatedAt.IsZero() {
		chapter.CreatedAt = now
	}
	chapter.UpdatedAt = now
	chapter.WordCount = WordCount(chapter.Text)

	var partID sql.NullString
	var posInPart sql.NullInt64
	if chapter.PartID != nil {
		partID = sql.NullString{String: *chapter.PartID, Valid: true}
		posInPart = sql.NullInt64{Int64: int64(chapter.PositionInPart), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chapters (
			id, book_id, part_id, title, text, word_count,
			position, position_in_part, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			book_id = excluded.book_id,
			part_id = excluded.part_id,
			title = excluded.title,
			text = excluded.text,
			word_count = excluded.word_count,
			position = excluded.position,
			position_in_part = excluded.position_in_part,
			updated_at = excluded.updated_at
	`,
		chapter.ID,
		chapter.BookID,
		partID,
		nullString(chapter.Title),
		chapter.Text,
		chapter.WordCount,
		chapter.Position,
		posInPart,
		formatTime(chapter.CreatedAt),
		formatTime(chapter.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert chapter %s: %w", chapter.ID, err)
	}
	return nil
}

// DeleteChapter removes a chapter and its summary, reviews, mentions, and
// wiki log rows via schema cascade.
func (s *Store) DeleteChapter(ctx context.Context, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := s.requireRow(ctx, "chapters", id); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM chapters WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete chapter %s: %w", id, err)
	}
	return nil
}

// UpdateChapterOrders atomically rewrites ordering state for a book.
//
// chapterOrder lists every affected chapter id in its new book-wide
// position. partUpdates maps part id to the ordered chapter ids belonging
// to that part; listed chapters get that part and a contiguous
// position_in_part from 0. Chapters in chapterOrder that appear in no part
// list become uncategorized. This call is the sole authority for final
// positions: it either fully applies or leaves prior ordering untouched.
func (s *Store) UpdateChapterOrders(ctx context.Context, bookID string, chapterOrder []string, partUpdates map[string][]string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := s.requireRow(ctx, "books", bookID); err != nil {
		return err
	}

	// Validate before any write so a bad request cannot half-apply.
	seen := make(map[string]bool, len(chapterOrder))
	for _, id := range chapterOrder {
		if seen[id] {
			return fmt.Errorf("%w: duplicate chapter %s in order", ErrValidation, id)
		}
		seen[id] = true
	}
	partOf := make(map[string]string)
	for partID, ids := range partUpdates {
		for _, id := range ids {
			if other, ok := partOf[id]; ok && other != partID {
				return fmt.Errorf("%w: chapter %s assigned to parts %s and %s", ErrValidation, id, other, partID)
			}
			partOf[id] = partID
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for partID := range partUpdates {
		if err := requireRowTx(ctx, tx, "parts", "part", partID); err != nil {
			return err
		}
	}

	apply := func(query string, args ...any) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to update chapter order: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check reorder result: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: chapter %v not in book %s", ErrNotFound, args[len(args)-1], bookID)
		}
		return nil
	}

	for i, id := range chapterOrder {
		if err := apply(`
			UPDATE chapters SET position = ? WHERE book_id = ? AND id = ?
		`, i, bookID, id); err != nil {
			return err
		}
		if _, inPart := partOf[id]; !inPart {
			if err := apply(`
				UPDATE chapters SET part_id = NULL, position_in_part = NULL
				WHERE book_id = ? AND id = ?
			`, bookID, id); err != nil {
				return err
			}
		}
	}

	for partID, ids := range partUpdates {
		for i, id := range ids {
			if err := apply(`
				UPDATE chapters SET part_id = ?, position_in_part = ?
				WHERE book_id = ? AND id = ?
			`, partID, i, bookID, id); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reorder: %w", err)
	}
	return nil
}

func requireRowTx(ctx context.Context, tx *sql.Tx, table, kind, id string) error {
	var one int
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE id = ?", table) // #nosec G201 - table names are compile-time constants
	err := tx.QueryRowContext(ctx, query, id).Scan(&one)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
	}
	if err != nil {
		return fmt.Errorf("failed to check %s %s: %w", kind, id, err)
	}
	return nil
}

// scanChapter reads one chapter row via the given scan function.
func scanChapter(scan func(...any) error) (*Chapter, error) {
	var c Chapter
	var partID, title sql.NullString
	var posInPart sql.NullInt64
	var createdAt, updatedAt string

	err := scan(
		&c.ID,
		&c.BookID,
		&partID,
		&title,
		&c.Text,
		&c.WordCount,
		&c.Position,
		&posInPart,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if partID.Valid {
		c.PartID = &partID.String
	}
	c.Title = stringOrEmpty(title)
	if posInPart.Valid {
		c.PositionInPart = int(posInPart.Int64)
	}
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return &c, nil
}

func scanChapters(rows *sql.Rows) ([]*Chapter, error) {
	var chapters []*Chapter
	for rows.Next() {
		c, err := scanChapter(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chapter: %w", err)
		}
		chapters = append(chapters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chapters: %w", err)
	}
	return chapters, nil
}
