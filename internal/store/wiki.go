package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const wikiColumns = `id, book_id, page_name, page_type, content, summary,
	aliases, tags, is_major, created_by_ai, created_at, updated_at`

// SaveWikiPage inserts or updates a wiki page by id.
//
// Page names are unique per book, compared case-insensitively; a clash with
// a different page fails with ErrValidation.
func (s *Store) SaveWikiPage(ctx context.Context, page *WikiPage) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := page.Validate(); err != nil {
		return err
	}
	if err := s.requireRow(ctx, "books", page.BookID); err != nil {
		return err
	}

	// Pre-check the case-insensitive name constraint for a clean error.
	var other string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM wiki_pages
		WHERE book_id = ? AND page_name = ? COLLATE NOCASE AND id != ?
	`, page.BookID, page.PageName, page.ID).Scan(&other)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to check page name: %w", err)
	}
	if err == nil {
		return fmt.Errorf("%w: page name %q already used by page %s", ErrValidation, page.PageName, other)
	}

	aliases, err := marshalList(page.Aliases)
	if err != nil {
		return err
	}
	tags, err := marshalList(page.Tags)
	if err != nil {
		return err
	}

	now := time.Now()
	if page.CreatedAt.IsZero() {
		page.CreatedAt = now
	}
	page.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO wiki_pages (
			id, book_id, page_name, page_type, content, summary,
			aliases, tags, is_major, created_by_ai, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			page_name = excluded.page_name,
			page_type = excluded.page_type,
			content = excluded.content,
			summary = excluded.summary,
			aliases = excluded.aliases,
			tags = excluded.tags,
			is_major = excluded.is_major,
			created_by_ai = excluded.created_by_ai,
			updated_at = excluded.updated_at
	`,
		page.ID,
		page.BookID,
		page.PageName,
		page.PageType,
		page.Content,
		page.Summary,
		aliases,
		tags,
		boolToInt(page.IsMajor),
		boolToInt(page.CreatedByAI),
		formatTime(page.CreatedAt),
		formatTime(page.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert wiki page %s: %w", page.ID, err)
	}
	return nil
}

// WikiPages returns a book's wiki pages ordered by page name.
func (s *Store) WikiPages(ctx context.Context, bookID string) ([]*WikiPage, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+wikiColumns+`
		FROM wiki_pages
		WHERE book_id = ?
		ORDER BY page_name COLLATE NOCASE ASC
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wiki pages: %w", err)
	}
	defer rows.Close()

	return scanWikiPages(rows)
}

// WikiPage retrieves a single wiki page by id.
func (s *Store) WikiPage(ctx context.Context, id string) (*WikiPage, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	return s.wikiPageByID(ctx, id)
}

func (s *Store) wikiPageByID(ctx context.Context, id string) (*WikiPage, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+wikiColumns+` FROM wiki_pages WHERE id = ?
	`, id)
	p, err := scanWikiPage(row.Scan)
	if err != nil {
		return nil, mapNoRows(err, "wiki page", id)
	}
	return p, nil
}

// DeleteWikiPage removes a page and its mentions and log rows via cascade.
func (s *Store) DeleteWikiPage(ctx context.Context, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := s.requireRow(ctx, "wiki_pages", id); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM wiki_pages WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete wiki page %s: %w", id, err)
	}
	return nil
}

// TrackWikiUpdate appends one record to the wiki update log. The log is
// append-only; records are never mutated after insert.
func (s *Store) TrackWikiUpdate(ctx context.Context, update *WikiUpdate) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := update.Validate(); err != nil {
		return err
	}
	if err := s.requireRow(ctx, "wiki_pages", update.WikiPageID); err != nil {
		return err
	}
	if err := s.requireRow(ctx, "chapters", update.ChapterID); err != nil {
		return err
	}

	if update.CreatedAt.IsZero() {
		update.CreatedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO wiki_update_log (
			wiki_page_id, chapter_id, update_type, change_summary,
			contradiction_notes, created_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`,
		update.WikiPageID,
		update.ChapterID,
		update.UpdateType,
		nullString(update.ChangeSummary),
		nullString(update.ContradictionNotes),
		formatTime(update.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to append wiki update: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		update.ID = id
	}
	return nil
}

// WikiUpdates returns the update log for a page, oldest first.
func (s *Store) WikiUpdates(ctx context.Context, wikiPageID string) ([]*WikiUpdate, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, wiki_page_id, chapter_id, update_type, change_summary,
			contradiction_notes, created_at
		FROM wiki_update_log
		WHERE wiki_page_id = ?
		ORDER BY id ASC
	`, wikiPageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wiki updates: %w", err)
	}
	defer rows.Close()

	var updates []*WikiUpdate
	for rows.Next() {
		var u WikiUpdate
		var changeSummary, contradictionNotes sql.NullString
		var createdAt string
		if err := rows.Scan(&u.ID, &u.WikiPageID, &u.ChapterID, &u.UpdateType,
			&changeSummary, &contradictionNotes, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan wiki update: %w", err)
		}
		u.ChangeSummary = stringOrEmpty(changeSummary)
		u.ContradictionNotes = stringOrEmpty(contradictionNotes)
		u.CreatedAt = parseTime(createdAt)
		updates = append(updates, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wiki updates: %w", err)
	}
	return updates, nil
}

// AddChapterWikiMention records that a chapter mentions a wiki page.
// Adding an existing mention is a no-op, not a duplicate.
func (s *Store) AddChapterWikiMention(ctx context.Context, chapterID, wikiPageID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := s.requireRow(ctx, "chapters", chapterID); err != nil {
		return err
	}
	if err := s.requireRow(ctx, "wiki_pages", wikiPageID); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chapter_wiki_mentions (chapter_id, wiki_page_id)
		VALUES (?, ?)
		ON CONFLICT(chapter_id, wiki_page_id) DO NOTHING
	`, chapterID, wikiPageID)
	if err != nil {
		return fmt.Errorf("failed to add mention %s -> %s: %w", chapterID, wikiPageID, err)
	}
	return nil
}

// MentionsForChapter returns the wiki pages a chapter mentions.
func (s *Store) MentionsForChapter(ctx context.Context, chapterID string) ([]*Mention, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT chapter_id, wiki_page_id
		FROM chapter_wiki_mentions
		WHERE chapter_id = ?
		ORDER BY wiki_page_id ASC
	`, chapterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query mentions: %w", err)
	}
	defer rows.Close()

	var mentions []*Mention
	for rows.Next() {
		var m Mention
		if err := rows.Scan(&m.ChapterID, &m.WikiPageID); err != nil {
			return nil, fmt.Errorf("failed to scan mention: %w", err)
		}
		mentions = append(mentions, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mentions: %w", err)
	}
	return mentions, nil
}

func scanWikiPage(scan func(...any) error) (*WikiPage, error) {
	var p WikiPage
	var aliases, tags string
	var isMajor, createdByAI int
	var createdAt, updatedAt string

	err := scan(
		&p.ID,
		&p.BookID,
		&p.PageName,
		&p.PageType,
		&p.Content,
		&p.Summary,
		&aliases,
		&tags,
		&isMajor,
		&createdByAI,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Aliases = unmarshalList(aliases)
	p.Tags = unmarshalList(tags)
	p.IsMajor = isMajor != 0
	p.CreatedByAI = createdByAI != 0
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

func scanWikiPages(rows *sql.Rows) ([]*WikiPage, error) {
	var pages []*WikiPage
	for rows.Next() {
		p, err := scanWikiPage(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wiki page: %w", err)
		}
		pages = append(pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wiki pages: %w", err)
	}
	return pages, nil
}
