package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Dataset is the full contents of the store, as read by Dump and written by
// Load. The snapshot codec turns a Dataset into the transportable snapshot
// document and back.
type Dataset struct {
	Books       []*Book       `json:"books"`
	Parts       []*Part       `json:"parts"`
	Chapters    []*Chapter    `json:"chapters"`
	Summaries   []*Summary    `json:"summaries"`
	Reviews     []*Review     `json:"reviews"`
	Profiles    []*Profile    `json:"profiles"`
	WikiPages   []*WikiPage   `json:"wiki_pages"`
	WikiUpdates []*WikiUpdate `json:"wiki_updates"`
	Mentions    []*Mention    `json:"mentions"`
}

// Dump reads every entity table into a Dataset with stable ordering, so
// two dumps of the same state are byte-identical after serialization.
func (s *Store) Dump(ctx context.Context) (*Dataset, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	ds := &Dataset{}
	var err error

	if ds.Books, err = s.dumpBooks(ctx); err != nil {
		return nil, err
	}
	if ds.Parts, err = s.dumpParts(ctx); err != nil {
		return nil, err
	}
	if ds.Chapters, err = s.dumpChapters(ctx); err != nil {
		return nil, err
	}
	if ds.Summaries, err = s.dumpSummaries(ctx); err != nil {
		return nil, err
	}
	if ds.Reviews, err = s.dumpReviews(ctx); err != nil {
		return nil, err
	}
	if ds.Profiles, err = s.Profiles(ctx); err != nil {
		return nil, err
	}
	if ds.WikiPages, err = s.dumpWikiPages(ctx); err != nil {
		return nil, err
	}
	if ds.WikiUpdates, err = s.dumpWikiUpdates(ctx); err != nil {
		return nil, err
	}
	if ds.Mentions, err = s.dumpMentions(ctx); err != nil {
		return nil, err
	}
	return ds, nil
}

// Load performs a destructive replace: every current entity is discarded
// and the dataset's contents are written in their place, all inside one
// transaction. On any failure the prior state is left intact and no
// partially-imported state is ever observable.
func (s *Store) Load(ctx context.Context, ds *Dataset) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Children first so foreign keys never dangle mid-transaction.
	for _, table := range []string{
		"chapter_wiki_mentions",
		"wiki_update_log",
		"chapter_reviews",
		"chapter_summaries",
		"wiki_pages",
		"chapters",
		"parts",
		"reviewer_profiles",
		"books",
	} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil { // #nosec G202 - table names are compile-time constants
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, b := range ds.Books {
		if err := b.Validate(); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO books (id, title, created_at) VALUES (?, ?, ?)
		`, b.ID, b.Title, formatTime(b.CreatedAt)); err != nil {
			return fmt.Errorf("failed to load book %s: %w", b.ID, err)
		}
	}

	for _, p := range ds.Parts {
		if err := p.Validate(); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO parts (id, book_id, name, position) VALUES (?, ?, ?, ?)
		`, p.ID, p.BookID, p.Name, p.Position); err != nil {
			return fmt.Errorf("failed to load part %s: %w", p.ID, err)
		}
	}

	for _, c := range ds.Chapters {
		if err := c.Validate(); err != nil {
			return err
		}
		var partID sql.NullString
		var posInPart sql.NullInt64
		if c.PartID != nil {
			partID = sql.NullString{String: *c.PartID, Valid: true}
			posInPart = sql.NullInt64{Int64: int64(c.PositionInPart), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chapters (
				id, book_id, part_id, title, text, word_count,
				position, position_in_part, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, c.ID, c.BookID, partID, nullString(c.Title), c.Text, WordCount(c.Text),
			c.Position, posInPart, formatTime(c.CreatedAt), formatTime(c.UpdatedAt)); err != nil {
			return fmt.Errorf("failed to load chapter %s: %w", c.ID, err)
		}
	}

	for _, sum := range ds.Summaries {
		if err := sum.Validate(); err != nil {
			return err
		}
		characters, err := marshalList(sum.Characters)
		if err != nil {
			return err
		}
		beats, err := marshalList(sum.Beats)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chapter_summaries (
				chapter_id, summary, pov, characters, beats, spoilers_ok, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)
		`, sum.ChapterID, sum.Summary, sum.POV, characters, beats,
			boolToInt(sum.SpoilersOK), formatTime(sum.UpdatedAt)); err != nil {
			return fmt.Errorf("failed to load summary for %s: %w", sum.ChapterID, err)
		}
	}

	for _, p := range ds.Profiles {
		if err := p.Validate(); err != nil {
			return err
		}
		// Legacy exports can carry profiles without an id; a NULL id lets
		// SQLite assign one instead of colliding on 0.
		var profileID sql.NullInt64
		if p.ID != 0 {
			profileID = sql.NullInt64{Int64: p.ID, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO reviewer_profiles (id, name, description, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
		`, profileID, p.Name, p.Description, formatTime(p.CreatedAt), formatTime(p.UpdatedAt)); err != nil {
			return fmt.Errorf("failed to load profile %q: %w", p.Name, err)
		}
	}

	for _, r := range ds.Reviews {
		if err := r.Validate(); err != nil {
			return err
		}
		var profileID sql.NullInt64
		if r.ProfileID != nil {
			profileID = sql.NullInt64{Int64: *r.ProfileID, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chapter_reviews (
				id, chapter_id, review_text, prompt_used, profile_id, profile_name,
				tone_key, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, r.ID, r.ChapterID, r.ReviewText, nullString(r.PromptUsed), profileID,
			nullString(r.ProfileName), r.ToneKey, formatTime(r.CreatedAt),
			formatTime(r.UpdatedAt)); err != nil {
			return fmt.Errorf("failed to load review %s: %w", r.ID, err)
		}
	}

	for _, w := range ds.WikiPages {
		if err := w.Validate(); err != nil {
			return err
		}
		aliases, err := marshalList(w.Aliases)
		if err != nil {
			return err
		}
		tags, err := marshalList(w.Tags)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO wiki_pages (
				id, book_id, page_name, page_type, content, summary,
				aliases, tags, is_major, created_by_ai, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, w.ID, w.BookID, w.PageName, w.PageType, w.Content, w.Summary,
			aliases, tags, boolToInt(w.IsMajor), boolToInt(w.CreatedByAI),
			formatTime(w.CreatedAt), formatTime(w.UpdatedAt)); err != nil {
			return fmt.Errorf("failed to load wiki page %s: %w", w.ID, err)
		}
	}

	for _, u := range ds.WikiUpdates {
		if err := u.Validate(); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO wiki_update_log (
				wiki_page_id, chapter_id, update_type, change_summary,
				contradiction_notes, created_at
			) VALUES (?, ?, ?, ?, ?, ?)
		`, u.WikiPageID, u.ChapterID, u.UpdateType, nullString(u.ChangeSummary),
			nullString(u.ContradictionNotes), formatTime(u.CreatedAt)); err != nil {
			return fmt.Errorf("failed to load wiki update: %w", err)
		}
	}

	for _, m := range ds.Mentions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chapter_wiki_mentions (chapter_id, wiki_page_id)
			VALUES (?, ?)
			ON CONFLICT(chapter_id, wiki_page_id) DO NOTHING
		`, m.ChapterID, m.WikiPageID); err != nil {
			return fmt.Errorf("failed to load mention: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	return nil
}

func (s *Store) dumpBooks(ctx context.Context) ([]*Book, error) {
	return s.Books(ctx)
}

func (s *Store) dumpParts(ctx context.Context) ([]*Part, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, book_id, name, position FROM parts ORDER BY book_id ASC, position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to dump parts: %w", err)
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
	return parts, rows.Err()
}

func (s *Store) dumpChapters(ctx context.Context) ([]*Chapter, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+chapterColumns+` FROM chapters ORDER BY book_id ASC, position ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to dump chapters: %w", err)
	}
	defer rows.Close()
	return scanChapters(rows)
}

func (s *Store) dumpSummaries(ctx context.Context) ([]*Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chapter_id, summary, pov, characters, beats, spoilers_ok, updated_at
		FROM chapter_summaries ORDER BY chapter_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to dump summaries: %w", err)
	}
	defer rows.Close()

	var summaries []*Summary
	for rows.Next() {
		var sum Summary
		var characters, beats, updatedAt string
		var spoilers int
		if err := rows.Scan(&sum.ChapterID, &sum.Summary, &sum.POV,
			&characters, &beats, &spoilers, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		sum.Characters = unmarshalList(characters)
		sum.Beats = unmarshalList(beats)
		sum.SpoilersOK = spoilers != 0
		sum.UpdatedAt = parseTime(updatedAt)
		summaries = append(summaries, &sum)
	}
	return summaries, rows.Err()
}

func (s *Store) dumpReviews(ctx context.Context) ([]*Review, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chapter_id, review_text, prompt_used, profile_id, profile_name,
			tone_key, created_at, updated_at
		FROM chapter_reviews ORDER BY chapter_id ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to dump reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*Review
	for rows.Next() {
		var r Review
		var promptUsed, profileName sql.NullString
		var profileID sql.NullInt64
		var createdAt, updatedAt string
		if err := rows.Scan(&r.ID, &r.ChapterID, &r.ReviewText, &promptUsed,
			&profileID, &profileName, &r.ToneKey, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		r.PromptUsed = stringOrEmpty(promptUsed)
		r.ProfileName = stringOrEmpty(profileName)
		if profileID.Valid {
			id := profileID.Int64
			r.ProfileID = &id
		}
		r.CreatedAt = parseTime(createdAt)
		r.UpdatedAt = parseTime(updatedAt)
		reviews = append(reviews, &r)
	}
	return reviews, rows.Err()
}

func (s *Store) dumpWikiPages(ctx context.Context) ([]*WikiPage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+wikiColumns+` FROM wiki_pages ORDER BY book_id ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to dump wiki pages: %w", err)
	}
	defer rows.Close()
	return scanWikiPages(rows)
}

func (s *Store) dumpWikiUpdates(ctx context.Context) ([]*WikiUpdate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, wiki_page_id, chapter_id, update_type, change_summary,
			contradiction_notes, created_at
		FROM wiki_update_log ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to dump wiki updates: %w", err)
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
	return updates, rows.Err()
}

func (s *Store) dumpMentions(ctx context.Context) ([]*Mention, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chapter_id, wiki_page_id FROM chapter_wiki_mentions
		ORDER BY chapter_id ASC, wiki_page_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to dump mentions: %w", err)
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
	return mentions, rows.Err()
}
