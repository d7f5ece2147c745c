package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SaveSummary stores the summary for a chapter, replacing any previous one.
// Summaries have replace semantics, never merge: regeneration overwrites
// every field.
func (s *Store) SaveSummary(ctx context.Context, summary *Summary) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := summary.Validate(); err != nil {
		return err
	}
	if err := s.requireRow(ctx, "chapters", summary.ChapterID); err != nil {
		return err
	}

	characters, err := marshalList(summary.Characters)
	if err != nil {
		return err
	}
	beats, err := marshalList(summary.Beats)
	if err != nil {
		return err
	}
	summary.UpdatedAt = time.Now()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chapter_summaries (
			chapter_id, summary, pov, characters, beats, spoilers_ok, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chapter_id) DO UPDATE SET
			summary = excluded.summary,
			pov = excluded.pov,
			characters = excluded.characters,
			beats = excluded.beats,
			spoilers_ok = excluded.spoilers_ok,
			updated_at = excluded.updated_at
	`,
		summary.ChapterID,
		summary.Summary,
		summary.POV,
		characters,
		beats,
		boolToInt(summary.SpoilersOK),
		formatTime(summary.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert summary for chapter %s: %w", summary.ChapterID, err)
	}
	return nil
}

// Summary returns the live summary for a chapter, or nil when none exists.
func (s *Store) Summary(ctx context.Context, chapterID string) (*Summary, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	var sum Summary
	var characters, beats, updatedAt string
	var spoilers int
	err := s.db.QueryRowContext(ctx, `
		SELECT chapter_id, summary, pov, characters, beats, spoilers_ok, updated_at
		FROM chapter_summaries
		WHERE chapter_id = ?
	`, chapterID).Scan(&sum.ChapterID, &sum.Summary, &sum.POV, &characters, &beats, &spoilers, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query summary for chapter %s: %w", chapterID, err)
	}

	sum.Characters = unmarshalList(characters)
	sum.Beats = unmarshalList(beats)
	sum.SpoilersOK = spoilers != 0
	sum.UpdatedAt = parseTime(updatedAt)
	return &sum, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
