package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SaveReview inserts or updates a review by id. Unlike summaries, a chapter
// accumulates reviews; saving never touches other reviews of the chapter.
func (s *Store) SaveReview(ctx context.Context, review *Review) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := review.Validate(); err != nil {
		return err
	}
	if err := s.requireRow(ctx, "chapters", review.ChapterID); err != nil {
		return err
	}
	if review.ProfileID != nil {
		if err := s.requireProfile(ctx, *review.ProfileID); err != nil {
			return err
		}
	}

	now := time.Now()
	if review.CreatedAt.IsZero() {
		review.CreatedAt = now
	}
	review.UpdatedAt = now

	var profileID sql.NullInt64
	if review.ProfileID != nil {
		profileID = sql.NullInt64{Int64: *review.ProfileID, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chapter_reviews (
			id, chapter_id, review_text, prompt_used, profile_id, profile_name,
			tone_key, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			review_text = excluded.review_text,
			prompt_used = excluded.prompt_used,
			profile_id = excluded.profile_id,
			profile_name = excluded.profile_name,
			tone_key = excluded.tone_key,
			updated_at = excluded.updated_at
	`,
		review.ID,
		review.ChapterID,
		review.ReviewText,
		nullString(review.PromptUsed),
		profileID,
		nullString(review.ProfileName),
		review.ToneKey,
		formatTime(review.CreatedAt),
		formatTime(review.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert review %s: %w", review.ID, err)
	}
	return nil
}

// Reviews returns a chapter's reviews, newest first.
func (s *Store) Reviews(ctx context.Context, chapterID string) ([]*Review, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chapter_id, review_text, prompt_used, profile_id, profile_name,
			tone_key, created_at, updated_at
		FROM chapter_reviews
		WHERE chapter_id = ?
		ORDER BY created_at DESC, id DESC
	`, chapterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}
	return reviews, nil
}

// DeleteReview removes a single review.
func (s *Store) DeleteReview(ctx context.Context, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM chapter_reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check review delete: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: review %s", ErrNotFound, id)
	}
	return nil
}
