package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

// CreateProfile adds a custom reviewer persona and returns its assigned
// numeric id.
func (s *Store) CreateProfile(ctx context.Context, profile *Profile) (int64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	if err := profile.Validate(); err != nil {
		return 0, err
	}

	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO reviewer_profiles (name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, profile.Name, profile.Description, formatTime(now), formatTime(now))
	if err != nil {
		return 0, fmt.Errorf("failed to insert profile: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read profile id: %w", err)
	}
	profile.ID = id
	return id, nil
}

// Profiles returns all reviewer personas ordered by creation time.
func (s *Store) Profiles(ctx context.Context) ([]*Profile, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM reviewer_profiles
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		var p Profile
		var createdAt, updatedAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		p.CreatedAt = parseTime(createdAt)
		p.UpdatedAt = parseTime(updatedAt)
		profiles = append(profiles, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}
	return profiles, nil
}

// Profile retrieves a single reviewer persona.
func (s *Store) Profile(ctx context.Context, id int64) (*Profile, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	var p Profile
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM reviewer_profiles WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.Description, &createdAt, &updatedAt)
	if err != nil {
		return nil, mapNoRows(err, "profile", strconv.FormatInt(id, 10))
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

// UpdateProfile rewrites a persona's name and description.
func (s *Store) UpdateProfile(ctx context.Context, profile *Profile) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := profile.Validate(); err != nil {
		return err
	}
	if err := s.requireProfile(ctx, profile.ID); err != nil {
		return err
	}

	profile.UpdatedAt = time.Now()
	_, err := s.db.ExecContext(ctx, `
		UPDATE reviewer_profiles SET name = ?, description = ?, updated_at = ?
		WHERE id = ?
	`, profile.Name, profile.Description, formatTime(profile.UpdatedAt), profile.ID)
	if err != nil {
		return fmt.Errorf("failed to update profile %d: %w", profile.ID, err)
	}
	return nil
}

// DeleteProfile removes a persona. Every review that references it is
// deleted by schema cascade; callers are expected to confirm with the user
// before invoking this.
func (s *Store) DeleteProfile(ctx context.Context, id int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := s.requireProfile(ctx, id); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM reviewer_profiles WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete profile %d: %w", id, err)
	}
	return nil
}

func (s *Store) requireProfile(ctx context.Context, id int64) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM reviewer_profiles WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: profile %d", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to check profile %d: %w", id, err)
	}
	return nil
}
