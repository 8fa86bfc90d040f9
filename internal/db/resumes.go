package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SaveResume stores a user's resume, replacing any earlier upload.
func (db *DB) SaveResume(ctx context.Context, resume *Resume) error {
	err := db.pool.QueryRow(ctx,
		`INSERT INTO resumes (user_id, filename, text, pages)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO UPDATE
		   SET filename = EXCLUDED.filename, text = EXCLUDED.text,
		       pages = EXCLUDED.pages, uploaded_at = NOW()
		 RETURNING uploaded_at`,
		resume.UserID, resume.Filename, resume.Text, resume.Pages,
	).Scan(&resume.UploadedAt)
	if err != nil {
		return fmt.Errorf("failed to save resume: %w", err)
	}
	return nil
}

// GetResume returns the user's stored resume, or nil, nil when none was
// uploaded.
func (db *DB) GetResume(ctx context.Context, userID uuid.UUID) (*Resume, error) {
	var r Resume
	err := db.pool.QueryRow(ctx,
		`SELECT user_id, filename, text, pages, uploaded_at FROM resumes WHERE user_id = $1`,
		userID,
	).Scan(&r.UserID, &r.Filename, &r.Text, &r.Pages, &r.UploadedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}
	return &r, nil
}
