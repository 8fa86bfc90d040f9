package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const coverLetterColumns = `id, user_id, template_type, job_text, job_hash, body,
	candidate_name, company, position, created_at`

func scanCoverLetter(row pgx.Row) (*CoverLetter, error) {
	var l CoverLetter
	err := row.Scan(&l.ID, &l.UserID, &l.TemplateType, &l.JobText, &l.JobHash, &l.Body,
		&l.CandidateName, &l.Company, &l.Position, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// SaveCoverLetter inserts a generated letter and fills in its ID and
// creation time.
func (db *DB) SaveCoverLetter(ctx context.Context, letter *CoverLetter) error {
	err := db.pool.QueryRow(ctx,
		`INSERT INTO cover_letters
		   (user_id, template_type, job_text, job_hash, body, candidate_name, company, position)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		letter.UserID, letter.TemplateType, letter.JobText, letter.JobHash, letter.Body,
		letter.CandidateName, letter.Company, letter.Position,
	).Scan(&letter.ID, &letter.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save cover letter: %w", err)
	}
	return nil
}

// GetCoverLetter returns one of the user's letters, or nil, nil when the
// letter does not exist or belongs to someone else.
func (db *DB) GetCoverLetter(ctx context.Context, userID, id uuid.UUID) (*CoverLetter, error) {
	l, err := scanCoverLetter(db.pool.QueryRow(ctx,
		`SELECT `+coverLetterColumns+` FROM cover_letters WHERE id = $1 AND user_id = $2`,
		id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cover letter: %w", err)
	}
	return l, nil
}

// ListCoverLetters returns the user's letters, newest first.
func (db *DB) ListCoverLetters(ctx context.Context, userID uuid.UUID, limit int) ([]CoverLetter, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := db.pool.Query(ctx,
		`SELECT `+coverLetterColumns+` FROM cover_letters
		 WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cover letters: %w", err)
	}
	defer rows.Close()

	letters := []CoverLetter{}
	for rows.Next() {
		l, err := scanCoverLetter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cover letter: %w", err)
		}
		letters = append(letters, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list cover letters: %w", err)
	}
	return letters, nil
}
