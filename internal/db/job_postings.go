package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// GetFreshJobPosting returns the cached posting for url when it was fetched
// within maxAge, otherwise nil, nil.
func (db *DB) GetFreshJobPosting(ctx context.Context, url string, maxAge time.Duration) (*JobPosting, error) {
	var p JobPosting
	err := db.pool.QueryRow(ctx,
		`SELECT id, url, platform, text, fetched_at FROM job_postings WHERE url = $1`,
		url,
	).Scan(&p.ID, &p.URL, &p.Platform, &p.Text, &p.FetchedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job posting: %w", err)
	}

	if p.IsExpired(maxAge, time.Now()) {
		return nil, nil
	}
	return &p, nil
}

// UpsertJobPosting stores posting text by URL and fills in ID and fetch time.
func (db *DB) UpsertJobPosting(ctx context.Context, posting *JobPosting) error {
	err := db.pool.QueryRow(ctx,
		`INSERT INTO job_postings (url, platform, text)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (url) DO UPDATE
		   SET platform = EXCLUDED.platform, text = EXCLUDED.text, fetched_at = NOW()
		 RETURNING id, fetched_at`,
		posting.URL, posting.Platform, posting.Text,
	).Scan(&posting.ID, &posting.FetchedAt)
	if err != nil {
		return fmt.Errorf("failed to save job posting: %w", err)
	}
	return nil
}
