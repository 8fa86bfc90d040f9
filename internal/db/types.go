package db

import (
	"time"

	"github.com/google/uuid"
)

// DefaultJobPostingTTL is how long fetched posting text is reused.
const DefaultJobPostingTTL = 7 * 24 * time.Hour

// DefaultListLimit bounds list queries when the caller gives no limit.
const DefaultListLimit = 50

// User represents an account
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	PasswordSet  bool      `json:"password_set"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Resume is the latest resume text a user uploaded.
type Resume struct {
	UserID     uuid.UUID `json:"user_id"`
	Filename   string    `json:"filename"`
	Text       string    `json:"text"`
	Pages      int       `json:"pages"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// CoverLetter is a generated letter and the inputs that produced it.
type CoverLetter struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	TemplateType  string    `json:"template_type"`
	JobText       string    `json:"job_text"`
	JobHash       string    `json:"job_hash"`
	Body          string    `json:"body"`
	CandidateName string    `json:"candidate_name"`
	Company       string    `json:"company"`
	Position      string    `json:"position"`
	CreatedAt     time.Time `json:"created_at"`
}

// JobPosting is cached job description text keyed by URL.
type JobPosting struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	Platform  string    `json:"platform"`
	Text      string    `json:"text"`
	FetchedAt time.Time `json:"fetched_at"`
}

// IsExpired reports whether the posting is older than maxAge.
func (p *JobPosting) IsExpired(maxAge time.Duration, now time.Time) bool {
	return now.Sub(p.FetchedAt) > maxAge
}
