package server

import (
	"context"

	"github.com/google/uuid"

	"github.com/jonathan/cover-letter/internal/db"
)

// Store is the persistence the server needs. *db.DB satisfies it.
type Store interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (uuid.UUID, error)
	GetUser(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	CheckEmailExists(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error

	SaveResume(ctx context.Context, resume *db.Resume) error
	GetResume(ctx context.Context, userID uuid.UUID) (*db.Resume, error)

	SaveCoverLetter(ctx context.Context, letter *db.CoverLetter) error
	GetCoverLetter(ctx context.Context, userID, id uuid.UUID) (*db.CoverLetter, error)
	ListCoverLetters(ctx context.Context, userID uuid.UUID, limit int) ([]db.CoverLetter, error)
}

var _ Store = (*db.DB)(nil)
