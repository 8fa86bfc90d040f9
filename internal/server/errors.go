// Package server provides the HTTP API used by the browser extension.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/cover-letter/internal/ingestion"
	"github.com/jonathan/cover-letter/internal/pipeline"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrUserNotFound indicates user was not found
type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

// ErrPasswordMismatch indicates current password is incorrect
type ErrPasswordMismatch struct{}

func (e *ErrPasswordMismatch) Error() string {
	return "current password is incorrect"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrResumeNotFound indicates the user has not uploaded a resume yet.
type ErrResumeNotFound struct{}

func (e *ErrResumeNotFound) Error() string {
	return "no resume uploaded; upload a PDF resume first"
}

// ErrLetterNotFound indicates a stored letter does not exist for the user.
type ErrLetterNotFound struct {
	LetterID uuid.UUID
}

func (e *ErrLetterNotFound) Error() string {
	return fmt.Sprintf("cover letter not found: %s", e.LetterID)
}

// ErrGeneration wraps a failed model call.
type ErrGeneration struct {
	Cause error
}

func (e *ErrGeneration) Error() string {
	return fmt.Sprintf("failed to generate cover letter: %v", e.Cause)
}

func (e *ErrGeneration) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the appropriate HTTP status code for an error.
// Wrapped errors are matched too.
func HTTPStatus(err error) int {
	var (
		emailExists   *ErrEmailAlreadyExists
		badCreds      *ErrInvalidCredentials
		mismatch      *ErrPasswordMismatch
		userNotFound  *ErrUserNotFound
		letterMissing *ErrLetterNotFound
		validation    *ErrValidation
		noResume      *ErrResumeNotFound
		resumeErr     *ingestion.ResumeError
		generation    *ErrGeneration
		tooLarge      *http.MaxBytesError
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &emailExists):
		return http.StatusConflict
	case errors.As(err, &badCreds), errors.As(err, &mismatch):
		return http.StatusUnauthorized
	case errors.As(err, &userNotFound), errors.As(err, &letterMissing):
		return http.StatusNotFound
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &validation), errors.As(err, &noResume), errors.As(err, &resumeErr),
		errors.Is(err, pipeline.ErrMissingJobText), errors.Is(err, pipeline.ErrMissingResumeText):
		return http.StatusBadRequest
	case errors.As(err, &generation):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
