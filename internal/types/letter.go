// Package types provides request, response and metadata types shared across the cover letter system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Placeholder metadata values used when extraction fails.
const (
	DefaultCandidateName = "Candidate"
	DefaultCompany       = "Company"
	DefaultPosition      = "Position"
)

// Template types accepted by the generate endpoint.
const (
	TemplateDefault      = "default"
	TemplateConcise      = "concise"
	TemplateEnthusiastic = "enthusiastic"
)

// MaxJobTextRunes is the longest job description passed to the model.
const MaxJobTextRunes = 4000

// LetterMetadata identifies the candidate and the role a letter targets.
type LetterMetadata struct {
	CandidateName string `json:"candidateName"`
	Company       string `json:"company"`
	Position      string `json:"position"`
}

// DefaultMetadata returns placeholder metadata.
func DefaultMetadata() LetterMetadata {
	return LetterMetadata{
		CandidateName: DefaultCandidateName,
		Company:       DefaultCompany,
		Position:      DefaultPosition,
	}
}

// IsDefault reports whether any field is missing or still a placeholder.
func (m LetterMetadata) IsDefault() bool {
	return m.CandidateName == "" || m.CandidateName == DefaultCandidateName ||
		m.Company == "" || m.Company == DefaultCompany ||
		m.Position == "" || m.Position == DefaultPosition
}

// WithDefaults fills empty fields with placeholders.
func (m LetterMetadata) WithDefaults() LetterMetadata {
	if m.CandidateName == "" {
		m.CandidateName = DefaultCandidateName
	}
	if m.Company == "" {
		m.Company = DefaultCompany
	}
	if m.Position == "" {
		m.Position = DefaultPosition
	}
	return m
}

// GenerateRequest is the body of POST /generate.
type GenerateRequest struct {
	JobText      string `json:"jobText" validate:"required"`
	TemplateType string `json:"templateType,omitempty" validate:"omitempty,oneof=default concise enthusiastic"`
}

// GenerateResponse is returned by POST /generate.
type GenerateResponse struct {
	Success     bool           `json:"success"`
	CoverLetter string         `json:"coverLetter"`
	Metadata    LetterMetadata `json:"metadata"`
	ID          uuid.UUID      `json:"id"`
}

// RenderRequest is the body of POST /generate-pdf and POST /generate-docx.
type RenderRequest struct {
	CoverLetter string          `json:"coverLetter" validate:"required"`
	Metadata    *LetterMetadata `json:"metadata,omitempty"`
}

// UploadResumeResponse is returned by POST /upload-resume.
type UploadResumeResponse struct {
	Success    bool   `json:"success"`
	Filename   string `json:"filename"`
	Characters int    `json:"characters"`
}

// ResumeStatusResponse is returned by GET /resume-status.
type ResumeStatusResponse struct {
	HasResume  bool       `json:"hasResume"`
	Filename   string     `json:"filename,omitempty"`
	UploadedAt *time.Time `json:"uploadedAt,omitempty"`
}

// LetterSummary describes a stored cover letter in list responses.
type LetterSummary struct {
	ID           uuid.UUID      `json:"id"`
	TemplateType string         `json:"templateType"`
	Metadata     LetterMetadata `json:"metadata"`
	CreatedAt    time.Time      `json:"createdAt"`
}

var validate = validator.New()

// Validate checks v against its validate struct tags.
func Validate(v any) error {
	return validate.Struct(v)
}
