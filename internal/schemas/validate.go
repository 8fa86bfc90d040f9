// Package schemas validates model-produced JSON against embedded JSON Schemas.
package schemas

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/cover-letter/internal/types"
)

//go:embed letter_metadata.schema.json
var letterMetadataSchema string

// LetterMetadataSchema returns the JSON Schema for extracted letter metadata.
func LetterMetadataSchema() string {
	return letterMetadataSchema
}

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// SchemaLoadError represents errors loading the schema or the document
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// ValidateJSONString validates JSON string content against schema string content
func ValidateJSONString(schemaContent, jsonContent string) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaContent)
	documentLoader := gojsonschema.NewStringLoader(jsonContent)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{
			Path:    "(string schema)",
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}

	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}

	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}

	return validationErr
}

// ParseLetterMetadata validates the model's metadata JSON and decodes it.
// Values are trimmed; empty values are left for the caller to default.
func ParseLetterMetadata(jsonContent string) (types.LetterMetadata, error) {
	if err := ValidateJSONString(letterMetadataSchema, jsonContent); err != nil {
		return types.LetterMetadata{}, err
	}

	var meta types.LetterMetadata
	if err := json.Unmarshal([]byte(jsonContent), &meta); err != nil {
		return types.LetterMetadata{}, fmt.Errorf("failed to decode letter metadata: %w", err)
	}

	meta.CandidateName = strings.TrimSpace(meta.CandidateName)
	meta.Company = strings.TrimSpace(meta.Company)
	meta.Position = strings.TrimSpace(meta.Position)
	return meta, nil
}
