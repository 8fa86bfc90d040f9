// Package pipeline orchestrates cover letter generation and rendering.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/cover-letter/internal/ingestion"
	"github.com/jonathan/cover-letter/internal/llm"
	"github.com/jonathan/cover-letter/internal/prompts"
	"github.com/jonathan/cover-letter/internal/schemas"
	"github.com/jonathan/cover-letter/internal/types"
)

// Errors returned for unusable generation input.
var (
	ErrMissingJobText    = errors.New("job text is required")
	ErrMissingResumeText = errors.New("resume text is required")
)

// Step names reported through ProgressEvent.
const (
	StepIngestJob       = "ingest_job"
	StepExtractResume   = "extract_resume"
	StepGenerateLetter  = "generate_letter"
	StepExtractMetadata = "extract_metadata"
	StepRender          = "render"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs. Generate calls
// it from more than one goroutine.
type ProgressCallback func(event ProgressEvent)

func (f ProgressCallback) emit(step, message string, content any) {
	if f != nil {
		f(ProgressEvent{Step: step, Message: message, Content: content})
	}
}

// GenerateInput is the text a letter is written from.
type GenerateInput struct {
	JobText      string
	ResumeText   string
	TemplateType string
	OnProgress   ProgressCallback
}

// GenerateResult holds a written letter and the metadata identifying it.
type GenerateResult struct {
	Letter   string
	Metadata types.LetterMetadata
	// MetadataErr is set when extraction failed and Metadata holds defaults.
	MetadataErr error
	// JobTruncated reports that the job text was cut to MaxJobTextRunes.
	JobTruncated bool
}

// Generator writes cover letters with an LLM client.
type Generator struct {
	client llm.Client
	logger *slog.Logger
}

// NewGenerator creates a Generator. A nil logger uses slog.Default().
func NewGenerator(client llm.Client, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{client: client, logger: logger}
}

// Generate writes the letter and extracts its metadata concurrently. Only a
// failure to write the letter is an error; failed metadata extraction falls
// back to placeholder values.
func (g *Generator) Generate(ctx context.Context, in GenerateInput) (*GenerateResult, error) {
	jobText, truncated := ingestion.TruncateRunes(strings.TrimSpace(in.JobText), types.MaxJobTextRunes)
	if jobText == "" {
		return nil, ErrMissingJobText
	}
	resumeText := strings.TrimSpace(in.ResumeText)
	if resumeText == "" {
		return nil, ErrMissingResumeText
	}
	templateType := in.TemplateType
	if templateType == "" {
		templateType = types.TemplateDefault
	}

	prompt, err := prompts.CoverLetter(templateType, jobText, resumeText)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	result := &GenerateResult{JobTruncated: truncated}

	eg, egctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		text, err := g.client.GenerateContent(egctx, prompt, llm.TierStandard)
		if err != nil {
			return fmt.Errorf("failed to generate cover letter: %w", err)
		}
		result.Letter = llm.CleanLetterText(text)
		if result.Letter == "" {
			return fmt.Errorf("failed to generate cover letter: %w", llm.ErrEmptyResponse)
		}
		in.OnProgress.emit(StepGenerateLetter, "Wrote cover letter", nil)
		return nil
	})

	eg.Go(func() error {
		meta, err := g.extractMetadata(egctx, jobText, resumeText)
		if err != nil {
			g.logger.Warn("metadata extraction failed, using defaults", "error", err)
			result.MetadataErr = err
			meta = types.DefaultMetadata()
		}
		result.Metadata = meta
		in.OnProgress.emit(StepExtractMetadata,
			fmt.Sprintf("Identified %s applying to %s at %s", meta.CandidateName, meta.Position, meta.Company), meta)
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// ExtractMetadata asks the model who the candidate is and which role the
// posting is for.
func (g *Generator) ExtractMetadata(ctx context.Context, jobText, resumeText string) (types.LetterMetadata, error) {
	meta, err := g.extractMetadata(ctx, jobText, resumeText)
	if err != nil {
		return types.DefaultMetadata(), err
	}
	return meta, nil
}

func (g *Generator) extractMetadata(ctx context.Context, jobText, resumeText string) (types.LetterMetadata, error) {
	input, err := prompts.Render(prompts.CoverLetterFile, prompts.MetadataContextKey, map[string]string{
		"JobText":    jobText,
		"ResumeText": resumeText,
	})
	if err != nil {
		return types.LetterMetadata{}, err
	}

	prompt := llm.BuildExtractionPrompt(llm.LetterMetadataSchema(), input)
	raw, err := g.client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return types.LetterMetadata{}, fmt.Errorf("metadata request failed: %w", err)
	}

	meta, err := schemas.ParseLetterMetadata(llm.CleanJSONBlock(raw))
	if err != nil {
		return types.LetterMetadata{}, err
	}
	return meta.WithDefaults(), nil
}
