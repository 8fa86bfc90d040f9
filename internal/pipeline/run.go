package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jonathan/cover-letter/internal/fetch"
	"github.com/jonathan/cover-letter/internal/ingestion"
	"github.com/jonathan/cover-letter/internal/llm"
	"github.com/jonathan/cover-letter/internal/observability"
)

// RunOptions holds configuration for running the pipeline
type RunOptions struct {
	JobPath      string
	JobURL       string
	ResumePath   string
	TemplateType string
	OutDir       string
	Formats      []Format
	UseBrowser   bool
	Verbose      bool
	// Store caches fetched job postings. Nil disables caching.
	Store      fetch.PostingStore
	Client     llm.Client
	Logger     *slog.Logger
	Out        io.Writer
	OnProgress ProgressCallback
}

// RunResult describes a finished run.
type RunResult struct {
	*GenerateResult
	Render *RenderResult
	Paths  []string
}

// RunPipeline ingests the job posting and resume, writes the letter and
// renders it to OutDir.
func RunPipeline(ctx context.Context, opts RunOptions) (*RunResult, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("an LLM client is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	printer := observability.NewPrinter(opts.Out)

	// Step 1: Ingest job posting (from URL or File)
	jobText, jobMeta, err := ingestJob(ctx, opts)
	if err != nil {
		return nil, err
	}
	opts.OnProgress.emit(StepIngestJob,
		fmt.Sprintf("Ingested %d characters of job text from %s", jobMeta.Characters, jobMeta.Source), jobMeta)
	if jobMeta.Truncated {
		opts.Logger.Warn("job text truncated", "original_characters", jobMeta.OriginalCharacters, "kept", jobMeta.Characters)
	}

	// Step 2: Resume text
	resumeText, err := LoadResumeText(opts.ResumePath)
	if err != nil {
		return nil, err
	}
	opts.OnProgress.emit(StepExtractResume,
		fmt.Sprintf("Read %d characters of resume text", len([]rune(resumeText))), nil)

	// Step 3: Letter and metadata
	generated, err := NewGenerator(opts.Client, opts.Logger).Generate(ctx, GenerateInput{
		JobText:      jobText,
		ResumeText:   resumeText,
		TemplateType: opts.TemplateType,
		OnProgress:   opts.OnProgress,
	})
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		printer.PrintMetadata(generated.Metadata, generated.MetadataErr)
	}

	// Step 4: Render and write
	rendered, err := RenderAll(ctx, generated.Letter, generated.Metadata, opts.Formats, RenderOptions{
		Created: time.Now(),
		Logger:  opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	paths, err := WriteDocuments(opts.OutDir, rendered.Documents)
	if err != nil {
		return nil, err
	}
	opts.OnProgress.emit(StepRender, fmt.Sprintf("Wrote %d documents", len(paths)), paths)

	if opts.Verbose {
		printer.PrintLayoutSummary(rendered.Summary, rendered.Overflow)
		printer.PrintDocuments(paths)
	}

	return &RunResult{GenerateResult: generated, Render: rendered, Paths: paths}, nil
}

func ingestJob(ctx context.Context, opts RunOptions) (string, *ingestion.Metadata, error) {
	switch {
	case opts.JobURL != "":
		config := fetch.DefaultCachedFetcherConfig()
		config.Options.UseBrowser = opts.UseBrowser
		config.Options.Logger = opts.Logger
		text, meta, err := ingestion.IngestFromURL(ctx, fetch.NewCachedFetcher(opts.Store, config), opts.JobURL)
		if err != nil {
			return "", nil, fmt.Errorf("job ingestion from URL failed: %w", err)
		}
		return text, meta, nil
	case opts.JobPath != "":
		text, meta, err := ingestion.IngestFromFile(opts.JobPath)
		if err != nil {
			return "", nil, fmt.Errorf("job ingestion from file failed: %w", err)
		}
		return text, meta, nil
	default:
		return "", nil, ErrMissingJobText
	}
}

// LoadResumeText reads a resume from a PDF or a plain text file.
func LoadResumeText(path string) (string, error) {
	if path == "" {
		return "", ErrMissingResumeText
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read resume: %w", err)
	}

	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("%PDF-")) {
		resume, err := ingestion.ExtractResume(data)
		if err != nil {
			return "", err
		}
		return resume.Text, nil
	}

	text := ingestion.CleanText(string(data))
	if text == "" {
		return "", ErrMissingResumeText
	}
	return text, nil
}
