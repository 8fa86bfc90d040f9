package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/cover-letter/internal/filename"
	"github.com/jonathan/cover-letter/internal/letter"
	"github.com/jonathan/cover-letter/internal/rendering"
	"github.com/jonathan/cover-letter/internal/types"
)

// Format is an output document format.
type Format string

// Supported output formats.
const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}

// ParseFormats parses "pdf", "docx" or "both" (also a comma separated list)
// into a de-duplicated list of formats.
func ParseFormats(s string) ([]Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "both" {
		return []Format{FormatPDF, FormatDOCX}, nil
	}

	var formats []Format
	seen := make(map[Format]bool)
	for _, part := range strings.Split(s, ",") {
		f := Format(strings.TrimPrefix(strings.TrimSpace(part), "."))
		if f != FormatPDF && f != FormatDOCX {
			return nil, fmt.Errorf("unknown format %q (want pdf, docx or both)", part)
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	return formats, nil
}

// Document is one rendered file.
type Document struct {
	Format   Format
	Filename string
	Data     []byte
}

// RenderOptions configures RenderAll.
type RenderOptions struct {
	Created time.Time
	Logger  *slog.Logger
}

// RenderResult holds the rendered documents in the requested order and the
// shared layout summary.
type RenderResult struct {
	Documents []Document
	Summary   letter.Summary
	// Overflow is set when the PDF ran past its bottom margin.
	Overflow bool
}

// RenderAll lays out text once and renders each format concurrently.
func RenderAll(ctx context.Context, text string, meta types.LetterMetadata, formats []Format, opts RenderOptions) (*RenderResult, error) {
	formats = uniqueFormats(formats)
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Created.IsZero() {
		opts.Created = time.Now()
	}

	blocks := letter.Layout(text)
	title := "Cover Letter"
	if !meta.IsDefault() {
		title = fmt.Sprintf("Cover Letter - %s %s", meta.Company, meta.Position)
	}
	var author string
	if meta.CandidateName != "" && meta.CandidateName != types.DefaultCandidateName {
		author = meta.CandidateName
	}

	result := &RenderResult{
		Documents: make([]Document, len(formats)),
		Summary:   letter.Summarize(blocks),
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, format := range formats {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			var data []byte
			var err error
			switch format {
			case FormatPDF:
				var page rendering.PageResult
				data, page, err = rendering.RenderPDF(blocks, rendering.PDFOptions{
					Title:   title,
					Author:  author,
					Created: opts.Created,
					Logger:  opts.Logger,
				})
				result.Overflow = page.Overflow
			case FormatDOCX:
				data, _, err = rendering.RenderDOCX(blocks, rendering.FlowOptions{
					Title:   title,
					Author:  author,
					Created: opts.Created,
				})
			default:
				err = fmt.Errorf("unknown format %q", format)
			}
			if err != nil {
				return fmt.Errorf("render %s: %w", format, err)
			}

			result.Documents[i] = Document{
				Format:   format,
				Filename: filename.Format(meta, string(format)),
				Data:     data,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func uniqueFormats(formats []Format) []Format {
	if len(formats) == 0 {
		return []Format{FormatPDF, FormatDOCX}
	}
	out := make([]Format, 0, len(formats))
	seen := make(map[Format]bool, len(formats))
	for _, f := range formats {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// WriteDocuments writes each document into dir, creating it if needed, and
// returns the written paths.
func WriteDocuments(dir string, docs []Document) ([]string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	paths := make([]string, 0, len(docs))
	for _, doc := range docs {
		path := filepath.Join(dir, doc.Filename)
		if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
