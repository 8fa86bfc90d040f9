package ingestion

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// MaxResumeBytes caps the size of an uploaded resume.
const MaxResumeBytes = 10 << 20

// MsgNoResumeText is reported for PDFs that parse but carry no text layer.
const MsgNoResumeText = "could not extract text from PDF"

// MsgUnreadableResumeText is reported when the text layer decodes to mostly
// control characters, as happens with composite (CID) fonts.
const MsgUnreadableResumeText = "could not read text from PDF: unsupported font encoding"

// minReadableRatio is the share of printable runes extracted text needs.
const minReadableRatio = 0.85

// ResumeError reports a resume that cannot be turned into text.
type ResumeError struct {
	Message string
	Cause   error
}

func (e *ResumeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("resume error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("resume error: %s", e.Message)
}

func (e *ResumeError) Unwrap() error {
	return e.Cause
}

// Resume holds the text layer of a resume PDF.
type Resume struct {
	Text       string
	Pages      int
	Characters int
}

// ExtractResume checks that data looks like a PDF of acceptable size and
// extracts its text.
func ExtractResume(data []byte) (*Resume, error) {
	if len(data) == 0 {
		return nil, &ResumeError{Message: "resume file is empty"}
	}
	if len(data) > MaxResumeBytes {
		return nil, &ResumeError{Message: fmt.Sprintf("resume exceeds %d bytes", MaxResumeBytes)}
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("%PDF-")) {
		return nil, &ResumeError{Message: "resume is not a PDF"}
	}
	return ExtractResumeText(bytes.NewReader(data))
}

// ExtractResumeText reads every page's content stream and joins the shown
// text, one paragraph per page.
func ExtractResumeText(rs io.ReadSeeker) (*Resume, error) {
	ctx, err := api.ReadValidateAndOptimize(rs, model.NewDefaultConfiguration())
	if err != nil {
		return nil, &ResumeError{Message: "failed to parse PDF", Cause: err}
	}

	pages := make([]string, 0, ctx.PageCount)
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		// Pages without a content stream carry no text.
		r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
		if err != nil || r == nil {
			continue
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, &ResumeError{Message: fmt.Sprintf("failed to read page %d", pageNr), Cause: err}
		}
		if text := CleanText(ContentStreamText(data)); text != "" {
			pages = append(pages, text)
		}
	}

	text := strings.Join(pages, "\n\n")
	if text == "" {
		return nil, &ResumeError{Message: MsgNoResumeText}
	}
	if readableRatio(text) < minReadableRatio {
		return nil, &ResumeError{Message: MsgUnreadableResumeText}
	}
	text = CleanText(strings.Map(dropUnprintable, text))

	return &Resume{
		Text:       text,
		Pages:      ctx.PageCount,
		Characters: utf8.RuneCountInString(text),
	}, nil
}

// readableRatio returns the share of runes in text that are graphic or
// line breaks.
func readableRatio(text string) float64 {
	total, ok := 0, 0
	for _, r := range text {
		total++
		if readable(r) {
			ok++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(ok) / float64(total)
}

func readable(r rune) bool {
	return r == '\n' || (r != utf8.RuneError && unicode.IsGraphic(r))
}

func dropUnprintable(r rune) rune {
	if readable(r) {
		return r
	}
	return -1
}
