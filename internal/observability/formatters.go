// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jonathan/cover-letter/internal/letter"
	"github.com/jonathan/cover-letter/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, inner))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(line, inner))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// pad truncates or right-pads s to width runes.
func pad(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		return string(r[:width-3]) + "..."
	}
	return s + strings.Repeat(" ", width-len(r))
}

// PrintMetadata outputs the extracted letter metadata, noting when the
// placeholders were used.
func (p *Printer) PrintMetadata(meta types.LetterMetadata, extractErr error) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Candidate: %s\n", meta.CandidateName))
	sb.WriteString(fmt.Sprintf("Company:   %s\n", meta.Company))
	sb.WriteString(fmt.Sprintf("Position:  %s", meta.Position))
	if extractErr != nil {
		sb.WriteString("\n\nExtraction failed, placeholders used:\n")
		sb.WriteString(firstLine(extractErr.Error()))
	}
	p.printBox("LETTER METADATA", sb.String())
}

// PrintLayoutSummary outputs block counts and the gap sequence shared by
// both renderers.
func (p *Printer) PrintLayoutSummary(summary letter.Summary, overflow bool) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Header lines: %d\n", summary.HeaderLines))
	sb.WriteString(fmt.Sprintf("Text blocks:  %d (%d bullets)\n", summary.TextBlocks, summary.Bullets))
	sb.WriteString(fmt.Sprintf("Hidden:       %d\n", summary.Hidden))

	gaps := make([]string, len(summary.Gaps))
	for i, g := range summary.Gaps {
		gaps[i] = strconv.Itoa(g)
	}
	sb.WriteString(fmt.Sprintf("Gap units:    [%s]", strings.Join(gaps, " ")))

	if overflow {
		sb.WriteString("\n\n⚠ Content runs past the bottom margin")
	}
	p.printBox("LAYOUT SUMMARY", sb.String())
}

// PrintDocuments lists written output files.
func (p *Printer) PrintDocuments(paths []string) {
	if len(paths) == 0 {
		return
	}

	var sb strings.Builder
	count := min(len(paths), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("• %s", paths[i]))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	if len(paths) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more", len(paths)-maxItemsToShow))
	}
	p.printBox("DOCUMENTS", sb.String())
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
