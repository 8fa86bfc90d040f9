// Package ingestion turns job postings and resumes into clean prompt text.
package ingestion

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/cover-letter/internal/fetch"
	"github.com/jonathan/cover-letter/internal/types"
)

var (
	innerSpace   = regexp.MustCompile(`[ \t\f\v]+`)
	excessBlanks = regexp.MustCompile(`\n{3,}`)
)

// CleanText normalizes line endings and whitespace while keeping line
// structure. Runs of blank lines collapse to one.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.ReplaceAll(content, "\u00a0", " ")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	result := excessBlanks.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(result)
}

// cleanLine collapses inner whitespace. Leading indentation is kept for
// bullet lines so nested lists survive.
func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return ""
	}

	content := innerSpace.ReplaceAllString(trimmed, " ")
	if isBulletLine(trimmed) {
		if indent := len(line) - len(trimmed); indent > 0 {
			return strings.Repeat(" ", indent) + content
		}
	}
	return content
}

// isBulletLine checks if a line is a bullet list item
func isBulletLine(line string) bool {
	for _, marker := range []string{"- ", "* ", "• ", "· "} {
		if strings.HasPrefix(line, marker) {
			return true
		}
	}
	return false
}

// TruncateRunes shortens text to at most limit runes without splitting a
// multi-byte character. It reports whether text was cut.
func TruncateRunes(text string, limit int) (string, bool) {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text, false
	}
	count := 0
	for i := range text {
		if count == limit {
			return text[:i], true
		}
		count++
	}
	return text, false
}

// PrepareJobText cleans job text and truncates it to the prompt limit.
func PrepareJobText(raw, source string) (string, *Metadata) {
	cleaned := CleanText(raw)
	truncated, cut := TruncateRunes(cleaned, types.MaxJobTextRunes)

	metadata := NewMetadata(truncated, source)
	metadata.Truncated = cut
	metadata.OriginalCharacters = utf8.RuneCountInString(cleaned)
	return truncated, metadata
}

// IngestFromFile reads a job posting from a text or HTML file.
func IngestFromFile(path string) (string, *Metadata, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, fmt.Errorf("file not found: %w", err)
		}
		return "", nil, fmt.Errorf("failed to read file: %w", err)
	}

	raw := string(content)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		raw, err = fetch.ExtractMainText(raw, fetch.JobPostingSelectors(), fetch.PlatformNoiseSelectors(fetch.PlatformUnknown)...)
		if err != nil {
			return "", nil, fmt.Errorf("failed to extract text from %s: %w", path, err)
		}
	}

	text, metadata := PrepareJobText(raw, "file")
	if text == "" {
		return "", nil, fmt.Errorf("no job text in %s", path)
	}
	return text, metadata, nil
}
