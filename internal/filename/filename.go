// Package filename derives download names for rendered cover letters.
package filename

import (
	"strings"
	"unicode"

	"github.com/jonathan/cover-letter/internal/types"
)

// Fallback is the base name used when metadata is missing or a placeholder.
const Fallback = "cover-letter"

// MaxPartRunes caps each sanitized metadata field.
const MaxPartRunes = 60

// illegal holds characters stripped from every field, apostrophe included.
const illegal = `<>:"/\|?*'`

// Format returns "{name} - {company} {position}.{ext}", or
// "cover-letter.{ext}" when any field is empty, a placeholder, or sanitizes
// to nothing. It never fails.
func Format(meta types.LetterMetadata, ext string) string {
	ext = normalizeExt(ext)

	name := Sanitize(meta.CandidateName)
	company := Sanitize(meta.Company)
	position := Sanitize(meta.Position)

	if name == "" || company == "" || position == "" ||
		name == types.DefaultCandidateName ||
		company == types.DefaultCompany ||
		position == types.DefaultPosition {
		return withExt(Fallback, ext)
	}

	return withExt(name+" - "+company+" "+position, ext)
}

// Sanitize strips characters that are illegal in filenames, collapses
// whitespace, trims, and caps the result at MaxPartRunes.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	space := false
	for _, r := range s {
		switch {
		case strings.ContainsRune(illegal, r):
			continue
		case unicode.IsSpace(r):
			space = true
			continue
		case unicode.IsControl(r):
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}

	out := []rune(b.String())
	if len(out) > MaxPartRunes {
		out = out[:MaxPartRunes]
	}
	return strings.TrimSpace(string(out))
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	return strings.TrimPrefix(ext, ".")
}

func withExt(base, ext string) string {
	if ext == "" {
		return base
	}
	return base + "." + ext
}
