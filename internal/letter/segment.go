package letter

import (
	"strings"
)

// salutationPrefix marks the end of the header block.
const salutationPrefix = "Dear"

// closingPhrases are sign-offs recognized as a ClosingLine. A line matches
// when, lowercased and stripped of trailing punctuation, it equals one of
// these phrases. Lines starting with "sincerely" always match.
var closingPhrases = map[string]bool{
	"sincerely yours":    true,
	"yours sincerely":    true,
	"best":               true,
	"best regards":       true,
	"with best regards":  true,
	"kind regards":       true,
	"warm regards":       true,
	"warmest regards":    true,
	"regards":            true,
	"all the best":       true,
	"respectfully":       true,
	"respectfully yours": true,
	"yours truly":        true,
	"yours faithfully":   true,
	"cordially":          true,
	"with gratitude":     true,
	"with appreciation":  true,
}

// IsClosing reports whether a trimmed line is a letter sign-off.
func IsClosing(trimmed string) bool {
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "sincerely") {
		return true
	}
	return closingPhrases[strings.TrimRight(lower, ",.!; ")]
}

// Split splits raw letter text into classified lines.
//
// Lines before the first "Dear" line form the header: the first non-empty
// one is the date, the rest are contact lines, and blank lines inside the
// header are skipped. When no "Dear" line exists the whole text is
// classified as body so nothing is dropped.
func Split(text string) []Segment {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}

	lines := strings.Split(text, "\n")

	var (
		segments []Segment
		header   []Segment
		inHeader = true
	)

	for i, raw := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(raw)

		if inHeader {
			if strings.HasPrefix(trimmed, salutationPrefix) {
				segments = append(segments, flushHeader(header)...)
				inHeader = false
				segments = append(segments, classifyBody(raw, lineNo))
				continue
			}
			if trimmed != "" {
				header = append(header, Segment{Text: trimmed, Runs: ParseInline(trimmed), Line: lineNo})
			}
			continue
		}

		segments = append(segments, classifyBody(raw, lineNo))
	}

	if inHeader {
		return bodyOnly(lines)
	}

	return trimTrailingBlanks(segments)
}

// flushHeader assigns header kinds to the buffered lines in order.
func flushHeader(buffered []Segment) []Segment {
	out := make([]Segment, len(buffered))
	for i, seg := range buffered {
		seg.Kind = KindHeaderContact
		if i == 0 {
			seg.Kind = KindHeaderDate
		}
		out[i] = seg
	}
	return out
}

func bodyOnly(lines []string) []Segment {
	segments := make([]Segment, 0, len(lines))
	for i, raw := range lines {
		segments = append(segments, classifyBody(raw, i+1))
	}
	return trimTrailingBlanks(trimLeadingBlanks(segments))
}

// classifyBody classifies a line outside the header block.
func classifyBody(raw string, lineNo int) Segment {
	trimmed := strings.TrimSpace(raw)

	switch {
	case trimmed == "":
		return Segment{Kind: KindBlank, Line: lineNo}
	case strings.HasPrefix(trimmed, salutationPrefix):
		return Segment{Kind: KindSalutation, Text: trimmed, Runs: ParseInline(trimmed), Line: lineNo}
	}

	if item, ok := ClassifyBullet(trimmed); ok {
		return Segment{Kind: KindBullet, Text: item, Runs: ParseInline(item), Line: lineNo}
	}

	kind := KindBody
	if IsClosing(trimmed) {
		kind = KindClosing
	}
	return Segment{Kind: kind, Text: trimmed, Runs: ParseInline(trimmed), Line: lineNo}
}

func trimLeadingBlanks(segments []Segment) []Segment {
	for len(segments) > 0 && segments[0].Kind == KindBlank {
		segments = segments[1:]
	}
	return segments
}

func trimTrailingBlanks(segments []Segment) []Segment {
	for len(segments) > 0 && segments[len(segments)-1].Kind == KindBlank {
		segments = segments[:len(segments)-1]
	}
	return segments
}
