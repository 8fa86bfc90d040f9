package letter

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// boldDelimiter opens and closes a bold span.
const boldDelimiter = "**"

// bulletMarkers are the runes accepted as a bullet marker at the start of a
// line. The marker must be followed by at least one whitespace character.
var bulletMarkers = map[rune]bool{
	'*': true,
	'·': true,
}

// ClassifyBullet recognizes a bullet line and returns its text with the
// marker and the whitespace after it stripped.
func ClassifyBullet(line string) (string, bool) {
	trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
	marker, size := utf8.DecodeRuneInString(trimmed)
	if !bulletMarkers[marker] {
		return "", false
	}

	rest := trimmed[size:]
	next, _ := utf8.DecodeRuneInString(rest)
	if rest == "" || !unicode.IsSpace(next) {
		return "", false
	}

	return strings.TrimSpace(rest), true
}

// ParseInline splits a line into plain and bold runs. A bold span opens at
// "**" and closes at the nearest following "**" on the same line. An
// unmatched "**" is kept as literal text. Empty runs are dropped and
// adjacent runs of the same weight are merged.
func ParseInline(line string) []InlineRun {
	var runs []InlineRun
	rest := line

	for rest != "" {
		open := strings.Index(rest, boldDelimiter)
		if open < 0 {
			runs = appendRun(runs, rest, false)
			break
		}

		after := rest[open+len(boldDelimiter):]
		end := strings.Index(after, boldDelimiter)
		if nl := strings.IndexByte(after, '\n'); nl >= 0 && (end < 0 || nl < end) {
			// Spans never cross a line break: keep the delimiter and continue
			// after the break.
			runs = appendRun(runs, rest[:open+len(boldDelimiter)+nl+1], false)
			rest = after[nl+1:]
			continue
		}
		if end < 0 {
			runs = appendRun(runs, rest, false)
			break
		}

		runs = appendRun(runs, rest[:open], false)
		runs = appendRun(runs, after[:end], true)
		rest = after[end+len(boldDelimiter):]
	}

	return runs
}

func appendRun(runs []InlineRun, text string, bold bool) []InlineRun {
	if text == "" {
		return runs
	}
	if n := len(runs); n > 0 && runs[n-1].Bold == bold {
		runs[n-1].Text += text
		return runs
	}
	return append(runs, InlineRun{Text: text, Bold: bold})
}
