package ingestion

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// tjSpaceThreshold is the TJ kerning offset, in thousandths of an em, wide
// enough to read as a word space.
const tjSpaceThreshold = -200

// ContentStreamText returns the text shown by a decoded page content
// stream. Text drawn on a new baseline starts a new line; pieces drawn on
// the same baseline are joined as they are.
func ContentStreamText(data []byte) string {
	s := &streamScanner{data: data}
	w := &textWriter{}

	var operands []streamToken
	for {
		tok, ok := s.next()
		if !ok {
			break
		}
		if tok.kind != tokOperator {
			operands = append(operands, tok)
			continue
		}

		switch tok.text {
		case "BT":
			w.lineY, w.y = 0, 0
		case "Td", "TD":
			if nums := lastNumbers(operands, 2); nums != nil {
				w.lineY += nums[1]
				w.y = w.lineY
			}
		case "Tm":
			if nums := lastNumbers(operands, 6); nums != nil {
				w.lineY = nums[5]
				w.y = w.lineY
			}
		case "T*":
			w.breakLine = true
		case "Tj":
			w.show(lastString(operands))
		case "'", "\"":
			w.breakLine = true
			w.show(lastString(operands))
		case "TJ":
			var sb strings.Builder
			for _, op := range operands {
				switch op.kind {
				case tokString:
					sb.WriteString(op.text)
				case tokNumber:
					if op.number <= tjSpaceThreshold {
						sb.WriteByte(' ')
					}
				}
			}
			w.show(sb.String())
		}
		operands = operands[:0]
	}

	return w.out.String()
}

// baselineTolerance is how far, in text space units, two pieces of text
// may sit apart vertically and still share a line.
const baselineTolerance = 0.5

type textWriter struct {
	out       strings.Builder
	lineY     float64
	y         float64
	lastY     float64
	hasText   bool
	breakLine bool
}

func (w *textWriter) show(raw string) {
	if raw == "" {
		return
	}
	if w.hasText && (w.breakLine || math.Abs(w.y-w.lastY) > baselineTolerance) {
		w.out.WriteByte('\n')
	}
	w.out.WriteString(decodePDFBytes(raw))
	w.lastY = w.y
	w.hasText = true
	w.breakLine = false
}

// lastNumbers returns the trailing n numeric operands, or nil.
func lastNumbers(operands []streamToken, n int) []float64 {
	if len(operands) < n {
		return nil
	}
	nums := make([]float64, n)
	for i, op := range operands[len(operands)-n:] {
		if op.kind != tokNumber {
			return nil
		}
		nums[i] = op.number
	}
	return nums
}

func lastString(operands []streamToken) string {
	for i := len(operands) - 1; i >= 0; i-- {
		if operands[i].kind == tokString {
			return operands[i].text
		}
	}
	return ""
}

// decodePDFBytes maps simple-font string bytes through WinAnsiEncoding.
func decodePDFBytes(raw string) string {
	decoded, err := charmap.Windows1252.NewDecoder().String(raw)
	if err != nil {
		return raw
	}
	return decoded
}

type tokenKind int

const (
	tokOperator tokenKind = iota
	tokString
	tokNumber
	tokOther
)

type streamToken struct {
	kind   tokenKind
	text   string
	number float64
}

// streamScanner tokenizes a content stream. Array brackets are dropped so
// a TJ array's elements arrive as plain operands.
type streamScanner struct {
	data []byte
	pos  int
}

func isPDFWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}

func isPDFDelimiter(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

func (s *streamScanner) next() (streamToken, bool) {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		switch {
		case isPDFWhitespace(c):
			s.pos++
		case c == '%':
			for s.pos < len(s.data) && s.data[s.pos] != '\n' && s.data[s.pos] != '\r' {
				s.pos++
			}
		case c == '[' || c == ']' || c == '{' || c == '}':
			s.pos++
		case c == '(':
			return streamToken{kind: tokString, text: s.literalString()}, true
		case c == '<' && s.peek(1) == '<', c == '>' && s.peek(1) == '>':
			s.pos += 2
			return streamToken{kind: tokOther}, true
		case c == '<':
			return streamToken{kind: tokString, text: s.hexString()}, true
		case c == '/':
			s.pos++
			return streamToken{kind: tokOther, text: s.regular()}, true
		default:
			word := s.regular()
			if word == "" {
				s.pos++
				continue
			}
			if n, ok := parsePDFNumber(word); ok {
				return streamToken{kind: tokNumber, text: word, number: n}, true
			}
			if word == "BI" {
				s.skipInlineImage()
				continue
			}
			return streamToken{kind: tokOperator, text: word}, true
		}
	}
	return streamToken{}, false
}

func (s *streamScanner) peek(offset int) byte {
	if s.pos+offset < len(s.data) {
		return s.data[s.pos+offset]
	}
	return 0
}

func (s *streamScanner) regular() string {
	start := s.pos
	for s.pos < len(s.data) && !isPDFWhitespace(s.data[s.pos]) && !isPDFDelimiter(s.data[s.pos]) {
		s.pos++
	}
	return string(s.data[start:s.pos])
}

// literalString reads a balanced (...) string and resolves its escapes.
func (s *streamScanner) literalString() string {
	s.pos++
	var sb strings.Builder
	depth := 1
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		switch c {
		case '\\':
			if s.pos >= len(s.data) {
				return sb.String()
			}
			e := s.data[s.pos]
			s.pos++
			switch e {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case 'b':
				sb.WriteByte('\b')
			case 'f':
				sb.WriteByte('\f')
			case '\r', '\n':
				if e == '\r' && s.pos < len(s.data) && s.data[s.pos] == '\n' {
					s.pos++
				}
			default:
				if e >= '0' && e <= '7' {
					val := int(e - '0')
					for i := 0; i < 2 && s.pos < len(s.data) && s.data[s.pos] >= '0' && s.data[s.pos] <= '7'; i++ {
						val = val*8 + int(s.data[s.pos]-'0')
						s.pos++
					}
					sb.WriteByte(byte(val))
				} else {
					sb.WriteByte(e)
				}
			}
		case '(':
			depth++
			sb.WriteByte(c)
		case ')':
			depth--
			if depth == 0 {
				return sb.String()
			}
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func (s *streamScanner) hexString() string {
	s.pos++
	var digits []byte
	for s.pos < len(s.data) && s.data[s.pos] != '>' {
		if c := s.data[s.pos]; !isPDFWhitespace(c) {
			digits = append(digits, c)
		}
		s.pos++
	}
	s.pos++
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}

	out := make([]byte, 0, len(digits)/2)
	for i := 0; i+1 < len(digits); i += 2 {
		hi, okHi := hexValue(digits[i])
		lo, okLo := hexValue(digits[i+1])
		if !okHi || !okLo {
			continue
		}
		out = append(out, hi<<4|lo)
	}
	return string(out)
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// skipInlineImage advances past the binary data of a BI ... ID ... EI block.
func (s *streamScanner) skipInlineImage() {
	idx := strings.Index(string(s.data[s.pos:]), "EI")
	for idx >= 0 {
		end := s.pos + idx + 2
		if end >= len(s.data) || isPDFWhitespace(s.data[end]) {
			s.pos = end
			return
		}
		next := strings.Index(string(s.data[end:]), "EI")
		if next < 0 {
			break
		}
		idx = end - s.pos + next
	}
	s.pos = len(s.data)
}

// parsePDFNumber parses integer and real operands such as -12, 3.5 and .25.
func parsePDFNumber(word string) (float64, bool) {
	if c := word[0]; c != '-' && c != '+' && c != '.' && (c < '0' || c > '9') {
		return 0, false
	}
	n, err := strconv.ParseFloat(word, 64)
	return n, err == nil
}
