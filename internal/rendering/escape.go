package rendering

import (
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// glyphFallbacks maps characters the core PDF fonts cannot draw to close
// ASCII equivalents. Characters in Windows-1252, such as curly quotes and
// the bullet glyph, are left alone.
var glyphFallbacks = map[rune]string{
	'\t':     " ",
	'\u200b': "",
	'\ufeff': "",

	'‐': "-",
	'‑': "-",
	'‒': "-",
	'―': "-",
	'−': "-",
	'▪': "-",
	'●': "-",
	'‣': "-",
	'←': "<-",
	'→': "->",
	'⇒': "=>",
	'≤': "<=",
	'≥': ">=",
	'≈': "~",
	'′': "'",
	'″': "\"",
	'✓': "",
	'✔': "",
}

// letterFolds spells letters that have no Windows-1252 form and no
// canonical decomposition. Greek and Cyrillic follow common romanization.
// Lowercase entries are derived in init.
var letterFolds = map[rune]string{
	'Ł': "L", 'Đ': "D", 'Ħ': "H", 'Ŀ': "L", 'Ŋ': "N", 'Ə': "E", 'Ŧ': "T",
	'ı': "i", 'ĸ': "k", 'ſ': "s",

	'Α': "A", 'Β': "V", 'Γ': "G", 'Δ': "D", 'Ε': "E", 'Ζ': "Z", 'Η': "I",
	'Θ': "Th", 'Ι': "I", 'Κ': "K", 'Λ': "L", 'Μ': "M", 'Ν': "N", 'Ξ': "X",
	'Ο': "O", 'Π': "P", 'Ρ': "R", 'Σ': "S", 'Τ': "T", 'Υ': "Y", 'Φ': "F",
	'Χ': "Ch", 'Ψ': "Ps", 'Ω': "O",
	'ς': "s",

	'А': "A", 'Б': "B", 'В': "V", 'Г': "G", 'Д': "D", 'Е': "E", 'Ё': "Yo",
	'Ж': "Zh", 'З': "Z", 'И': "I", 'Й': "Y", 'К': "K", 'Л': "L", 'М': "M",
	'Н': "N", 'О': "O", 'П': "P", 'Р': "R", 'С': "S", 'Т': "T", 'У': "U",
	'Ф': "F", 'Х': "Kh", 'Ц': "Ts", 'Ч': "Ch", 'Ш': "Sh", 'Щ': "Shch",
	'Ъ': "", 'Ы': "Y", 'Ь': "", 'Э': "E", 'Ю': "Yu", 'Я': "Ya",
	'Є': "Ye", 'І': "I", 'Ї': "Yi", 'Ґ': "G",
}

func init() {
	lower := make(map[rune]string)
	for r, s := range letterFolds {
		if l := unicode.ToLower(r); l != r {
			lower[l] = strings.ToLower(s)
		}
	}
	for r, s := range lower {
		if _, ok := letterFolds[r]; !ok {
			letterFolds[r] = s
		}
	}
}

// EscapePDFText rewrites text into the Windows-1252 repertoire of the PDF
// core fonts. Letters outside it are folded to their base letter or
// romanized; characters with no spelling become "?".
func EscapePDFText(text string) string {
	if text == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(text))

	for _, r := range norm.NFC.String(text) {
		if repl, ok := glyphFallbacks[r]; ok {
			result.WriteString(repl)
			continue
		}
		if r < 0x20 {
			continue
		}
		if inCoreEncoding(r) {
			result.WriteRune(r)
			continue
		}
		if fold, ok := letterFolds[r]; ok {
			result.WriteString(fold)
			continue
		}
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		foldRune(&result, r)
	}

	return result.String()
}

func inCoreEncoding(r rune) bool {
	_, ok := charmap.Windows1252.EncodeRune(r)
	return ok
}

// foldRune writes the base letters of r's canonical decomposition.
func foldRune(b *strings.Builder, r rune) {
	wrote := false
	for _, d := range norm.NFD.String(string(r)) {
		switch {
		case unicode.Is(unicode.Mn, d):
			continue
		case inCoreEncoding(d):
			b.WriteRune(d)
		default:
			fold, ok := letterFolds[d]
			if !ok {
				fold = "?"
			}
			b.WriteString(fold)
		}
		wrote = true
	}
	if !wrote {
		b.WriteByte('?')
	}
}
