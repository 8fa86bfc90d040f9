// Package letter turns model-generated cover letter text into a classified,
// format-neutral layout plan shared by the PDF and DOCX renderers.
package letter

// Kind classifies one line of letter text.
type Kind int

const (
	// KindBody is ordinary paragraph text.
	KindBody Kind = iota
	// KindHeaderDate is the first line of the header block.
	KindHeaderDate
	// KindHeaderContact is a name/phone/email line in the header block.
	KindHeaderContact
	// KindBlank is an empty line in the body.
	KindBlank
	// KindSalutation is the "Dear ..." line.
	KindSalutation
	// KindClosing is a sign-off such as "Sincerely,".
	KindClosing
	// KindBullet is a bullet item with its marker stripped.
	KindBullet
	// KindSpacer separates the header block from the salutation. It is
	// produced by the planner, never by the segmenter.
	KindSpacer
)

var kindNames = map[Kind]string{
	KindBody:          "body",
	KindHeaderDate:    "header_date",
	KindHeaderContact: "header_contact",
	KindBlank:         "blank",
	KindSalutation:    "salutation",
	KindClosing:       "closing",
	KindBullet:        "bullet",
	KindSpacer:        "spacer",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsHeader reports whether the kind belongs to the header block.
func (k Kind) IsHeader() bool {
	return k == KindHeaderDate || k == KindHeaderContact
}

// HasText reports whether blocks of this kind carry visible runs.
func (k Kind) HasText() bool {
	return k != KindBlank && k != KindSpacer
}

// InlineRun is a contiguous span of plain or bold text within a line.
type InlineRun struct {
	Text string `json:"text"`
	Bold bool   `json:"bold,omitempty"`
}

// Segment is one classified line of letter text.
type Segment struct {
	Kind Kind
	// Text is the trimmed line; for bullets the marker is removed.
	Text string
	// Runs is the inline markup of Text. Empty for blank lines.
	Runs []InlineRun
	// Line is the 1-based source line number.
	Line int
}

// Block is one unit of vertical layout. Both renderers consume the same
// []Block, so their spacing decisions cannot drift apart.
type Block struct {
	Kind Kind
	Runs []InlineRun
	// GapAfter is the number of gap units that follow the block.
	GapAfter int
	// Hidden blocks occupy no vertical space (blank lines under a closing).
	Hidden bool
	// Last marks the final bullet of the document.
	Last bool
}

// PlainText concatenates the visible text of runs.
func PlainText(runs []InlineRun) string {
	n := 0
	for _, r := range runs {
		n += len(r.Text)
	}
	buf := make([]byte, 0, n)
	for _, r := range runs {
		buf = append(buf, r.Text...)
	}
	return string(buf)
}
