package rendering

import "github.com/jonathan/cover-letter/internal/letter"

// Indent is a paragraph indent in twips. The first line starts at
// Left-Hanging; wrapped lines start at Left.
type Indent struct {
	Left    int
	Hanging int
}

// ParagraphSpec is one paragraph of the flow document. Lengths are twips.
type ParagraphSpec struct {
	Kind         letter.Kind
	Runs         []letter.InlineRun
	SpacingAfter int
	// LineHeight is an exact line pitch.
	LineHeight int
	Indent     Indent
	IsBullet   bool
	// Hidden paragraphs carry a vanished paragraph mark and take no space.
	Hidden bool
}

// BulletIndent places the glyph at BulletGlyphIndent and the text, including
// wrapped lines, at BulletTextIndent.
var BulletIndent = Indent{
	Left:    Twips(BulletTextIndent),
	Hanging: Twips(BulletTextIndent - BulletGlyphIndent),
}

// RenderFlow converts blocks into paragraph specs with the same rhythm the
// page engine applies.
func RenderFlow(blocks []letter.Block) []ParagraphSpec {
	paragraphs := make([]ParagraphSpec, 0, len(blocks))

	for _, b := range blocks {
		p := ParagraphSpec{
			Kind:         b.Kind,
			Runs:         b.Runs,
			SpacingAfter: Twips(gapPoints(b.GapAfter)),
			LineHeight:   Twips(LineHeight),
		}

		switch {
		case b.Hidden:
			p.Hidden = true
			p.SpacingAfter = 0
			p.LineHeight = Twips(CollapsedLineHeight)
		case !b.Kind.HasText():
			p.LineHeight = Twips(CollapsedLineHeight)
		case b.Kind == letter.KindBullet:
			p.IsBullet = true
			p.Indent = BulletIndent
		}

		paragraphs = append(paragraphs, p)
	}

	return paragraphs
}
