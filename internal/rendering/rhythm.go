// Package rendering lays out cover letter text into PDF and DOCX documents.
package rendering

import "math"

// Page geometry and type settings, in points. Both engines derive every
// vertical distance from these values.
const (
	// PageWidth and PageHeight describe US Letter.
	PageWidth  = 612.0
	PageHeight = 792.0
	// Margin is applied on all four sides.
	Margin = 72.0

	FontSize   = 11.0
	LineHeight = 14.0
	// GapUnit is the single spacing step used between blocks: half a line.
	GapUnit = LineHeight / 2
	// CollapsedLineHeight is the height of spacer and blank blocks.
	CollapsedLineHeight = 1.0

	// BulletGlyphIndent is where the bullet glyph starts, from the left margin.
	BulletGlyphIndent = 18.0
	// BulletTextIndent is where bullet text and its wrapped lines start.
	BulletTextIndent = 36.0

	// BulletGlyph is drawn in front of every bullet item.
	BulletGlyph = "•"
)

// TwipsPerPoint converts points to the flow format's length unit.
const TwipsPerPoint = 20

// Twips converts points to twips.
func Twips(pt float64) int {
	return int(math.Round(pt * TwipsPerPoint))
}

// gapPoints converts gap units to points.
func gapPoints(units int) float64 {
	return float64(units) * GapUnit
}
