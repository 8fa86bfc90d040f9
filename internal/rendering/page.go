package rendering

import (
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/cover-letter/internal/letter"
)

// Canvas is the drawing surface the page engine writes to.
type Canvas interface {
	// SetStyle switches the current font weight.
	SetStyle(bold bool)
	// StringWidth measures s in the current style, in points.
	StringWidth(s string) float64
	// Text places s with its baseline at (x, y), measured from the top-left.
	Text(x, y float64, s string)
}

// PageOptions configures the page engine.
type PageOptions struct {
	Width      float64
	Height     float64
	Margin     float64
	LineHeight float64
	Logger     *slog.Logger
}

// DefaultPageOptions returns US Letter with the standard margins and rhythm.
func DefaultPageOptions() PageOptions {
	return PageOptions{
		Width:      PageWidth,
		Height:     PageHeight,
		Margin:     Margin,
		LineHeight: LineHeight,
	}
}

func (o PageOptions) withDefaults() PageOptions {
	d := DefaultPageOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.Margin <= 0 {
		o.Margin = d.Margin
	}
	if o.LineHeight <= 0 {
		o.LineHeight = d.LineHeight
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// LayoutContext is the cursor of a single page render. Y is the top of the
// next line.
type LayoutContext struct {
	X    float64
	Y    float64
	Bold bool

	canvas Canvas
	styled bool
}

func (c *LayoutContext) setBold(bold bool) {
	if c.styled && c.Bold == bold {
		return
	}
	c.canvas.SetStyle(bold)
	c.Bold = bold
	c.styled = true
}

// PlacedBlock records where one block landed on the page.
type PlacedBlock struct {
	Kind   letter.Kind
	Top    float64
	Lines  int
	Gap    float64
	Hidden bool
}

// PageResult describes a finished page render.
type PageResult struct {
	Blocks []PlacedBlock
	// Height is the distance from the top margin to the final cursor.
	Height float64
	// Overflow is set when content runs past the bottom margin. The page
	// is not split or shrunk.
	Overflow bool
}

// RenderPage draws blocks onto canvas, top to bottom on a single page.
func RenderPage(blocks []letter.Block, canvas Canvas, opts PageOptions) PageResult {
	opts = opts.withDefaults()
	ctx := &LayoutContext{X: opts.Margin, Y: opts.Margin, canvas: canvas}
	bottom := opts.Height - opts.Margin
	textWidth := opts.Width - 2*opts.Margin

	result := PageResult{Blocks: make([]PlacedBlock, 0, len(blocks))}

	for _, b := range blocks {
		placed := PlacedBlock{Kind: b.Kind, Top: ctx.Y, Hidden: b.Hidden}

		switch {
		case b.Hidden:
			result.Blocks = append(result.Blocks, placed)
			continue

		case !b.Kind.HasText():
			ctx.Y += CollapsedLineHeight

		case b.Kind == letter.KindBullet:
			ctx.setBold(false)
			canvas.Text(opts.Margin+BulletGlyphIndent, baseline(ctx.Y, opts.LineHeight), BulletGlyph)
			ctx.X = opts.Margin + BulletTextIndent
			placed.Lines = drawWrapped(ctx, b.Runs, textWidth-BulletTextIndent, opts.LineHeight)

		default:
			ctx.X = opts.Margin
			placed.Lines = drawWrapped(ctx, b.Runs, textWidth, opts.LineHeight)
		}

		if ctx.Y > bottom {
			result.Overflow = true
		}

		placed.Gap = gapPoints(b.GapAfter)
		ctx.Y += placed.Gap
		result.Blocks = append(result.Blocks, placed)
	}

	result.Height = ctx.Y - opts.Margin
	if result.Overflow {
		opts.Logger.Warn("letter overflows the page",
			"height", result.Height,
			"available", bottom-opts.Margin,
		)
	}
	return result
}

func baseline(top, lineHeight float64) float64 {
	return top + lineHeight*0.8
}

type fragment struct {
	text string
	bold bool
}

type word []fragment

// splitWords breaks runs at whitespace. A word may mix weights when a bold
// span ends mid-word.
func splitWords(runs []letter.InlineRun) []word {
	var words []word
	var cur word
	for _, r := range runs {
		start := 0
		for i, ch := range r.Text {
			if !unicode.IsSpace(ch) {
				continue
			}
			if i > start {
				cur = append(cur, fragment{text: r.Text[start:i], bold: r.Bold})
			}
			if len(cur) > 0 {
				words = append(words, cur)
				cur = nil
			}
			start = i + utf8.RuneLen(ch)
		}
		if start < len(r.Text) {
			cur = append(cur, fragment{text: r.Text[start:], bold: r.Bold})
		}
	}
	if len(cur) > 0 {
		words = append(words, cur)
	}
	return words
}

func measure(ctx *LayoutContext, w word) float64 {
	total := 0.0
	for _, f := range w {
		ctx.setBold(f.bold)
		total += ctx.canvas.StringWidth(f.text)
	}
	return total
}

// drawWrapped fills lines greedily starting at ctx.X and returns the number
// of lines used. Wrapped lines start at the same X as the first. Each line
// is drawn as one text run per change of weight.
func drawWrapped(ctx *LayoutContext, runs []letter.InlineRun, width, lineHeight float64) int {
	words := splitWords(runs)
	if len(words) == 0 {
		ctx.Y += lineHeight
		return 1
	}

	ctx.setBold(false)
	space := ctx.canvas.StringWidth(" ")
	left := ctx.X

	var line []word
	lineWidth := 0.0
	lines := 0

	flush := func() {
		y := baseline(ctx.Y, lineHeight)
		ctx.X = left

		var pending strings.Builder
		pendingBold := false
		emit := func() {
			if pending.Len() == 0 {
				return
			}
			ctx.setBold(pendingBold)
			ctx.canvas.Text(ctx.X, y, pending.String())
			ctx.X += ctx.canvas.StringWidth(pending.String())
			pending.Reset()
		}

		for i, w := range line {
			for j, f := range w {
				if pending.Len() > 0 && f.bold != pendingBold {
					emit()
				}
				if pending.Len() == 0 {
					pendingBold = f.bold
				}
				if i > 0 && j == 0 {
					pending.WriteByte(' ')
				}
				pending.WriteString(f.text)
			}
		}
		emit()

		ctx.Y += lineHeight
		lines++
		line = line[:0]
		lineWidth = 0
	}

	for _, w := range words {
		ww := measure(ctx, w)
		if len(line) > 0 && lineWidth+space+ww > width {
			flush()
		}
		if len(line) > 0 {
			lineWidth += space
		}
		line = append(line, w)
		lineWidth += ww
	}
	flush()

	ctx.X = left
	return lines
}
