package rendering

import (
	"bytes"
	"log/slog"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/jonathan/cover-letter/internal/letter"
)

const pdfFontFamily = "Helvetica"

// PDFOptions configures RenderPDF.
type PDFOptions struct {
	Page    PageOptions
	Title   string
	Author  string
	Created time.Time
	Logger  *slog.Logger
}

// pdfCanvas draws onto a single fpdf page using the core Helvetica font.
type pdfCanvas struct {
	pdf       *fpdf.Fpdf
	translate func(string) string
}

func newPDFCanvas(pdf *fpdf.Fpdf) *pdfCanvas {
	return &pdfCanvas{
		pdf:       pdf,
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

func (c *pdfCanvas) encode(s string) string {
	return c.translate(EscapePDFText(s))
}

func (c *pdfCanvas) SetStyle(bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	c.pdf.SetFont(pdfFontFamily, style, FontSize)
}

func (c *pdfCanvas) StringWidth(s string) float64 {
	return c.pdf.GetStringWidth(c.encode(s))
}

func (c *pdfCanvas) Text(x, y float64, s string) {
	c.pdf.Text(x, y, c.encode(s))
}

// newPDFDocument creates a point-based document with automatic page breaks
// disabled.
func newPDFDocument(page PageOptions) *fpdf.Fpdf {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: page.Width, Ht: page.Height},
	})
	pdf.SetMargins(page.Margin, page.Margin, page.Margin)
	pdf.SetAutoPageBreak(false, page.Margin)
	return pdf
}

// RenderPDF lays out blocks on one US Letter page and returns the PDF bytes.
// An empty block list produces a valid blank page.
func RenderPDF(blocks []letter.Block, opts PDFOptions) ([]byte, PageResult, error) {
	page := opts.Page.withDefaults()
	if opts.Logger != nil {
		page.Logger = opts.Logger
	}

	pdf := newPDFDocument(page)
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}
	if opts.Author != "" {
		pdf.SetAuthor(opts.Author, true)
	}
	pdf.SetCreator("cover-letter", true)
	if !opts.Created.IsZero() {
		pdf.SetCreationDate(opts.Created)
		pdf.SetModificationDate(opts.Created)
	}

	pdf.AddPage()
	pdf.SetFont(pdfFontFamily, "", FontSize)

	result := RenderPage(blocks, newPDFCanvas(pdf), page)

	if err := pdf.Error(); err != nil {
		return nil, result, &RenderError{Message: "failed to lay out page", Cause: err}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, result, &RenderError{Message: "failed to write PDF", Cause: err}
	}
	return buf.Bytes(), result, nil
}

// RenderToPageFormat renders letter text as a single-page PDF.
func RenderToPageFormat(text string) ([]byte, error) {
	data, _, err := RenderPDF(letter.Layout(text), PDFOptions{})
	return data, err
}
