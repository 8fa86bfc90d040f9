package ingestion

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/jonathan/cover-letter/internal/rendering"
)

func TestExtractResume_RoundTripsRenderedPDF(t *testing.T) {
	pdf, err := rendering.RenderToPageFormat("June 1, 2026\nJane Doe\njane@example.com\n\nDear Hiring Manager,\nI build **reliable** systems.\n\n* Led the (payments) team\n\nSincerely,\nJane Doe")
	require.NoError(t, err)

	resume, err := ExtractResume(pdf)
	require.NoError(t, err)

	assert.Equal(t, 1, resume.Pages)
	assert.Contains(t, resume.Text, "June 1, 2026\nJane Doe\njane@example.com")
	assert.Contains(t, resume.Text, "Dear Hiring Manager,")
	assert.Contains(t, resume.Text, "I build reliable systems.")
	assert.Contains(t, resume.Text, "Led the (payments) team")
	assert.Contains(t, resume.Text, "•")
	assert.Greater(t, resume.Characters, 0)
}

func TestExtractResume_NoText(t *testing.T) {
	pdf, err := rendering.RenderToPageFormat("")
	require.NoError(t, err)

	_, err = ExtractResume(pdf)
	require.Error(t, err)

	var resumeErr *ResumeError
	require.ErrorAs(t, err, &resumeErr)
	assert.Equal(t, MsgNoResumeText, resumeErr.Message)
}

func TestExtractResume_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		message string
	}{
		{name: "empty", data: nil, message: "resume file is empty"},
		{name: "not a pdf", data: []byte("PK\x03\x04 docx"), message: "resume is not a PDF"},
		{name: "too large", data: make([]byte, MaxResumeBytes+1), message: "resume exceeds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractResume(tt.data)
			require.Error(t, err)

			var resumeErr *ResumeError
			require.ErrorAs(t, err, &resumeErr)
			assert.Contains(t, resumeErr.Message, tt.message)
		})
	}
}

func TestExtractResume_CorruptPDF(t *testing.T) {
	_, err := ExtractResume([]byte("%PDF-1.4\ngarbage"))
	require.Error(t, err)

	var resumeErr *ResumeError
	require.ErrorAs(t, err, &resumeErr)
	assert.Equal(t, "failed to parse PDF", resumeErr.Message)
	assert.NotNil(t, resumeErr.Unwrap())
}

// compositeFontPDF draws text with an embedded TrueType font, which is
// written as two-byte codes through an Identity-H encoding.
func compositeFontPDF(t *testing.T, lines ...string) []byte {
	t.Helper()
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.AddUTF8FontFromBytes("goregular", "", goregular.TTF)
	pdf.AddPage()
	pdf.SetFont("goregular", "", 11)
	for i, line := range lines {
		pdf.Text(72, 90+float64(i)*14, line)
	}
	require.NoError(t, pdf.Error())

	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

func TestExtractResume_CompositeFontRejected(t *testing.T) {
	data := compositeFontPDF(t, "Jane Doe", "Senior Backend Engineer", "Go, Postgres, Kubernetes")

	_, err := ExtractResume(data)
	require.Error(t, err)

	var resumeErr *ResumeError
	require.ErrorAs(t, err, &resumeErr)
	assert.Equal(t, MsgUnreadableResumeText, resumeErr.Message)
}

func TestExtractResume_FoldedNamesRoundTrip(t *testing.T) {
	pdf, err := rendering.RenderToPageFormat("June 1, 2026\nŁukasz Dvořák\n\nDear Hiring Manager,\nI build systems.")
	require.NoError(t, err)

	resume, err := ExtractResume(pdf)
	require.NoError(t, err)
	assert.Contains(t, resume.Text, "Lukasz Dvorák")
}

func TestReadableRatio(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{name: "plain", text: "Jane Doe\nEngineer", want: 1},
		{name: "unicode spaces and accents", text: "Zoë\u2009Müller", want: 1},
		{name: "two-byte codes", text: "\x00J\x00a\x00n\x00e", want: 0.5},
		{name: "empty", text: "", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, readableRatio(tt.text), 0.001)
		})
	}
}

func TestDropUnprintable(t *testing.T) {
	assert.Equal(t, "Jane Doe\nEngineer", strings.Map(dropUnprintable, "Jane\x07 Doe\nEngi\ufffdneer"))
}
