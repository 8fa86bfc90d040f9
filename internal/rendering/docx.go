package rendering

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"strconv"
	"time"

	"github.com/jonathan/cover-letter/internal/letter"
)

const (
	nsWordML  = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	docxFont  = "Arial"
	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
)

// FlowOptions configures RenderDOCX and PackDOCX.
type FlowOptions struct {
	Title   string
	Author  string
	Created time.Time
}

type wDocument struct {
	XMLName xml.Name `xml:"w:document"`
	NS      string   `xml:"xmlns:w,attr"`
	Body    wBody    `xml:"w:body"`
}

type wBody struct {
	Paragraphs []wParagraph `xml:"w:p"`
	Section    wSection     `xml:"w:sectPr"`
}

type wParagraph struct {
	Props wParagraphProps `xml:"w:pPr"`
	Runs  []wRun          `xml:"w:r"`
}

type wParagraphProps struct {
	Spacing wSpacing   `xml:"w:spacing"`
	Indent  *wIndent   `xml:"w:ind,omitempty"`
	Mark    *wRunProps `xml:"w:rPr,omitempty"`
}

type wSpacing struct {
	Before   int    `xml:"w:before,attr"`
	After    int    `xml:"w:after,attr"`
	Line     int    `xml:"w:line,attr"`
	LineRule string `xml:"w:lineRule,attr"`
}

type wIndent struct {
	Left    int `xml:"w:left,attr"`
	Hanging int `xml:"w:hanging,attr"`
}

type wRun struct {
	Props *wRunProps `xml:"w:rPr,omitempty"`
	Tab   *struct{}  `xml:"w:tab,omitempty"`
	Text  *wText     `xml:"w:t,omitempty"`
}

type wRunProps struct {
	Bold   *struct{} `xml:"w:b,omitempty"`
	BoldCS *struct{} `xml:"w:bCs,omitempty"`
	Vanish *struct{} `xml:"w:vanish,omitempty"`
}

type wText struct {
	Space string `xml:"xml:space,attr"`
	Value string `xml:",chardata"`
}

type wSection struct {
	Size   wPageSize    `xml:"w:pgSz"`
	Margin wPageMargins `xml:"w:pgMar"`
}

type wPageSize struct {
	W int `xml:"w:w,attr"`
	H int `xml:"w:h,attr"`
}

type wPageMargins struct {
	Top    int `xml:"w:top,attr"`
	Right  int `xml:"w:right,attr"`
	Bottom int `xml:"w:bottom,attr"`
	Left   int `xml:"w:left,attr"`
	Header int `xml:"w:header,attr"`
	Footer int `xml:"w:footer,attr"`
	Gutter int `xml:"w:gutter,attr"`
}

type coreProperties struct {
	XMLName  xml.Name    `xml:"cp:coreProperties"`
	NSCP     string      `xml:"xmlns:cp,attr"`
	NSDC     string      `xml:"xmlns:dc,attr"`
	NSTerms  string      `xml:"xmlns:dcterms,attr"`
	NSXSI    string      `xml:"xmlns:xsi,attr"`
	Title    string      `xml:"dc:title,omitempty"`
	Creator  string      `xml:"dc:creator,omitempty"`
	Created  w3cdtfValue `xml:"dcterms:created"`
	Modified w3cdtfValue `xml:"dcterms:modified"`
}

type w3cdtfValue struct {
	Type  string `xml:"xsi:type,attr"`
	Value string `xml:",chardata"`
}

func newW3CDTF(t time.Time) w3cdtfValue {
	return w3cdtfValue{Type: "dcterms:W3CDTF", Value: t.UTC().Format(time.RFC3339)}
}

const contentTypesXML = xmlHeader + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>` +
	`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>` +
	`</Types>`

const packageRelsXML = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>` +
	`</Relationships>`

const documentRelsXML = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
	`</Relationships>`

func stylesXML() string {
	size := strconv.Itoa(int(FontSize * 2))
	return xmlHeader + `<w:styles xmlns:w="` + nsWordML + `">` +
		`<w:docDefaults><w:rPrDefault><w:rPr>` +
		`<w:rFonts w:ascii="` + docxFont + `" w:hAnsi="` + docxFont + `" w:cs="` + docxFont + `"/>` +
		`<w:sz w:val="` + size + `"/><w:szCs w:val="` + size + `"/>` +
		`</w:rPr></w:rPrDefault>` +
		`<w:pPrDefault><w:pPr><w:spacing w:before="0" w:after="0"/></w:pPr></w:pPrDefault>` +
		`</w:docDefaults>` +
		`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>` +
		`</w:styles>`
}

func buildParagraph(p ParagraphSpec) wParagraph {
	wp := wParagraph{
		Props: wParagraphProps{
			Spacing: wSpacing{
				After:    p.SpacingAfter,
				Line:     p.LineHeight,
				LineRule: "exact",
			},
		},
	}

	if p.Hidden {
		wp.Props.Mark = &wRunProps{Vanish: &struct{}{}}
		return wp
	}

	if p.IsBullet {
		wp.Props.Indent = &wIndent{Left: p.Indent.Left, Hanging: p.Indent.Hanging}
		wp.Runs = append(wp.Runs,
			wRun{Text: &wText{Space: "preserve", Value: BulletGlyph}},
			wRun{Tab: &struct{}{}},
		)
	}

	for _, r := range p.Runs {
		run := wRun{Text: &wText{Space: "preserve", Value: r.Text}}
		if r.Bold {
			run.Props = &wRunProps{Bold: &struct{}{}, BoldCS: &struct{}{}}
		}
		wp.Runs = append(wp.Runs, run)
	}

	return wp
}

func marshalPart(v any) ([]byte, error) {
	body, err := xml.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append([]byte(xmlHeader), body...), nil
}

// PackDOCX serializes paragraphs into a WordprocessingML package.
func PackDOCX(paragraphs []ParagraphSpec, opts FlowOptions) ([]byte, error) {
	created := opts.Created
	if created.IsZero() {
		created = time.Now()
	}

	doc := wDocument{
		NS: nsWordML,
		Body: wBody{
			Paragraphs: make([]wParagraph, 0, len(paragraphs)),
			Section: wSection{
				Size: wPageSize{W: Twips(PageWidth), H: Twips(PageHeight)},
				Margin: wPageMargins{
					Top:    Twips(Margin),
					Right:  Twips(Margin),
					Bottom: Twips(Margin),
					Left:   Twips(Margin),
					Header: Twips(Margin / 2),
					Footer: Twips(Margin / 2),
				},
			},
		},
	}
	for _, p := range paragraphs {
		doc.Body.Paragraphs = append(doc.Body.Paragraphs, buildParagraph(p))
	}
	if len(doc.Body.Paragraphs) == 0 {
		doc.Body.Paragraphs = append(doc.Body.Paragraphs, buildParagraph(ParagraphSpec{LineHeight: Twips(LineHeight)}))
	}

	documentXML, err := marshalPart(doc)
	if err != nil {
		return nil, &PackError{Part: "word/document.xml", Cause: err}
	}

	coreXML, err := marshalPart(coreProperties{
		NSCP:     "http://schemas.openxmlformats.org/package/2006/metadata/core-properties",
		NSDC:     "http://purl.org/dc/elements/1.1/",
		NSTerms:  "http://purl.org/dc/terms/",
		NSXSI:    "http://www.w3.org/2001/XMLSchema-instance",
		Title:    opts.Title,
		Creator:  opts.Author,
		Created:  newW3CDTF(created),
		Modified: newW3CDTF(created),
	})
	if err != nil {
		return nil, &PackError{Part: "docProps/core.xml", Cause: err}
	}

	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(packageRelsXML)},
		{"word/document.xml", documentXML},
		{"word/styles.xml", []byte(stylesXML())},
		{"word/_rels/document.xml.rels", []byte(documentRelsXML)},
		{"docProps/core.xml", coreXML},
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, part := range parts {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     part.name,
			Method:   zip.Deflate,
			Modified: created,
		})
		if err != nil {
			return nil, &PackError{Part: part.name, Cause: err}
		}
		if _, err := w.Write(part.data); err != nil {
			return nil, &PackError{Part: part.name, Cause: err}
		}
	}
	if err := zw.Close(); err != nil {
		return nil, &PackError{Part: "zip", Cause: err}
	}

	return buf.Bytes(), nil
}

// RenderDOCX lays out blocks as flow paragraphs and packs them.
func RenderDOCX(blocks []letter.Block, opts FlowOptions) ([]byte, []ParagraphSpec, error) {
	paragraphs := RenderFlow(blocks)
	data, err := PackDOCX(paragraphs, opts)
	if err != nil {
		return nil, paragraphs, err
	}
	return data, paragraphs, nil
}

// RenderToFlowFormat renders letter text as a DOCX document.
func RenderToFlowFormat(text string) ([]byte, error) {
	data, _, err := RenderDOCX(letter.Layout(text), FlowOptions{})
	return data, err
}
