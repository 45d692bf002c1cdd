package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"ContentBriefs/internal/domain"
	"ContentBriefs/internal/ports"
)

const (
	fontName      = "Calibri"
	bodySize      = 22 // half-points
	headingSize   = 24
	titleSize     = 32
	headerFill    = "002060"
	sectionFill   = "4472C4"
	linkColor     = "0563C1"
	indentStep    = 360 // twips, a quarter inch
	maxTopicChars = 30
)

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>
</Types>`

const packageRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const documentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
</Relationships>`

const styles = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:docDefaults><w:rPrDefault><w:rPr><w:rFonts w:ascii="Calibri" w:hAnsi="Calibri" w:cs="Calibri"/><w:sz w:val="22"/></w:rPr></w:rPrDefault></w:docDefaults>
<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>
</w:styles>`

// Encoder renders briefs as Word documents.
type Encoder struct {
	now func() time.Time
}

var _ ports.Encoder = (*Encoder)(nil)

// NewEncoder returns an encoder stamping filenames with the current time.
func NewEncoder() *Encoder {
	return &Encoder{now: time.Now}
}

// NewEncoderWithClock allows tests to pin the filename timestamp.
func NewEncoderWithClock(now func() time.Time) *Encoder {
	return &Encoder{now: now}
}

// Encode builds the .docx package for one brief.
func (e *Encoder) Encode(brief domain.Brief) (domain.Document, error) {
	body, err := renderBody(brief)
	if err != nil {
		return domain.Document{}, ports.Fail(ports.KindEncoding, err, "render document body")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct{ name, content string }{
		{"[Content_Types].xml", contentTypes},
		{"_rels/.rels", packageRels},
		{"word/_rels/document.xml.rels", documentRels},
		{"word/styles.xml", styles},
		{"word/document.xml", body},
	}
	for _, p := range parts {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: p.name, Method: zip.Deflate})
		if err != nil {
			return domain.Document{}, ports.Fail(ports.KindEncoding, err, "create %s", p.name)
		}
		if _, err := w.Write([]byte(p.content)); err != nil {
			return domain.Document{}, ports.Fail(ports.KindEncoding, err, "write %s", p.name)
		}
	}
	if err := zw.Close(); err != nil {
		return domain.Document{}, ports.Fail(ports.KindEncoding, err, "close package")
	}

	return domain.Document{Filename: Filename(brief, e.now()), Bytes: buf.Bytes()}, nil
}

// Filename names a brief document as Client_Topic_YYYYMMDD_HHMMSS.docx.
func Filename(brief domain.Brief, at time.Time) string {
	client := filePart(brief.ClientName, "Client")
	topic := []rune(filePart(brief.Topic, "Topic"))
	if len(topic) > maxTopicChars {
		topic = topic[:maxTopicChars]
	}
	return fmt.Sprintf("%s_%s_%s.docx", client, string(topic), at.Format("20060102_150405"))
}

var fileReplacer = strings.NewReplacer(" ", "_", "/", "-", `\`, "-", ":", "-")

func filePart(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		value = fallback
	}
	return fileReplacer.Replace(value)
}

type run struct {
	text   string
	bold   bool
	italic bool
	color  string
	size   int
}

type paragraph struct {
	runs   []run
	indent int
	fill   string
	center bool
}

type docBuilder struct {
	paras []paragraph
}

func (d *docBuilder) add(p paragraph) { d.paras = append(d.paras, p) }

func (d *docBuilder) blank() { d.add(paragraph{}) }

func (d *docBuilder) section(title string) {
	d.add(paragraph{fill: sectionFill, runs: []run{{text: title, bold: true, color: "FFFFFF", size: headingSize}}})
}

func (d *docBuilder) labelled(label, value string) {
	d.add(paragraph{runs: []run{{text: label + ": ", bold: true}, {text: value}}})
}

func (d *docBuilder) list(label string, items []string) {
	d.add(paragraph{runs: []run{{text: label, bold: true}}})
	for _, item := range items {
		d.add(paragraph{indent: indentStep, runs: []run{{text: "- " + item}}})
	}
}

func layout(b domain.Brief) *docBuilder {
	d := &docBuilder{}

	d.add(paragraph{fill: headerFill, center: true, runs: []run{{
		text: fmt.Sprintf("%s - %s - Content Brief", orDefault(b.ClientName, "Client"), orDefault(b.Topic, "Topic")),
		bold: true, color: "FFFFFF", size: titleSize,
	}}})
	d.blank()

	d.section("Client Site")
	d.add(paragraph{runs: []run{{text: b.Site, color: linkColor}}})
	d.blank()

	d.section("Keywords")
	d.labelled("Primary Keyword", b.PrimaryKeyword)
	if len(b.SecondaryKeywords) > 0 {
		d.labelled("Secondary Keywords", strings.Join(b.SecondaryKeywords, ", "))
	}
	d.blank()

	d.section("Web Page Structure")
	d.labelled("Type", b.PageType)
	d.labelled("Page Title", b.PageTitle)
	d.labelled("Meta Description", b.MetaDescription)
	d.labelled("Target URL", b.TargetURL)
	d.labelled("H1 Heading", b.H1)
	d.blank()

	d.section("Internal Linking")
	for _, link := range b.InternalLinks {
		d.add(paragraph{runs: []run{{text: link, color: linkColor}}})
	}
	d.blank()

	d.section("Writing Guidelines")
	d.labelled("Word Count", orDefault(b.WordCount, "800-1200 words"))
	d.list("Audience:", b.Audience)
	d.list("Tone:", b.Tone)
	d.list("POV:", b.POV)
	d.labelled("CTA", b.CTA)
	d.list("Restrictions:", b.Restrictions)
	d.list("Requirements:", b.Requirements)
	d.blank()

	d.section("Suggested Headings and Key Points to Include")
	for _, h := range b.Headings {
		d.add(paragraph{runs: []run{{text: fmt.Sprintf("%s - %s", orDefault(h.Level, "H2"), h.Text), bold: true}}})
		if h.Description != "" {
			d.add(paragraph{runs: []run{{text: h.Description, italic: true}}})
		}
		for _, sub := range h.Subheadings {
			d.add(paragraph{indent: 2 * indentStep, runs: []run{{text: "H3 - " + sub.Text, bold: true}}})
			if sub.Description != "" {
				d.add(paragraph{indent: 2 * indentStep, runs: []run{{text: sub.Description, italic: true}}})
			}
		}
		d.blank()
	}

	d.section("FAQs")
	for _, faq := range b.FAQs {
		d.add(paragraph{runs: []run{{text: question(faq)}}})
	}
	return d
}

func renderBody(b domain.Brief) (string, error) {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	sb.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range layout(b).paras {
		if err := writeParagraph(&sb, p); err != nil {
			return "", err
		}
	}
	sb.WriteString(`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/>`)
	sb.WriteString(`<w:pgMar w:top="1134" w:right="1417" w:bottom="1134" w:left="1417" w:header="708" w:footer="708" w:gutter="0"/></w:sectPr>`)
	sb.WriteString(`</w:body></w:document>`)
	return sb.String(), nil
}

func writeParagraph(sb *strings.Builder, p paragraph) error {
	sb.WriteString("<w:p>")
	if p.indent > 0 || p.fill != "" || p.center {
		sb.WriteString("<w:pPr>")
		if p.fill != "" {
			fmt.Fprintf(sb, `<w:shd w:val="clear" w:color="auto" w:fill="%s"/>`, p.fill)
		}
		if p.indent > 0 {
			fmt.Fprintf(sb, `<w:ind w:left="%d"/>`, p.indent)
		}
		if p.center {
			sb.WriteString(`<w:jc w:val="center"/>`)
		}
		sb.WriteString("</w:pPr>")
	}
	for _, r := range p.runs {
		sb.WriteString("<w:r><w:rPr>")
		fmt.Fprintf(sb, `<w:rFonts w:ascii="%s" w:hAnsi="%s"/>`, fontName, fontName)
		if r.bold {
			sb.WriteString("<w:b/>")
		}
		if r.italic {
			sb.WriteString("<w:i/>")
		}
		if r.color != "" {
			fmt.Fprintf(sb, `<w:color w:val="%s"/>`, r.color)
		}
		size := r.size
		if size == 0 {
			size = bodySize
		}
		fmt.Fprintf(sb, `<w:sz w:val="%d"/>`, size)
		sb.WriteString(`</w:rPr><w:t xml:space="preserve">`)
		var escaped bytes.Buffer
		if err := xml.EscapeText(&escaped, []byte(r.text)); err != nil {
			return err
		}
		sb.Write(escaped.Bytes())
		sb.WriteString("</w:t></w:r>")
	}
	sb.WriteString("</w:p>")
	return nil
}

func question(faq string) string {
	faq = strings.TrimSpace(faq)
	if strings.HasSuffix(faq, "?") {
		return faq
	}
	return faq + "?"
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
