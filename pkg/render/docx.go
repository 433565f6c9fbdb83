package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

const docxNote = "Note: This is a basic export. For best results, use PDF export."

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

// DOCX packages the Typst source into a minimal Word document: an italic
// note, a spacer, a bold "Typst Source:" label and the source text with
// line breaks preserved.
func DOCX(source string) ([]byte, error) {
	var body strings.Builder
	body.WriteString(`<w:p><w:r><w:rPr><w:i/><w:sz w:val="20"/></w:rPr>`)
	writeText(&body, docxNote)
	body.WriteString(`</w:r></w:p>`)
	body.WriteString(`<w:p/>`)
	body.WriteString(`<w:p><w:r><w:rPr><w:b/></w:rPr>`)
	writeText(&body, "Typst Source:")
	body.WriteString(`</w:r></w:p>`)
	body.WriteString(`<w:p><w:r>`)
	for i, line := range strings.Split(source, "\n") {
		if i > 0 {
			body.WriteString(`<w:br/>`)
		}
		writeText(&body, strings.TrimSuffix(line, "\r"))
	}
	body.WriteString(`</w:r></w:p>`)

	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() +
		`</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct {
		name, content string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", rootRelsXML},
		{"word/document.xml", document},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", part.name, err)
		}
		if _, err := w.Write([]byte(part.content)); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish docx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeText(b *strings.Builder, s string) {
	b.WriteString(`<w:t xml:space="preserve">`)
	xml.EscapeText(b, []byte(s))
	b.WriteString(`</w:t>`)
}
