package models

import (
	"errors"
	"fmt"
	"strings"
)

// ExportFormat is an output format supported by the exporter.
type ExportFormat string

const (
	FormatPDF  ExportFormat = "pdf"
	FormatHTML ExportFormat = "html"
	FormatDOCX ExportFormat = "docx"
	FormatSVG  ExportFormat = "svg"
)

// ErrUnsupportedFormat is returned for unknown export formats.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ExportFormats lists the formats in menu order.
func ExportFormats() []ExportFormat {
	return []ExportFormat{FormatPDF, FormatHTML, FormatDOCX, FormatSVG}
}

// ParseExportFormat validates a user-provided format name.
func ParseExportFormat(s string) (ExportFormat, error) {
	f := ExportFormat(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ExportFormats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q (valid: pdf, html, docx, svg)", ErrUnsupportedFormat, s)
}

// Filename returns the suggested download name for the format.
func (f ExportFormat) Filename() string {
	return "document." + string(f)
}

// MediaType returns the MIME type of exported bytes.
func (f ExportFormat) MediaType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatHTML:
		return "text/html"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatSVG:
		return "image/svg+xml"
	}
	return "application/octet-stream"
}
