package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Document describes a self-assessment report rendered as a PDF: a title,
// a block of metadata lines and the report body.
type Document struct {
	Title string
	Meta  []MetaLine
	Body  string
}

// MetaLine is one labelled value in the document header.
type MetaLine struct {
	Label string
	Value string
}

// PDFExporter renders report documents into PDF bytes.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// RenderDocument creates a PDF with a centered title, a metadata block and
// the body as flowing paragraphs.
func (e *PDFExporter) RenderDocument(doc Document) ([]byte, error) {
	if doc.Title == "" {
		return nil, fmt.Errorf("pdf requires a title")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.MultiCell(0, 8, strings.ToUpper(doc.Title), "", "C", false)
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 10)
	for _, line := range doc.Meta {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(40, 6, line.Label, "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 6, line.Value, "", "", false)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 10)
	for _, paragraph := range strings.Split(doc.Body, "\n") {
		pdf.MultiCell(0, 5, paragraph, "", "", false)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
