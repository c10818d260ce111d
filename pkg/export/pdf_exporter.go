package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfUsableWidth = 277.0
	pdfNarrowShare = 0.6
)

// PDFExporter renders tables as a landscape A4 grid.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

func (e *PDFExporter) ContentType() string { return "application/pdf" }

func (e *PDFExporter) Extension() string { return string(FormatPDF) }

// Render lays the first two columns out wide and the rest narrow, which suits
// an id, name, then per-week flag table.
func (e *PDFExporter) Render(table Table) ([]byte, error) {
	if err := validate(table); err != nil {
		return nil, err
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.AddPage()

	if table.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, table.Title, "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	widths := columnWidths(len(table.Headers))

	pdf.SetFont("Arial", "B", 9)
	for i, header := range table.Headers {
		pdf.CellFormat(widths[i], 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, row := range table.Rows {
		for i, value := range row {
			align := "C"
			if i < 2 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 7, value, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(n int) []float64 {
	widths := make([]float64, n)
	if n <= 2 {
		for i := range widths {
			widths[i] = pdfUsableWidth / float64(n)
		}
		return widths
	}
	wide := pdfUsableWidth * (1 - pdfNarrowShare) / 2
	narrow := pdfUsableWidth * pdfNarrowShare / float64(n-2)
	for i := range widths {
		widths[i] = narrow
		if i < 2 {
			widths[i] = wide
		}
	}
	return widths
}
