package export

import (
	"fmt"
	"strings"
)

// Format names a supported export encoding.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
)

// Table is the tabular payload handed to an exporter. Every row carries one cell per header.
type Table struct {
	Title   string
	Sheet   string
	Headers []string
	Rows    [][]string
}

// Exporter renders a table into a downloadable document.
type Exporter interface {
	Render(table Table) ([]byte, error)
	ContentType() string
	Extension() string
}

// ParseFormat maps a query value onto a Format. Empty input selects xlsx.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// For returns the exporter for a format.
func For(format Format) (Exporter, error) {
	switch format {
	case FormatXLSX:
		return NewXLSXExporter(), nil
	case FormatCSV:
		return NewCSVExporter(), nil
	case FormatPDF:
		return NewPDFExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func validate(table Table) error {
	if len(table.Headers) == 0 {
		return fmt.Errorf("export requires at least one header")
	}
	for i, row := range table.Rows {
		if len(row) != len(table.Headers) {
			return fmt.Errorf("row %d has %d cells, want %d", i+1, len(row), len(table.Headers))
		}
	}
	return nil
}
