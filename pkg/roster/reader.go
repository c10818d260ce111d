// Package roster parses uploaded class lists into (student id, name) entries.
package roster

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Entry is one well-formed roster line.
type Entry struct {
	StudentID string
	Name      string
}

// Result holds the parsed entries and how many data rows were dropped for a blank id or name.
type Result struct {
	Entries []Entry
	Skipped int
	Total   int
}

var (
	// ErrNoRows means the file held a header at most.
	ErrNoRows = errors.New("roster has no data rows")
	// ErrMissingColumns means no recognised id or name header was found.
	ErrMissingColumns = errors.New("roster header needs a student id and a name column")
	// ErrUnsupportedType is returned for files that are neither xlsx nor csv.
	ErrUnsupportedType = errors.New("roster must be an .xlsx or .csv file")
)

var (
	idHeaders   = map[string]struct{}{"student_id": {}, "studentid": {}, "id": {}, "student id": {}}
	nameHeaders = map[string]struct{}{"name": {}, "student_name": {}, "full name": {}}
)

// Parse reads the first sheet of an xlsx workbook or a csv file, chosen by filename extension.
func Parse(filename string, r io.Reader) (*Result, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return ParseXLSX(r)
	case ".csv":
		return ParseCSV(r)
	default:
		return nil, ErrUnsupportedType
	}
}

// ParseXLSX reads the first worksheet, treating row 1 as the header.
func ParseXLSX(r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	return fromRows(rows)
}

// ParseCSV reads comma separated rows, treating the first as the header.
func ParseCSV(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return fromRows(rows)
}

func fromRows(rows [][]string) (*Result, error) {
	if len(rows) < 2 {
		return nil, ErrNoRows
	}

	idCol, nameCol := headerIndex(rows[0])
	if idCol < 0 || nameCol < 0 {
		return nil, ErrMissingColumns
	}

	result := &Result{Total: len(rows) - 1}
	for _, row := range rows[1:] {
		entry := Entry{StudentID: cell(row, idCol), Name: cell(row, nameCol)}
		if entry.StudentID == "" || entry.Name == "" {
			result.Skipped++
			continue
		}
		result.Entries = append(result.Entries, entry)
	}
	return result, nil
}

func headerIndex(header []string) (idCol, nameCol int) {
	idCol, nameCol = -1, -1
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, ok := idHeaders[key]; ok && idCol < 0 {
			idCol = i
		}
		if _, ok := nameHeaders[key]; ok && nameCol < 0 {
			nameCol = i
		}
	}
	return idCol, nameCol
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
