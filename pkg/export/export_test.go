package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleTable() Table {
	return Table{
		Title:   "CS101 attendance",
		Headers: []string{"student_id", "name", "W1", "W2"},
		Rows: [][]string{
			{"2021001", "Ada Lovelace", "1", "0"},
			{"2021002", "Alan Turing", "0", "0"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = ParseFormat(" CSV ")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("docx")
	assert.Error(t, err)
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleTable())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "student_id,name,W1,W2", lines[0])
	assert.Equal(t, "2021001,Ada Lovelace,1,0", lines[1])
}

func TestRenderRejectsRaggedRows(t *testing.T) {
	table := sampleTable()
	table.Rows = append(table.Rows, []string{"only-one"})

	_, err := NewCSVExporter().Render(table)
	assert.Error(t, err)
}

func TestXLSXExporterRender(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleTable())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(defaultSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"student_id", "name", "W1", "W2"}, rows[0])
	assert.Equal(t, []string{"2021002", "Alan Turing", "0", "0"}, rows[2])
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleTable())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestForReturnsMatchingExporter(t *testing.T) {
	for _, format := range []Format{FormatXLSX, FormatCSV, FormatPDF} {
		exp, err := For(format)
		require.NoError(t, err)
		assert.Equal(t, string(format), exp.Extension())
	}
}
