package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Slot", "MONDAY"},
		Rows: []map[string]string{
			{"Slot": "09:00", "MONDAY": "CS101 Intro\nA-101"},
			{"Slot": "10:00"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Slot,MONDAY\n09:00,\"CS101 Intro\nA-101\"\n10:00,\n", string(out))
}

func TestCSVExporterSeparator(t *testing.T) {
	out, err := NewCSVExporterWithSeparator(';').Render(Dataset{Headers: []string{"a", "b"}, Rows: []map[string]string{{"a": "1", "b": "2"}}})
	require.NoError(t, err)
	assert.Equal(t, "a;b\n1;2\n", string(out))
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter(false).Render(Dataset{}, "empty")
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter(true).Render(sampleDataset(), "Department timetable")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestXLSXExporterRender(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset(), "Timetable dept-cs")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Timetable dept-cs"}, f.GetSheetList())
	title, err := f.GetCellValue("Timetable dept-cs", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Timetable dept-cs", title)
	header, _ := f.GetCellValue("Timetable dept-cs", "B2")
	assert.Equal(t, "MONDAY", header)
	cell, _ := f.GetCellValue("Timetable dept-cs", "B3")
	assert.Equal(t, "CS101 Intro\nA-101", cell)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Sheet1", sheetName("  "))
	assert.Equal(t, "a-b-c", sheetName("a/b:c"))
	assert.Len(t, []rune(sheetName(strings.Repeat("x", 40))), 31)
}
