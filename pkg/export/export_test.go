package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var testHeaders = []string{"No", "Nama", "TTL", "Kampus", "Angkatan", "Jurusan", "No HP"}

func sampleDataset(n int) Dataset {
	rows := make([]map[string]string, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, map[string]string{
			"No":       fmt.Sprintf("%d", i+1),
			"Nama":     fmt.Sprintf("Peserta %d", i+1),
			"TTL":      "Jakarta, 15 Januari 2000",
			"Kampus":   "UI",
			"Angkatan": "2020",
			"Jurusan":  "TI",
			"No HP":    "08123",
		})
	}
	return Dataset{
		Title:   "Daftar Peserta Youth Welcoming College 2025",
		Sheet:   "Daftar Peserta",
		Footer:  "Presented by Youth Multiply",
		Headers: testHeaders,
		Rows:    rows,
	}
}

func TestCSVExporterRender(t *testing.T) {
	data := sampleDataset(2)
	data.Rows[1]["Nama"] = "Nama, dengan koma"
	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, utf8BOM))

	records, err := csv.NewReader(bytes.NewReader(out[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, testHeaders, records[0])
	assert.Equal(t, "Nama, dengan koma", records[2][1])
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewXLSXExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestColumnWidths(t *testing.T) {
	data := Dataset{
		Headers: []string{"No", "Nama"},
		Rows: []map[string]string{
			{"No": "1", "Nama": "Ani"},
			{"No": "10", "Nama": "Bambang Sutrisno"},
		},
	}
	assert.Equal(t, []int{4, 18}, ColumnWidths(data))
}

func TestXLSXExporterRender(t *testing.T) {
	data := sampleDataset(3)
	out, err := NewXLSXExporter().Render(data)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Daftar Peserta"}, f.GetSheetList())
	rows, err := f.GetRows("Daftar Peserta")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, testHeaders, rows[0])
	assert.Equal(t, []string{"1", "Peserta 1", "Jakarta, 15 Januari 2000", "UI", "2020", "TI", "08123"}, rows[1])

	width, err := f.GetColWidth("Daftar Peserta", "C")
	require.NoError(t, err)
	assert.Equal(t, float64(len("Jakarta, 15 Januari 2000")+2), width)
	width, err = f.GetColWidth("Daftar Peserta", "E")
	require.NoError(t, err)
	assert.Equal(t, float64(len("Angkatan")+2), width)
}

func TestXLSXExporterEmptyRows(t *testing.T) {
	data := sampleDataset(0)
	out, err := NewXLSXExporter().Render(data)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Daftar Peserta")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func renderUncompressed(t *testing.T, data Dataset) (string, int) {
	t.Helper()
	e := &PDFExporter{style: DefaultPDFStyle}
	pdf, err := e.build(data)
	require.NoError(t, err)
	buf := &bytes.Buffer{}
	require.NoError(t, pdf.Output(buf))
	return buf.String(), pdf.PageCount()
}

func TestPDFExporterSinglePage(t *testing.T) {
	out, pages := renderUncompressed(t, sampleDataset(3))
	assert.Equal(t, 1, pages)
	assert.Contains(t, out, "(Daftar Peserta Youth Welcoming College 2025) Tj")
	assert.Contains(t, out, "(Presented by Youth Multiply) Tj")
	assert.Contains(t, out, "(Peserta 3)Tj")
}

func TestPDFExporterHeaderOnlyOnFirstPage(t *testing.T) {
	out, pages := renderUncompressed(t, sampleDataset(80))
	require.Greater(t, pages, 1)
	assert.Equal(t, 1, strings.Count(out, "(Kampus)Tj"))
	assert.Equal(t, 1, strings.Count(out, "(Daftar Peserta Youth Welcoming College 2025) Tj"))
	assert.Equal(t, 1, strings.Count(out, "(Presented by Youth Multiply) Tj"))
	assert.Contains(t, out, "(Peserta 80)Tj")

	// Each page dictionary precedes that page's content stream.
	firstPage := strings.Index(out, "<</Type /Page\n")
	secondPage := firstPage + 1 + strings.Index(out[firstPage+1:], "<</Type /Page\n")
	lastPage := strings.LastIndex(out, "<</Type /Page\n")
	require.Greater(t, secondPage, firstPage)
	assert.Less(t, strings.Index(out, "(Daftar Peserta Youth Welcoming College 2025) Tj"), secondPage)
	assert.Greater(t, strings.Index(out, "(Presented by Youth Multiply) Tj"), lastPage)
}

func TestPDFExporterRenderCompressed(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(5))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}
