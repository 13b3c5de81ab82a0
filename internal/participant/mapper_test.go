package participant

import (
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapRowMachineKeys(t *testing.T) {
	rec := Record{
		"name":       "Budi",
		"place":      "Jakarta",
		"birth_date": "2000-01-15",
		"kampus":     "UI",
		"jurusan":    "TI",
		"angkatan":   "2020",
		"phone":      "08123",
	}

	want := Row{
		"No":       "1",
		"Nama":     "Budi",
		"TTL":      "Jakarta, 15 Januari 2000",
		"Kampus":   "UI",
		"Angkatan": "2020",
		"Jurusan":  "TI",
		"No HP":    "08123",
	}
	if diff := cmp.Diff(want, MapRow(rec, 0)); diff != "" {
		t.Fatalf("MapRow mismatch (-want +got):\n%s", diff)
	}
}

func TestMapRowLabelKeysWin(t *testing.T) {
	rec := Record{
		"Nama":          "Siti",
		"name":          "ignored",
		"Tempat Lahir":  "Bandung",
		"tempat_lahir":  "ignored",
		"Tanggal Lahir": "2001-08-17",
		"Kampus":        "ITB",
		"campus":        "ignored",
		"Angkatan":      json.Number("2019"),
		"major":         "Arsitektur",
		"no_hp":         "0812",
		"phone":         "ignored",
	}

	row := MapRow(rec, 4)
	assert.Equal(t, "5", row[ColumnNo])
	assert.Equal(t, "Siti", row[ColumnName])
	assert.Equal(t, "Bandung, 17 Agustus 2001", row[ColumnTTL])
	assert.Equal(t, "ITB", row[ColumnCampus])
	assert.Equal(t, "2019", row[ColumnBatch])
	assert.Equal(t, "Arsitektur", row[ColumnMajor])
	assert.Equal(t, "0812", row[ColumnPhone])
}

func TestMapRowTTLWithoutPlace(t *testing.T) {
	row := MapRow(Record{"birth_date": "2000-01-15"}, 0)
	assert.Equal(t, "15 Januari 2000", row[ColumnTTL])
}

func TestMapRowEmptyRecord(t *testing.T) {
	row := MapRow(Record{}, 9)
	assert.Equal(t, "10", row[ColumnNo])
	for _, col := range Columns[1:] {
		assert.Equal(t, "", row[col], col)
	}
	assert.Len(t, row, len(Columns))
}

func TestMapRowPlaceWithoutDate(t *testing.T) {
	row := MapRow(Record{"place": "Medan"}, 0)
	assert.Equal(t, "Medan, ", row[ColumnTTL])
}

func TestMapRowNumericValues(t *testing.T) {
	var rec Record
	dec := json.NewDecoder(strings.NewReader(`{"name":"A","batch":2021,"phone":81234567890}`))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&rec))

	row := MapRow(rec, 0)
	assert.Equal(t, "2021", row[ColumnBatch])
	assert.Equal(t, "81234567890", row[ColumnPhone])

	row = MapRow(Record{"angkatan": float64(2022), "no_hp": 1.5}, 0)
	assert.Equal(t, "2022", row[ColumnBatch])
	assert.Equal(t, "1.5", row[ColumnPhone])
}

func TestMapRowEmptyAliasFallsThrough(t *testing.T) {
	row := MapRow(Record{"Nama": "", "name": "Fallback", "Kampus": nil, "kampus": "UGM"}, 0)
	assert.Equal(t, "Fallback", row[ColumnName])
	assert.Equal(t, "UGM", row[ColumnCampus])
}

func TestMapRowsNumbering(t *testing.T) {
	rows := MapRows([]Record{{"name": "a"}, {"name": "b"}, {"name": "c"}})
	require.Len(t, rows, 3)
	for i, row := range rows {
		assert.Equal(t, strconv.Itoa(i+1), row[ColumnNo])
	}
	assert.Equal(t, []string{"2", "b", "", "", "", "", ""}, rows[1].Values())
}
