package participant

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Record is a participant as returned by the backend. Keys vary between the
// human-readable label set ("Nama", "Tempat Lahir", ...) and the machine set
// (name, place, ...); no key is guaranteed present.
type Record map[string]any

// Row is the fixed-shape export row keyed by Columns.
type Row map[string]string

// Export column names, in output order.
const (
	ColumnNo       = "No"
	ColumnName     = "Nama"
	ColumnTTL      = "TTL"
	ColumnCampus   = "Kampus"
	ColumnBatch    = "Angkatan"
	ColumnMajor    = "Jurusan"
	ColumnPhone    = "No HP"
	createdAtField = "created_at"
)

// Columns is the export column order shared by every encoder.
var Columns = []string{ColumnNo, ColumnName, ColumnTTL, ColumnCampus, ColumnBatch, ColumnMajor, ColumnPhone}

// Aliases lists candidate record keys per logical field; the first present
// key wins.
var Aliases = map[string][]string{
	ColumnName:   {"Nama", "name"},
	"place":      {"Tempat Lahir", "tempat_lahir", "place"},
	"birth_date": {"Tanggal Lahir", "birth_date"},
	ColumnCampus: {"Kampus", "kampus", "campus"},
	ColumnBatch:  {"Angkatan", "angkatan", "batch"},
	ColumnMajor:  {"Jurusan", "jurusan", "major"},
	ColumnPhone:  {"No HP", "no_hp", "phone"},
}

// Lookup returns the first non-empty value among the aliases of field.
func (r Record) Lookup(field string) string {
	for _, key := range Aliases[field] {
		if v := Stringify(r[key]); v != "" {
			return v
		}
	}
	return ""
}

// MapRow normalizes rec into an export row. index is the 0-based position in
// the already sorted list.
func MapRow(rec Record, index int) Row {
	ttl := rec.Lookup("place") + ", " + FormatDate(rec.Lookup("birth_date"))
	return Row{
		ColumnNo:     strconv.Itoa(index + 1),
		ColumnName:   rec.Lookup(ColumnName),
		ColumnTTL:    strings.TrimPrefix(ttl, ", "),
		ColumnCampus: rec.Lookup(ColumnCampus),
		ColumnBatch:  rec.Lookup(ColumnBatch),
		ColumnMajor:  rec.Lookup(ColumnMajor),
		ColumnPhone:  rec.Lookup(ColumnPhone),
	}
}

// MapRows maps every record, numbering rows from 1.
func MapRows(records []Record) []Row {
	rows := make([]Row, 0, len(records))
	for i, rec := range records {
		rows = append(rows, MapRow(rec, i))
	}
	return rows
}

// Values returns the row cells in Columns order.
func (r Row) Values() []string {
	out := make([]string, len(Columns))
	for i, col := range Columns {
		out[i] = r[col]
	}
	return out
}

// Stringify coerces a decoded JSON value into its display form.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case fmt.Stringer:
		return val.String()
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
