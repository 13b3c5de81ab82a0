package participant

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func names(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = Stringify(r["name"])
	}
	return out
}

func TestSortByCreatedAtMissingFirst(t *testing.T) {
	records := []Record{
		{"name": "second", "created_at": "2025-01-02"},
		{"name": "first", "created_at": "2025-01-01"},
		{"name": "missing"},
	}
	SortByCreatedAt(records)
	assert.Equal(t, []string{"missing", "first", "second"}, names(records))
}

func TestSortByCreatedAtMixedFormats(t *testing.T) {
	records := []Record{
		{"name": "c", "created_at": "2025-02-01T10:00:00Z"},
		{"name": "garbage", "created_at": "yesterday"},
		{"name": "b", "created_at": "2025-01-31 23:59:59"},
		{"name": "a", "created_at": json.Number("1735689600000")},
	}
	SortByCreatedAt(records)
	assert.Equal(t, []string{"garbage", "a", "b", "c"}, names(records))
}

func TestSortByCreatedAtStable(t *testing.T) {
	records := []Record{
		{"name": "x"},
		{"name": "y", "created_at": ""},
		{"name": "z"},
	}
	SortByCreatedAt(records)
	assert.Equal(t, []string{"x", "y", "z"}, names(records))
}

func TestCreatedAtEpochFallback(t *testing.T) {
	assert.True(t, Record{}.CreatedAt().Equal(time.Unix(0, 0)))
	assert.True(t, Record{"created_at": true}.CreatedAt().Equal(time.Unix(0, 0)))
}
