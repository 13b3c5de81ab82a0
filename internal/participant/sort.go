package participant

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"
)

var createdAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// CreatedAt parses the record's created_at field. Missing or unparseable
// timestamps yield the Unix epoch.
func (r Record) CreatedAt() time.Time {
	epoch := time.Unix(0, 0).UTC()
	switch v := r[createdAtField].(type) {
	case string:
		for _, layout := range createdAtLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC()
		}
	case json.Number:
		if ms, err := v.Int64(); err == nil {
			return time.UnixMilli(ms).UTC()
		}
	case float64:
		return time.UnixMilli(int64(v)).UTC()
	}
	return epoch
}

// SortByCreatedAt orders records ascending by creation time. Records with
// equal timestamps keep their fetch order.
func SortByCreatedAt(records []Record) {
	sort.Stable(byCreatedAt{records: records, keys: createdAtKeys(records)})
}

type byCreatedAt struct {
	records []Record
	keys    []time.Time
}

func (b byCreatedAt) Len() int           { return len(b.records) }
func (b byCreatedAt) Less(i, j int) bool { return b.keys[i].Before(b.keys[j]) }
func (b byCreatedAt) Swap(i, j int) {
	b.records[i], b.records[j] = b.records[j], b.records[i]
	b.keys[i], b.keys[j] = b.keys[j], b.keys[i]
}

func createdAtKeys(records []Record) []time.Time {
	keys := make([]time.Time, len(records))
	for i, rec := range records {
		keys[i] = rec.CreatedAt()
	}
	return keys
}
