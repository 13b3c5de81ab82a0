package participant

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var monthNames = [12]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// FormatDate renders a YYYY-MM-DD date in Indonesian long form, e.g.
// "2025-03-07" becomes "7 Maret 2025". Input that cannot be rendered is
// returned unchanged.
func FormatDate(raw string) string {
	if raw == "" {
		return ""
	}
	parts := strings.Split(raw, "-")
	if len(parts) != 3 {
		return raw
	}
	year, month, day := parts[0], parts[1], parts[2]
	if year == "" || month == "" || day == "" {
		return raw
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return raw
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return raw
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 {
		return raw
	}
	// time.Date normalizes overflow, so a day past month end changes the day.
	if time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC).Day() != d {
		return raw
	}
	return fmt.Sprintf("%d %s %s", d, monthNames[m-1], year)
}
