package export

import "fmt"

// Dataset defines tabular export content. Rows are keyed by header name;
// missing keys render as empty cells.
type Dataset struct {
	Title   string
	Sheet   string
	Footer  string
	Headers []string
	Rows    []map[string]string
}

func (d Dataset) validate(kind string) error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("%s requires at least one header", kind)
	}
	return nil
}

func (d Dataset) record(i int) []string {
	out := make([]string, len(d.Headers))
	for j, header := range d.Headers {
		out[j] = d.Rows[i][header]
	}
	return out
}
