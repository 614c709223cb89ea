package models

// Row is one worker-computed result, keyed by an integer K with one or
// more numeric metric columns
type Row struct {
	K       int       `json:"k"`
	Metrics []float64 `json:"metrics"`
}

// Dataset holds rows plus the column names they were written under.
// Header[0] is the key column, the rest are metric names.
type Dataset struct {
	Header []string `json:"header"`
	Rows   []Row    `json:"rows"`
}

// Keys returns the key column of every row, in row order
func (d *Dataset) Keys() []int {
	keys := make([]int, len(d.Rows))
	for i, row := range d.Rows {
		keys[i] = row.K
	}
	return keys
}
