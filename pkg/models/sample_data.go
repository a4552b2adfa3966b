package models

import "sort"

const (
	// DefaultSampleTables bounds how many tables are sampled.
	DefaultSampleTables = 10
	// DefaultSampleRows bounds how many rows are fetched per table.
	DefaultSampleRows = 5
)

// SampleData maps table name to a handful of example rows.
// Values are limited to string, int64, float64, bool and nil.
type SampleData map[string]TableSample

// TableSample holds example rows for one table.
type TableSample struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// TableNames returns the sampled table names sorted alphabetically.
func (d SampleData) TableNames() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
