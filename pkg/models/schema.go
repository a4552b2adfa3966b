package models

import "time"

// NormalizedSchema is the backend-agnostic view of a database produced by the
// schema extractor. Tables keep extraction order; names are unique.
type NormalizedSchema struct {
	Tables []TableMeta `json:"tables"`
}

// TableMeta describes one table.
type TableMeta struct {
	Name        string          `json:"name"`
	Columns     []ColumnMeta    `json:"columns"`
	ForeignKeys []ForeignKeyRef `json:"foreign_keys"`
}

// ColumnMeta describes one column in declaration order.
type ColumnMeta struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Nullable bool    `json:"nullable"`
	Default  *string `json:"default,omitempty"`
}

// ForeignKeyRef points a column of the owning table at a column of another table.
type ForeignKeyRef struct {
	Column           string `json:"column"`
	ReferencedTable  string `json:"referenced_table"`
	ReferencedColumn string `json:"referenced_column"`
}

// Table returns the named table, or nil.
func (s *NormalizedSchema) Table(name string) *TableMeta {
	if s == nil {
		return nil
	}
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i]
		}
	}
	return nil
}

// TableNames returns table names in schema order.
func (s *NormalizedSchema) TableNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Tables))
	for _, t := range s.Tables {
		names = append(names, t.Name)
	}
	return names
}

// IsEmpty reports whether the schema has no tables.
func (s *NormalizedSchema) IsEmpty() bool {
	return s == nil || len(s.Tables) == 0
}

// AddTable appends a table, replacing any earlier table of the same name.
// Foreign keys whose source column is not among the table's columns are
// dropped; the number dropped is returned so callers can report it.
func (s *NormalizedSchema) AddTable(t TableMeta) int {
	kept := make([]ForeignKeyRef, 0, len(t.ForeignKeys))
	dropped := 0
	for _, fk := range t.ForeignKeys {
		if !t.HasColumn(fk.Column) {
			dropped++
			continue
		}
		kept = append(kept, fk)
	}
	t.ForeignKeys = kept
	if t.Columns == nil {
		t.Columns = []ColumnMeta{}
	}

	if existing := s.Table(t.Name); existing != nil {
		*existing = t
		return dropped
	}
	s.Tables = append(s.Tables, t)
	return dropped
}

// HasColumn reports whether the table declares a column with this name.
func (t *TableMeta) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// SchemaCacheEntry is what the schema cache persists per database target.
type SchemaCacheEntry struct {
	Key         string            `json:"key"`
	Kind        DatabaseKind      `json:"type"`
	Schema      *NormalizedSchema `json:"schema"`
	Samples     SampleData        `json:"sample_data,omitempty"`
	ExtractedAt time.Time         `json:"extracted_at"`

	// Fresh is set when the entry was produced by extraction during the
	// current call rather than read back from the store.
	Fresh bool `json:"-"`
}

// HasSamples reports whether sample data was captured with the entry.
func (e *SchemaCacheEntry) HasSamples() bool {
	return e != nil && e.Samples != nil
}
