package prompts

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ekaya-inc/nlsql/pkg/models"
)

// NormalizeSchema converts any supported schema shape into a NormalizedSchema.
//
// Accepted shapes are *models.NormalizedSchema, models.NormalizedSchema,
// *models.SchemaCacheEntry, and the legacy per-dialect dump
// {"tables": {name: {"columns": [...], "foreign_keys": [...]}}} (or
// {"tables": [names]}), either decoded or as raw JSON. Legacy tables are
// ordered by name. The second return is false for anything else.
func NormalizeSchema(v any) (*models.NormalizedSchema, bool) {
	switch s := v.(type) {
	case nil:
		return nil, false
	case *models.NormalizedSchema:
		return s, s != nil
	case models.NormalizedSchema:
		return &s, true
	case *models.SchemaCacheEntry:
		if s == nil || s.Schema == nil {
			return nil, false
		}
		return s.Schema, true
	case []byte:
		return normalizeJSON(s)
	case json.RawMessage:
		return normalizeJSON(s)
	case string:
		return normalizeJSON([]byte(s))
	case map[string]any:
		return normalizeLegacy(s)
	default:
		return nil, false
	}
}

func normalizeJSON(data []byte) (*models.NormalizedSchema, bool) {
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, false
	}
	if tables, ok := decoded["tables"].([]any); ok && isTableMetaList(tables) {
		var ns models.NormalizedSchema
		if err := json.Unmarshal(data, &ns); err == nil {
			return &ns, true
		}
	}
	return normalizeLegacy(decoded)
}

// isTableMetaList reports whether a decoded "tables" array holds TableMeta
// objects rather than bare names.
func isTableMetaList(tables []any) bool {
	if len(tables) == 0 {
		return true
	}
	_, ok := tables[0].(map[string]any)
	return ok
}

func normalizeLegacy(m map[string]any) (*models.NormalizedSchema, bool) {
	raw, ok := m["tables"]
	if !ok {
		return nil, false
	}

	ns := &models.NormalizedSchema{Tables: []models.TableMeta{}}
	switch tables := raw.(type) {
	case []any:
		for _, t := range tables {
			name, ok := t.(string)
			if !ok {
				return nil, false
			}
			ns.AddTable(models.TableMeta{Name: name})
		}
	case map[string]any:
		names := make([]string, 0, len(tables))
		for name := range tables {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			body, _ := tables[name].(map[string]any)
			ns.AddTable(models.TableMeta{
				Name:        name,
				Columns:     legacyColumns(body["columns"]),
				ForeignKeys: legacyForeignKeys(body["foreign_keys"]),
			})
		}
	default:
		return nil, false
	}
	return ns, true
}

func legacyColumns(raw any) []models.ColumnMeta {
	list, _ := raw.([]any)
	cols := make([]models.ColumnMeta, 0, len(list))
	for _, item := range list {
		switch c := item.(type) {
		case map[string]any:
			// MySQL SHOW COLUMNS: Field, Type, Null, Key, Default, Extra
			if name := str(c["Field"]); name != "" {
				cols = append(cols, models.ColumnMeta{
					Name:     name,
					Type:     str(c["Type"]),
					Nullable: strings.EqualFold(str(c["Null"]), "YES"),
					Default:  optStr(c["Default"]),
				})
			}
		case []any:
			if col, ok := legacyTupleColumn(c); ok {
				cols = append(cols, col)
			}
		}
	}
	return cols
}

// legacyTupleColumn handles SQLite PRAGMA table_info rows
// (cid, name, type, notnull, dflt_value, pk) and PostgreSQL
// information_schema rows (name, type, is_nullable, default).
func legacyTupleColumn(t []any) (models.ColumnMeta, bool) {
	if len(t) >= 6 && isNumber(t[0]) {
		return models.ColumnMeta{
			Name:     str(t[1]),
			Type:     str(t[2]),
			Nullable: !truthy(t[3]),
			Default:  optStr(t[4]),
		}, str(t[1]) != ""
	}
	if len(t) >= 2 {
		col := models.ColumnMeta{Name: str(t[0]), Type: str(t[1]), Nullable: true}
		if len(t) >= 3 {
			col.Nullable = strings.EqualFold(str(t[2]), "YES")
		}
		if len(t) >= 4 {
			col.Default = optStr(t[3])
		}
		return col, col.Name != ""
	}
	return models.ColumnMeta{}, false
}

func legacyForeignKeys(raw any) []models.ForeignKeyRef {
	list, _ := raw.([]any)
	fks := make([]models.ForeignKeyRef, 0, len(list))
	for _, item := range list {
		var fk models.ForeignKeyRef
		switch f := item.(type) {
		case map[string]any:
			// MySQL KEY_COLUMN_USAGE
			fk = models.ForeignKeyRef{
				Column:           str(f["COLUMN_NAME"]),
				ReferencedTable:  str(f["REFERENCED_TABLE_NAME"]),
				ReferencedColumn: str(f["REFERENCED_COLUMN_NAME"]),
			}
		case []any:
			switch {
			case len(f) >= 5 && isNumber(f[0]):
				// SQLite PRAGMA foreign_key_list: id, seq, table, from, to, ...
				fk = models.ForeignKeyRef{Column: str(f[3]), ReferencedTable: str(f[2]), ReferencedColumn: str(f[4])}
			case len(f) >= 3:
				// PostgreSQL: column, referenced_table, referenced_column
				fk = models.ForeignKeyRef{Column: str(f[0]), ReferencedTable: str(f[1]), ReferencedColumn: str(f[2])}
			}
		}
		if fk.Column != "" && fk.ReferencedTable != "" {
			fks = append(fks, fk)
		}
	}
	return fks
}

func str(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

func optStr(v any) *string {
	if v == nil {
		return nil
	}
	s := str(v)
	return &s
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, int, int64:
		return true
	}
	return false
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	case int:
		return b != 0
	case int64:
		return b != 0
	case string:
		return b == "1" || strings.EqualFold(b, "true")
	}
	return false
}
