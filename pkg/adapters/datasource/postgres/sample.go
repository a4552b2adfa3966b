package postgres

import (
	"context"
	"fmt"
)

// sampleQuery builds the bounded SELECT used for row sampling.
func sampleQuery(schemaName, table string, limit int) string {
	return fmt.Sprintf("SELECT * FROM %s LIMIT %d", qualifiedTableName(schemaName, table), limit)
}

// SampleRows returns at most limit rows from table. Values are pgx's native
// Go representations; callers are responsible for coercion.
func (s *Session) SampleRows(ctx context.Context, table string, limit int) ([]string, [][]any, error) {
	if limit <= 0 {
		return []string{}, [][]any{}, nil
	}

	rows, err := s.conn.Query(ctx, sampleQuery(s.config.Schema, table, limit))
	if err != nil {
		return nil, nil, fmt.Errorf("sample %s: %w", table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	var out [][]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, nil, fmt.Errorf("read sample row: %w", err)
		}
		out = append(out, values)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate sample rows: %w", err)
	}

	return columns, out, nil
}
