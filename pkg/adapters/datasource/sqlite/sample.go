package sqlite

import (
	"context"
	"fmt"

	"github.com/ekaya-inc/nlsql/pkg/adapters/datasource"
)

// SampleRows returns at most limit raw rows from table.
func (s *Session) SampleRows(ctx context.Context, table string, limit int) ([]string, [][]any, error) {
	if limit <= 0 {
		return []string{}, [][]any{}, nil
	}

	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoteIdentifier(table), limit)
	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("sample %s: %w", table, err)
	}
	defer rows.Close()

	return datasource.ScanRows(rows)
}
