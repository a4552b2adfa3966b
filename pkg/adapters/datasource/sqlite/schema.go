package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ekaya-inc/nlsql/pkg/models"
)

// GetTables lists user tables; SQLite's internal sqlite_* tables are excluded.
func (s *Session) GetTables(ctx context.Context) ([]string, error) {
	const query = `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}

	return tables, nil
}

// GetColumns reads PRAGMA table_info: cid, name, type, notnull, dflt_value, pk.
func (s *Session) GetColumns(ctx context.Context, table string) ([]models.ColumnMeta, error) {
	rows, err := s.conn.QueryContext(ctx, "PRAGMA table_info("+quoteIdentifier(table)+")")
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	columns := []models.ColumnMeta{}
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, colType    string
			def              sql.NullString
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &def, &pk); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}

		c := models.ColumnMeta{
			Name:     name,
			Type:     colType,
			Nullable: notNull == 0,
		}
		if def.Valid {
			v := def.String
			c.Default = &v
		}
		columns = append(columns, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}

	return columns, nil
}

// GetForeignKeys reads PRAGMA foreign_key_list:
// id, seq, table, from, to, on_update, on_delete, match.
func (s *Session) GetForeignKeys(ctx context.Context, table string) ([]models.ForeignKeyRef, error) {
	rows, err := s.conn.QueryContext(ctx, "PRAGMA foreign_key_list("+quoteIdentifier(table)+")")
	if err != nil {
		return nil, fmt.Errorf("query foreign keys: %w", err)
	}
	defer rows.Close()

	fks := []models.ForeignKeyRef{}
	for rows.Next() {
		var (
			id, seq                     int
			refTable, from              string
			to                          sql.NullString // NULL when referencing the implicit primary key
			onUpdate, onDelete, matchBy string
		)
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &matchBy); err != nil {
			return nil, fmt.Errorf("scan foreign key: %w", err)
		}
		fks = append(fks, models.ForeignKeyRef{
			Column:           from,
			ReferencedTable:  refTable,
			ReferencedColumn: to.String,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foreign keys: %w", err)
	}

	return fks, nil
}
