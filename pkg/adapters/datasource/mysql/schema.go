package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ekaya-inc/nlsql/pkg/models"
)

// GetTables lists tables of the connected database.
func (s *Session) GetTables(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, "SHOW TABLES")
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

// GetColumns reads SHOW COLUMNS: Field, Type, Null, Key, Default, Extra.
func (s *Session) GetColumns(ctx context.Context, table string) ([]models.ColumnMeta, error) {
	rows, err := s.conn.QueryContext(ctx, "SHOW COLUMNS FROM "+quoteIdentifier(table))
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	columns := []models.ColumnMeta{}
	for rows.Next() {
		var (
			field, colType, null, key, extra string
			def                              sql.NullString
		)
		if err := rows.Scan(&field, &colType, &null, &key, &def, &extra); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}

		c := models.ColumnMeta{
			Name:     field,
			Type:     colType,
			Nullable: strings.EqualFold(null, "YES"),
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

// GetForeignKeys returns the outgoing foreign keys of a table.
func (s *Session) GetForeignKeys(ctx context.Context, table string) ([]models.ForeignKeyRef, error) {
	const query = `
		SELECT COLUMN_NAME, REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME
		FROM information_schema.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = DATABASE()
		  AND TABLE_NAME = ?
		  AND REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY ORDINAL_POSITION
	`

	rows, err := s.conn.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("query foreign keys: %w", err)
	}
	defer rows.Close()

	fks := []models.ForeignKeyRef{}
	for rows.Next() {
		var fk models.ForeignKeyRef
		if err := rows.Scan(&fk.Column, &fk.ReferencedTable, &fk.ReferencedColumn); err != nil {
			return nil, fmt.Errorf("scan foreign key: %w", err)
		}
		fks = append(fks, fk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foreign keys: %w", err)
	}

	return fks, nil
}
