package datasource

import (
	"context"

	"github.com/ekaya-inc/nlsql/pkg/models"
)

// ConnectionTester tests database connectivity.
// Each implementation owns its connection and must be closed when done.
type ConnectionTester interface {
	// TestConnection verifies the database is reachable with valid credentials.
	// Returns nil if connection is healthy, error otherwise.
	TestConnection(ctx context.Context) error

	// Close releases the database connection.
	Close() error
}

// SchemaExtractor reads table, column and foreign key metadata from one
// database. Implementations exist per dialect.
type SchemaExtractor interface {
	// GetTables returns user table names in catalog order.
	GetTables(ctx context.Context) ([]string, error)

	// GetColumns returns columns for a table in declaration order.
	GetColumns(ctx context.Context, table string) ([]models.ColumnMeta, error)

	// GetForeignKeys returns outgoing foreign keys for a table.
	GetForeignKeys(ctx context.Context, table string) ([]models.ForeignKeyRef, error)
}

// RowSampler fetches a bounded number of raw rows from a table.
// Values are returned exactly as the driver scanned them; callers coerce.
type RowSampler interface {
	SampleRows(ctx context.Context, table string, limit int) (columns []string, rows [][]any, err error)
}

// Session is one checked-out connection to a database. Close returns the
// connection to its pool; the pool itself stays open in the ConnectionManager.
type Session interface {
	ConnectionTester
	SchemaExtractor
	RowSampler

	// Kind returns the dialect this session talks to.
	Kind() models.DatabaseKind
}
