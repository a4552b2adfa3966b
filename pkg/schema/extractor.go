package schema

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/nlsql/pkg/adapters/datasource"
	"github.com/ekaya-inc/nlsql/pkg/logging"
	"github.com/ekaya-inc/nlsql/pkg/models"
	"github.com/ekaya-inc/nlsql/pkg/observability"
)

// Extractor turns a dialect's SchemaExtractor into a NormalizedSchema.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor creates an Extractor. A nil logger is replaced with a no-op logger.
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger.Named("schema")}
}

// Extract reads every table's columns and foreign keys.
//
// Failure to list tables is fatal and returned as an ExtractionError. A table
// whose columns or foreign keys cannot be read is skipped and recorded in
// Diagnostics. A nil src (no variant for the database kind) yields an empty
// schema.
func (e *Extractor) Extract(ctx context.Context, src datasource.SchemaExtractor) (*models.NormalizedSchema, Diagnostics, error) {
	var diag Diagnostics
	schema := &models.NormalizedSchema{Tables: []models.TableMeta{}}

	if src == nil {
		e.logger.Warn("no schema extractor for database type, using empty schema")
		return schema, diag, nil
	}

	start := time.Now()
	tables, err := src.GetTables(ctx)
	if err != nil {
		return nil, diag, NewExtractionError("list_tables", err)
	}

	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return nil, diag, NewExtractionError("list_tables", err)
		}

		columns, err := src.GetColumns(ctx, table)
		if err != nil {
			e.skipTable(&diag, table, "columns", err)
			continue
		}

		fks, err := src.GetForeignKeys(ctx, table)
		if err != nil {
			e.skipTable(&diag, table, "foreign_keys", err)
			continue
		}
		if fks == nil {
			fks = []models.ForeignKeyRef{}
		}

		dropped := schema.AddTable(models.TableMeta{
			Name:        table,
			Columns:     columns,
			ForeignKeys: fks,
		})
		if dropped > 0 {
			e.logger.Warn("dropped foreign keys with unknown source column",
				zap.String("table", table),
				zap.Int("count", dropped),
			)
			diag.DroppedForeignKeys += dropped
			observability.IncrementSkipped(observability.StageForeignKey, dropped)
		}
	}

	if s, ok := src.(datasource.Session); ok {
		observability.ObserveSchemaExtraction(string(s.Kind()), time.Since(start))
	}

	e.logger.Debug("schema extracted",
		zap.Int("tables", len(schema.Tables)),
		zap.Int("skipped", len(diag.SkippedTables)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return schema, diag, nil
}

func (e *Extractor) skipTable(diag *Diagnostics, table, what string, err error) {
	e.logger.Warn("skipping table during schema extraction",
		zap.String("table", table),
		zap.String("stage", what),
		zap.String("error", logging.SanitizeError(err)),
	)
	diag.SkippedTables = append(diag.SkippedTables, table)
	observability.IncrementSkipped(observability.StageExtractTable, 1)
}
