package schema

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/nlsql/pkg/adapters/datasource"
	"github.com/ekaya-inc/nlsql/pkg/logging"
	"github.com/ekaya-inc/nlsql/pkg/models"
	"github.com/ekaya-inc/nlsql/pkg/observability"
)

// SampleSource is what the sampler needs from a session.
type SampleSource interface {
	GetTables(ctx context.Context) ([]string, error)
	datasource.RowSampler
}

// Sampler fetches a bounded number of example rows per table.
type Sampler struct {
	maxTables int
	maxRows   int
	logger    *zap.Logger
}

// NewSampler creates a Sampler. Non-positive bounds fall back to
// models.DefaultSampleTables and models.DefaultSampleRows.
func NewSampler(maxTables, maxRows int, logger *zap.Logger) *Sampler {
	if maxTables <= 0 {
		maxTables = models.DefaultSampleTables
	}
	if maxRows <= 0 {
		maxRows = models.DefaultSampleRows
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sampler{maxTables: maxTables, maxRows: maxRows, logger: logger.Named("sampler")}
}

// Sample returns at most maxRows coerced rows for each of the first maxTables
// tables. When tables is nil the source is asked for its table list. Tables
// that fail to sample are omitted and recorded in Diagnostics.
func (s *Sampler) Sample(ctx context.Context, src SampleSource, tables []string) (models.SampleData, Diagnostics, error) {
	var diag Diagnostics

	if tables == nil {
		listed, err := src.GetTables(ctx)
		if err != nil {
			return nil, diag, NewExtractionError("sample", err)
		}
		tables = listed
	}
	if len(tables) > s.maxTables {
		tables = tables[:s.maxTables]
	}

	data := make(models.SampleData, len(tables))
	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return nil, diag, NewExtractionError("sample", err)
		}

		columns, rows, err := src.SampleRows(ctx, table, s.maxRows)
		if err != nil {
			s.logger.Warn("skipping table during sampling",
				zap.String("table", table),
				zap.String("error", logging.SanitizeError(err)),
			)
			diag.SkippedSampleTables = append(diag.SkippedSampleTables, table)
			observability.IncrementSkipped(observability.StageSampleTable, 1)
			continue
		}

		data[table] = toTableSample(columns, rows, s.maxRows)
	}

	return data, diag, nil
}

func toTableSample(columns []string, rows [][]any, maxRows int) models.TableSample {
	if len(rows) > maxRows {
		rows = rows[:maxRows]
	}
	sample := models.TableSample{
		Columns: columns,
		Rows:    make([]map[string]any, 0, len(rows)),
	}
	for _, row := range rows {
		m := make(map[string]any, len(columns))
		for i, col := range columns {
			if i < len(row) {
				m[col] = CoerceValue(row[i])
			} else {
				m[col] = nil
			}
		}
		sample.Rows = append(sample.Rows, m)
	}
	return sample
}
