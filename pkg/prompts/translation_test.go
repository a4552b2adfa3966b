package prompts

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/nlsql/pkg/models"
)

func shopSchema() *models.NormalizedSchema {
	s := &models.NormalizedSchema{}
	s.AddTable(models.TableMeta{
		Name: "users",
		Columns: []models.ColumnMeta{
			{Name: "id", Type: "integer"},
			{Name: "name", Type: "text"},
		},
	})
	s.AddTable(models.TableMeta{
		Name: "orders",
		Columns: []models.ColumnMeta{
			{Name: "id", Type: "integer"},
			{Name: "user_id", Type: "integer", Nullable: true},
		},
		ForeignKeys: []models.ForeignKeyRef{
			{Column: "user_id", ReferencedTable: "users", ReferencedColumn: "id"},
		},
	})
	return s
}

func TestBuildTranslationPrompt_TwoTableScenario(t *testing.T) {
	prompt, stats := BuildTranslationPrompt(PromptInput{
		Question: "how many orders per user",
		Dialect:  models.DatabaseKindPostgres,
		Schema:   shopSchema(),
	})

	assert.Contains(t, prompt, "Tables: users, orders")
	assert.Contains(t, prompt, "- users.id (integer)")
	assert.Contains(t, prompt, "- orders.user_id (integer)")
	assert.Contains(t, prompt, "- orders.user_id -> users.id")
	assert.Contains(t, prompt, "Question: how many orders per user")
	assert.Contains(t, prompt, "PostgreSQL")
	assert.Equal(t, 2, stats.Tables)
	assert.False(t, stats.SchemaFallback)
}

func TestBuildTranslationPrompt_Deterministic(t *testing.T) {
	in := PromptInput{
		Question: "list users",
		Schema:   shopSchema(),
		Samples: models.SampleData{
			"users":  {Columns: []string{"id", "name"}, Rows: []map[string]any{{"id": int64(1), "name": "ann"}}},
			"orders": {Columns: []string{"id", "user_id"}, Rows: []map[string]any{{"id": int64(9), "user_id": int64(1)}}},
		},
	}

	first, _ := BuildTranslationPrompt(in)
	for i := 0; i < 20; i++ {
		again, _ := BuildTranslationPrompt(in)
		require.Equal(t, first, again)
	}
}

func TestBuildTranslationPrompt_SectionOrder(t *testing.T) {
	prompt, _ := BuildTranslationPrompt(PromptInput{
		Question: "q?",
		Schema:   shopSchema(),
		Samples: models.SampleData{
			"users": {Columns: []string{"id"}, Rows: []map[string]any{{"id": int64(1)}}},
		},
		History: []models.HistoryTurn{{Question: "earlier", SQL: "SELECT 1"}},
	})

	idx := func(s string) int {
		i := strings.Index(prompt, s)
		require.GreaterOrEqual(t, i, 0, "missing %q", s)
		return i
	}
	schema := idx("Tables:")
	samples := idx("Sample data:")
	history := idx("Previous questions:")
	instructions := idx("You are an expert SQL assistant")
	question := idx("Question: q?")

	assert.Less(t, schema, samples)
	assert.Less(t, samples, history)
	assert.Less(t, history, instructions)
	assert.Less(t, instructions, question)
}

func TestBuildTranslationPrompt_EmptySectionsHaveNoLabels(t *testing.T) {
	prompt, _ := BuildTranslationPrompt(PromptInput{Question: "hi", Schema: &models.NormalizedSchema{}})

	assert.NotContains(t, prompt, "Tables:")
	assert.NotContains(t, prompt, "Sample data:")
	assert.NotContains(t, prompt, "Previous questions:")
	assert.NotContains(t, prompt, "Foreign keys:")
	assert.True(t, strings.HasPrefix(prompt, "You are an expert SQL assistant"))
}

func TestBuildTranslationPrompt_SampleRowBound(t *testing.T) {
	rows := make([]map[string]any, 0, 10)
	for i := 0; i < 10; i++ {
		rows = append(rows, map[string]any{"id": int64(i)})
	}
	samples := models.SampleData{"users": {Columns: []string{"id"}, Rows: rows}}

	prompt, stats := BuildTranslationPrompt(PromptInput{Question: "q", Schema: shopSchema(), Samples: samples})
	assert.Equal(t, 3, stats.SampleRows)
	assert.Equal(t, 3, strings.Count(prompt, `{"id": `))

	prompt, stats = BuildTranslationPrompt(PromptInput{
		Question: "q", Schema: shopSchema(), Samples: samples,
		Options: Options{SampleRowsPerTable: 5},
	})
	assert.Equal(t, 5, stats.SampleRows)
	assert.Equal(t, 5, strings.Count(prompt, `{"id": `))
}

func TestBuildTranslationPrompt_SampleRowsInColumnOrder(t *testing.T) {
	samples := models.SampleData{
		"orders":  {Columns: []string{"user_id", "id"}, Rows: []map[string]any{{"id": int64(2), "user_id": nil}}},
		"archive": {Columns: []string{"x"}, Rows: []map[string]any{{"x": "y"}}},
	}
	prompt, stats := BuildTranslationPrompt(PromptInput{Question: "q", Schema: shopSchema(), Samples: samples})

	assert.Contains(t, prompt, `{"user_id": null, "id": 2}`)
	assert.Less(t, strings.Index(prompt, "orders:\n"), strings.Index(prompt, "archive:\n"),
		"schema tables first, unknown tables after")
	assert.Equal(t, 2, stats.SampledTables)
}

func TestBuildTranslationPrompt_HistoryLastKValidTurns(t *testing.T) {
	base := time.Date(2024, 3, 1, 15, 4, 5, 0, time.UTC)
	var history []models.HistoryTurn
	for i := 0; i < 8; i++ {
		history = append(history, models.HistoryTurn{
			Timestamp: base.AddDate(0, 0, i),
			Question:  fmt.Sprintf("question %d", i),
			SQL:       fmt.Sprintf("SELECT %d", i),
		})
	}
	// Malformed turns are skipped and do not consume the window.
	history = append(history,
		models.HistoryTurn{Question: "no sql"},
		models.HistoryTurn{SQL: "SELECT 'no question'"},
	)

	prompt, stats := BuildTranslationPrompt(PromptInput{Question: "q", History: history})

	assert.Equal(t, 5, stats.HistoryTurns)
	assert.Equal(t, 2, stats.SkippedHistoryTurns)
	for i := 0; i < 3; i++ {
		assert.NotContains(t, prompt, fmt.Sprintf("question %d\n", i))
	}
	for i := 3; i < 8; i++ {
		assert.Contains(t, prompt, fmt.Sprintf("Question: question %d\nSQL: SELECT %d\n", i, i))
	}
	assert.Less(t, strings.Index(prompt, "question 3"), strings.Index(prompt, "question 7"), "oldest first")
	assert.Contains(t, prompt, "[2024-03-04] Question: question 3")
	assert.NotContains(t, prompt, "no sql")
	assert.NotContains(t, prompt, "15:04")
}

func TestBuildTranslationPrompt_UnknownShapeFallsBackToJSON(t *testing.T) {
	prompt, stats := BuildTranslationPrompt(PromptInput{
		Question: "q",
		Schema:   []string{"weird", "shape"},
	})
	assert.True(t, stats.SchemaFallback)
	assert.Contains(t, prompt, "Schema:\n[\n  \"weird\",\n  \"shape\"\n]")
	assert.Contains(t, prompt, "Question: q")
}

func TestNormalizeSchema_LegacyMySQL(t *testing.T) {
	legacy := `{"tables": {
		"orders": {
			"columns": [
				{"Field": "id", "Type": "int", "Null": "NO", "Key": "PRI", "Default": null, "Extra": "auto_increment"},
				{"Field": "user_id", "Type": "int", "Null": "YES", "Key": "MUL", "Default": null, "Extra": ""}
			],
			"foreign_keys": [
				{"COLUMN_NAME": "user_id", "REFERENCED_TABLE_NAME": "users", "REFERENCED_COLUMN_NAME": "id"}
			]
		},
		"users": {"columns": [{"Field": "id", "Type": "int", "Null": "NO", "Default": null}], "foreign_keys": []}
	}}`

	ns, ok := NormalizeSchema(legacy)
	require.True(t, ok)
	assert.Equal(t, []string{"orders", "users"}, ns.TableNames(), "legacy tables ordered by name")
	orders := ns.Table("orders")
	require.Len(t, orders.Columns, 2)
	assert.True(t, orders.Columns[1].Nullable)
	assert.Equal(t, []models.ForeignKeyRef{{Column: "user_id", ReferencedTable: "users", ReferencedColumn: "id"}}, orders.ForeignKeys)
}

func TestNormalizeSchema_LegacyTuples(t *testing.T) {
	// PostgreSQL rows and SQLite PRAGMA rows, as decoded from JSON.
	legacy := map[string]any{"tables": map[string]any{
		"pg_orders": map[string]any{
			"columns": []any{
				[]any{"id", "integer", "NO", "nextval('orders_id_seq'::regclass)"},
				[]any{"user_id", "integer", "YES", nil},
			},
			"foreign_keys": []any{[]any{"user_id", "users", "id"}},
		},
		"lite_orders": map[string]any{
			"columns": []any{
				[]any{float64(0), "id", "INTEGER", float64(1), nil, float64(1)},
				[]any{float64(1), "user_id", "INTEGER", float64(0), nil, float64(0)},
			},
			"foreign_keys": []any{[]any{float64(0), float64(0), "users", "user_id", "id", "NO ACTION", "NO ACTION", "NONE"}},
		},
	}}

	ns, ok := NormalizeSchema(legacy)
	require.True(t, ok)

	pg := ns.Table("pg_orders")
	require.NotNil(t, pg)
	assert.False(t, pg.Columns[0].Nullable)
	require.NotNil(t, pg.Columns[0].Default)
	assert.Equal(t, "users", pg.ForeignKeys[0].ReferencedTable)

	lite := ns.Table("lite_orders")
	require.NotNil(t, lite)
	assert.Equal(t, "id", lite.Columns[0].Name)
	assert.False(t, lite.Columns[0].Nullable)
	assert.True(t, lite.Columns[1].Nullable)
	assert.Equal(t, models.ForeignKeyRef{Column: "user_id", ReferencedTable: "users", ReferencedColumn: "id"}, lite.ForeignKeys[0])
}

func TestNormalizeSchema_Shapes(t *testing.T) {
	s := shopSchema()

	got, ok := NormalizeSchema(s)
	assert.True(t, ok)
	assert.Same(t, s, got)

	got, ok = NormalizeSchema(&models.SchemaCacheEntry{Schema: s})
	assert.True(t, ok)
	assert.Same(t, s, got)

	got, ok = NormalizeSchema(map[string]any{"tables": []any{"a", "b"}})
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got.TableNames())

	got, ok = NormalizeSchema(`{"tables":[{"name":"t","columns":[{"name":"c","type":"int","nullable":false}],"foreign_keys":[]}]}`)
	require.True(t, ok)
	assert.Equal(t, "c", got.Table("t").Columns[0].Name)

	_, ok = NormalizeSchema(42)
	assert.False(t, ok)
	_, ok = NormalizeSchema(nil)
	assert.False(t, ok)
	_, ok = NormalizeSchema((*models.NormalizedSchema)(nil))
	assert.False(t, ok)
}
