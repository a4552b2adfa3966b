package prompts

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ekaya-inc/nlsql/pkg/models"
)

// DefaultSampleRowsPerTable bounds example rows shown per table.
const DefaultSampleRowsPerTable = 3

// PromptInput is everything the translation prompt is built from.
type PromptInput struct {
	Question string
	Dialect  models.DatabaseKind
	// Schema is usually a *models.NormalizedSchema; see NormalizeSchema for
	// the other accepted shapes.
	Schema  any
	Samples models.SampleData
	History []models.HistoryTurn
	Options Options
}

// Options bounds the optional prompt sections. Zero values use the defaults.
type Options struct {
	SampleRowsPerTable int
	HistoryTurns       int
}

func (o Options) withDefaults() Options {
	if o.SampleRowsPerTable <= 0 {
		o.SampleRowsPerTable = DefaultSampleRowsPerTable
	}
	if o.HistoryTurns <= 0 {
		o.HistoryTurns = models.DefaultHistoryTurns
	}
	return o
}

// PromptStats describes what ended up in the prompt.
type PromptStats struct {
	Tables              int
	SampledTables       int
	SampleRows          int
	HistoryTurns        int
	SkippedHistoryTurns int
	// SchemaFallback is set when the schema shape was not recognized and
	// was dumped as JSON instead.
	SchemaFallback bool
}

// BuildTranslationPrompt assembles the schema, sample, history and
// instruction sections, in that order, followed by the question. It never
// fails and identical input yields identical output.
func BuildTranslationPrompt(in PromptInput) (string, PromptStats) {
	var stats PromptStats
	opts := in.Options.withDefaults()

	schema, ok := NormalizeSchema(in.Schema)

	var prompt strings.Builder
	if ok {
		stats.Tables = len(schema.Tables)
		prompt.WriteString(renderSchema(schema))
	} else if in.Schema != nil {
		stats.SchemaFallback = true
		prompt.WriteString(renderSchemaFallback(in.Schema))
	}

	prompt.WriteString(renderSamples(schema, in.Samples, opts.SampleRowsPerTable, &stats))
	prompt.WriteString(renderHistory(in.History, opts.HistoryTurns, &stats))
	prompt.WriteString(preamble(in.Dialect))
	prompt.WriteString(fmt.Sprintf("Question: %s\n", in.Question))
	prompt.WriteString("SQL:")

	return prompt.String(), stats
}

func renderSchema(schema *models.NormalizedSchema) string {
	if schema.IsEmpty() {
		return ""
	}

	var b strings.Builder
	b.WriteString("Tables: ")
	b.WriteString(strings.Join(schema.TableNames(), ", "))
	b.WriteString("\n\n")

	b.WriteString("Columns:\n")
	for _, t := range schema.Tables {
		for _, c := range t.Columns {
			b.WriteString(fmt.Sprintf("- %s.%s (%s)\n", t.Name, c.Name, c.Type))
		}
	}
	b.WriteString("\n")

	var fks strings.Builder
	for _, t := range schema.Tables {
		for _, fk := range t.ForeignKeys {
			fks.WriteString(fmt.Sprintf("- %s.%s -> %s.%s\n", t.Name, fk.Column, fk.ReferencedTable, fk.ReferencedColumn))
		}
	}
	if fks.Len() > 0 {
		b.WriteString("Foreign keys:\n")
		b.WriteString(fks.String())
		b.WriteString("\n")
	}

	return b.String()
}

func renderSchemaFallback(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("Schema:\n%v\n\n", v)
	}
	return fmt.Sprintf("Schema:\n%s\n\n", data)
}

// renderSamples lists tables in schema order, then any remaining sampled
// tables by name.
func renderSamples(schema *models.NormalizedSchema, samples models.SampleData, maxRows int, stats *PromptStats) string {
	if len(samples) == 0 {
		return ""
	}

	order := make([]string, 0, len(samples))
	seen := make(map[string]bool, len(samples))
	for _, name := range schema.TableNames() {
		if _, ok := samples[name]; ok {
			order = append(order, name)
			seen[name] = true
		}
	}
	for _, name := range samples.TableNames() {
		if !seen[name] {
			order = append(order, name)
		}
	}

	var body strings.Builder
	for _, name := range order {
		sample := samples[name]
		rows := sample.Rows
		if len(rows) > maxRows {
			rows = rows[:maxRows]
		}
		if len(rows) == 0 {
			continue
		}
		stats.SampledTables++
		body.WriteString(name)
		body.WriteString(":\n")
		for _, row := range rows {
			body.WriteString(renderRow(sample.Columns, row))
			body.WriteString("\n")
			stats.SampleRows++
		}
		body.WriteString("\n")
	}
	if body.Len() == 0 {
		return ""
	}
	return "Sample data:\n" + body.String()
}

// renderRow writes a row as a JSON object with keys in column order. Keys
// missing from columns are appended sorted.
func renderRow(columns []string, row map[string]any) string {
	keys := make([]string, 0, len(row))
	listed := make(map[string]bool, len(columns))
	for _, c := range columns {
		if _, ok := row[c]; ok {
			keys = append(keys, c)
			listed[c] = true
		}
	}
	var extra []string
	for k := range row {
		if !listed[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	keys = append(keys, extra...)

	var b strings.Builder
	b.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		kj, _ := json.Marshal(k)
		vj, err := json.Marshal(row[k])
		if err != nil {
			vj, _ = json.Marshal(fmt.Sprint(row[k]))
		}
		b.Write(kj)
		b.WriteString(": ")
		b.Write(vj)
	}
	b.WriteString("}")
	return b.String()
}

// renderHistory keeps valid turns only, then the last k of those, oldest first.
func renderHistory(history []models.HistoryTurn, k int, stats *PromptStats) string {
	valid := make([]models.HistoryTurn, 0, len(history))
	for _, turn := range history {
		if !turn.IsValid() {
			stats.SkippedHistoryTurns++
			continue
		}
		valid = append(valid, turn)
	}
	if len(valid) == 0 {
		return ""
	}
	if len(valid) > k {
		valid = valid[len(valid)-k:]
	}
	stats.HistoryTurns = len(valid)

	var b strings.Builder
	b.WriteString("Previous questions:\n")
	for _, turn := range valid {
		if !turn.Timestamp.IsZero() {
			b.WriteString(fmt.Sprintf("[%s] ", turn.Timestamp.Format("2006-01-02")))
		}
		b.WriteString(fmt.Sprintf("Question: %s\n", strings.TrimSpace(turn.Question)))
		b.WriteString(fmt.Sprintf("SQL: %s\n", strings.TrimSpace(turn.SQL)))
	}
	b.WriteString("\n")
	return b.String()
}

func preamble(dialect models.DatabaseKind) string {
	target := "SQL statement"
	if name := dialect.DisplayName(); name != "" {
		target = name + " SQL statement"
	}
	return "You are an expert SQL assistant. Given the database schema above and a natural language question, " +
		"write the single most appropriate " + target + " that answers it.\n" +
		"Return only the SQL, with no explanation and no markdown formatting.\n\n"
}
