// Package narrative asks an external text-generation service to explain a
// table in plain language.
//
// The service only ever sees a compact summary of the table (shape, column
// kinds and the first few rows), never the full data. Providers are
// configured explicitly through Config:
//
//	client, err := narrative.New(narrative.Config{
//	    Provider: narrative.ProviderOllama,
//	}, logger)
//	answer := narrative.Ask(ctx, client, t, "which region is growing fastest?")
//
// Ask never fails: service errors come back as text prefixed with
// "AI Error: ".
package narrative

import (
	"context"
	"fmt"
	"strings"

	"github.com/vegasq/tabask/output"
	"github.com/vegasq/tabask/table"
)

// SampleRows is how many leading rows Summarize includes.
const SampleRows = 5

// Summarize describes t for a prompt: its shape, column names, column
// kinds and the first SampleRows rows rendered as a text table.
func Summarize(t *table.Table) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Dataset shape: (%d, %d)\n\n", t.Len(), len(t.Columns))

	b.WriteString("Columns:\n")
	b.WriteString("[" + strings.Join(t.ColumnNames(), ", ") + "]\n\n")

	b.WriteString("Data types:\n")
	width := 0
	for _, c := range t.Columns {
		width = max(width, len(c.Name))
	}
	for _, c := range t.Columns {
		fmt.Fprintf(&b, "%-*s  %s\n", width, c.Name, c.Kind)
	}

	b.WriteString("\nSample rows:\n")
	if err := output.NewTableFormatter(&b).Format(t.Head(SampleRows)); err != nil {
		fmt.Fprintf(&b, "(unavailable: %v)\n", err)
	}

	return b.String()
}

// Prompt builds the analyst prompt sent to the service.
func Prompt(summary, question string) string {
	var b strings.Builder
	b.WriteString("You are a senior business data analyst.\n\n")
	b.WriteString("DATASET INFO:\n")
	b.WriteString(summary)
	b.WriteString("\nUSER QUESTION:\n")
	b.WriteString(question)
	b.WriteString("\n\nRespond in this format:\n\n")
	b.WriteString("1. Direct Answer\n")
	b.WriteString("2. Business Insight\n")
	b.WriteString("3. Suggested chart (if useful)\n")
	b.WriteString("4. Any risks or anomalies noticed\n")
	return b.String()
}

// ErrorPrefix starts every answer Ask returns in place of an error.
const ErrorPrefix = "AI Error: "

// Ask summarizes t and asks g about it. Failures are returned as text
// starting with ErrorPrefix so callers can display them directly.
func Ask(ctx context.Context, g Generator, t *table.Table, question string) string {
	if g == nil {
		return ErrorPrefix + "no narrative service configured"
	}
	answer, err := g.Generate(ctx, Summarize(t), question)
	if err != nil {
		return ErrorPrefix + err.Error()
	}
	return answer
}
