package clean

import (
	"context"
	"fmt"
	"strings"

	"github.com/TansyBytes/tidytab-cli/internal/profile"
	"github.com/TansyBytes/tidytab-cli/internal/table"
)

// Querier is the single inference call the advisory needs. The
// inference client satisfies it; tests substitute fakes.
type Querier interface {
	Query(ctx context.Context, prompt, model string) (string, error)
}

// FallbackAdvisory replaces the model narrative whenever the inference
// call fails. The deterministic policy runs either way.
const FallbackAdvisory = "AI analysis not available - performing basic cleaning only."

// advisorySampleRows bounds the sample included in the prompt.
const advisorySampleRows = 5

// Advise asks the model for a cleaning narrative before the policy
// runs. Any failure, including a nil client or an empty response,
// yields FallbackAdvisory; Advise never returns an error.
func Advise(ctx context.Context, q Querier, t *table.Table, rep *profile.Report, model string) string {
	if q == nil {
		return FallbackAdvisory
	}
	out, err := q.Query(ctx, AdvisoryPrompt(t, rep), model)
	if err != nil {
		return FallbackAdvisory
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return FallbackAdvisory
	}
	return out
}

// AdvisoryPrompt renders the fixed-shape prompt: dataset dimensions,
// per-column types, and the leading sample rows.
func AdvisoryPrompt(t *table.Table, rep *profile.Report) string {
	var b strings.Builder
	b.WriteString("You are a data cleaning assistant. Clean the following dataset:\n\n")
	b.WriteString("Dataset Info:\n")
	b.WriteString(fmt.Sprintf("%d rows × %d columns\n", rep.Rows, rep.ColsTotal))
	b.WriteString("Column types:\n")
	for _, c := range rep.Columns {
		b.WriteString(fmt.Sprintf("%s: %s\n", c.Name, c.Type))
	}
	b.WriteString("\nSample data:\n")
	b.WriteString(strings.Join(t.Header(), " | "))
	b.WriteString("\n")
	for _, row := range t.Head(advisorySampleRows) {
		b.WriteString(strings.Join(row, " | "))
		b.WriteString("\n")
	}
	b.WriteString("\nIdentify and handle missing values, invalid entries, or duplicates if present.\n")
	b.WriteString("Return only the steps you would perform and why.")
	return b.String()
}

// Summary renders the user-visible cleaning report: the advisory
// narrative, the steps actually performed, and the shape change.
func Summary(res *Result, advisory string) string {
	var b strings.Builder
	if advisory != "" {
		b.WriteString(advisory)
		b.WriteString("\n\n")
	}
	b.WriteString("ACTUAL CLEANING PERFORMED:\n")
	if len(res.Steps) == 0 {
		b.WriteString("No automatic cleaning steps were necessary\n")
	} else {
		for _, s := range res.Steps {
			b.WriteString(s.Description)
			b.WriteString("\n")
		}
	}
	b.WriteString("\nRESULTS:\n")
	b.WriteString(fmt.Sprintf("Original dataset: %d rows × %d columns\n", res.RowsBefore, res.ColsBefore))
	b.WriteString(fmt.Sprintf("Cleaned dataset: %d rows × %d columns\n", res.RowsAfter, res.ColsAfter))
	return b.String()
}
