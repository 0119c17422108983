// Package clean applies the deterministic cleaning policy: duplicate
// removal first, then per-column missing-value resolution in column
// order. Each step is evaluated against the table state left by the
// previous one. The engine works on a clone and performs no storage
// I/O; callers persist the result.
package clean

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/TansyBytes/tidytab-cli/internal/profile"
	"github.com/TansyBytes/tidytab-cli/internal/table"
)

// imputeThreshold splits the missing-value policy: below it null rows
// are dropped, at or above it the column is imputed.
const imputeThreshold = 0.10

// UnknownSentinel fills non-numeric columns that are entirely null and
// therefore have no mode.
const UnknownSentinel = "Unknown"

// Action is what one cleaning step did.
type Action int

const (
	ActionDropDuplicates Action = iota
	ActionDropNullRows
	ActionImpute
)

func (a Action) String() string {
	switch a {
	case ActionDropDuplicates:
		return "drop_duplicates"
	case ActionDropNullRows:
		return "drop_null_rows"
	case ActionImpute:
		return "impute"
	default:
		return "unknown"
	}
}

// Step is one entry of the ordered cleaning log.
type Step struct {
	Action Action `json:"action"`
	// Column is empty for table-level steps (duplicate removal).
	Column string `json:"column,omitempty"`
	// Value is the fill value for impute steps.
	Value string `json:"value,omitempty"`
	// Affected is rows removed for drop steps. For impute steps it is
	// the estimated cell count: processing-time missing ratio times the
	// original row count, which can diverge from the exact fill count
	// when earlier steps dropped rows. The estimate is reported as-is.
	Affected    int    `json:"affected"`
	Description string `json:"description"`
}

// Result is a completed cleaning pass.
type Result struct {
	Table      *table.Table `json:"-"`
	Steps      []Step       `json:"steps"`
	RowsBefore int          `json:"rows_before"`
	RowsAfter  int          `json:"rows_after"`
	ColsBefore int          `json:"cols_before"`
	ColsAfter  int          `json:"cols_after"`
	RunID      string       `json:"run_id"`
}

// Clean runs the policy over a clone of t and returns the cleaned
// table with the step log. The input table is never modified. An empty
// table fails with EmptyInputError; a per-column failure aborts with
// CleaningFailure carrying the steps completed so far.
func Clean(t *table.Table) (*Result, error) {
	if t.NumRows() == 0 {
		return nil, &profile.EmptyInputError{Name: t.Name}
	}
	work := t.Clone()
	res := &Result{
		Table:      work,
		RowsBefore: t.NumRows(),
		ColsBefore: t.NumCols(),
		RunID:      uuid.NewString(),
	}
	originalRows := t.NumRows()

	for j := range work.Cols {
		if n := len(work.Cols[j].Cells); n != originalRows {
			err := fmt.Errorf("column has %d cells, want %d", n, originalRows)
			return nil, &CleaningFailure{Column: work.Cols[j].Name, Steps: res.Steps, Err: err}
		}
	}

	seen := make(map[string]bool, work.NumRows())
	removed := work.Filter(func(i int) bool {
		key := work.RowKey(i)
		if seen[key] {
			return false
		}
		seen[key] = true
		return true
	})
	if removed > 0 {
		res.Steps = append(res.Steps, Step{
			Action:      ActionDropDuplicates,
			Affected:    removed,
			Description: fmt.Sprintf("Removed %d duplicate rows", removed),
		})
	}

	for j := range work.Cols {
		step, err := cleanColumn(work, j, originalRows)
		if err != nil {
			return nil, &CleaningFailure{Column: work.Cols[j].Name, Steps: res.Steps, Err: err}
		}
		if step != nil {
			res.Steps = append(res.Steps, *step)
		}
	}

	res.RowsAfter = work.NumRows()
	res.ColsAfter = work.NumCols()
	return res, nil
}

func cleanColumn(work *table.Table, j int, originalRows int) (*Step, error) {
	col := &work.Cols[j]
	rows := work.NumRows()
	if rows == 0 {
		return nil, nil
	}
	nulls := col.NullCount()
	if nulls == 0 {
		return nil, nil
	}
	ratio := float64(nulls) / float64(rows)

	if ratio < imputeThreshold {
		dropped := work.Filter(func(i int) bool {
			return !work.Cols[j].Cells[i].Null
		})
		return &Step{
			Action:      ActionDropNullRows,
			Column:      col.Name,
			Affected:    dropped,
			Description: fmt.Sprintf("Dropped %d rows with missing values in column '%s'", dropped, col.Name),
		}, nil
	}

	fill, kind, err := fillValue(col)
	if err != nil {
		return nil, err
	}
	for i := range col.Cells {
		if col.Cells[i].Null {
			col.Cells[i] = table.Cell{Raw: fill}
		}
	}
	estimated := int(ratio * float64(originalRows))
	return &Step{
		Action:      ActionImpute,
		Column:      col.Name,
		Value:       fill,
		Affected:    estimated,
		Description: fmt.Sprintf("Filled %d missing values in %s column '%s' with %s (%s)", estimated, kindLabel(kind), col.Name, kind, fill),
	}, nil
}

// fillValue picks the imputation value: median for numeric columns,
// mode for everything else, "Unknown" when a non-numeric column has no
// non-null values at all.
func fillValue(col *table.Column) (value, kind string, err error) {
	if col.Type.IsNumeric() {
		var vals []float64
		for _, cell := range col.Cells {
			if x, ok := table.ParseFloatCell(cell); ok {
				vals = append(vals, x)
			}
		}
		if len(vals) == 0 {
			return "", "", fmt.Errorf("numeric column %q has no parsable values", col.Name)
		}
		return strconv.FormatFloat(profile.Median(vals), 'g', -1, 64), "median", nil
	}
	if mode, _, ok := profile.ModeOf(col.Cells); ok {
		return mode, "mode", nil
	}
	return UnknownSentinel, "mode", nil
}

func kindLabel(kind string) string {
	if kind == "median" {
		return "numeric"
	}
	return "non-numeric"
}
