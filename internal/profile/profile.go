// Package profile computes per-column and table-level statistics for a
// dataset without mutating it. The resulting Report drives the cleaning
// policy, the advisory prompt, and the profile command output.
package profile

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/TansyBytes/tidytab-cli/internal/table"
)

// Options controls profiling limits.
type Options struct {
	// MaxRows caps the row count; 0 means DefaultMaxRows.
	MaxRows int
	// MaxCols caps the column count; 0 means DefaultMaxCols.
	MaxCols int
	// SampleRows determines how many example rows the report carries.
	SampleRows int
}

// Default size gates. Datasets beyond these are rejected rather than
// partially processed.
const (
	DefaultMaxRows    = 1_000_000
	DefaultMaxCols    = 100
	DefaultSampleRows = 5
)

func (o Options) maxRows() int {
	if o.MaxRows > 0 {
		return o.MaxRows
	}
	return DefaultMaxRows
}

func (o Options) maxCols() int {
	if o.MaxCols > 0 {
		return o.MaxCols
	}
	return DefaultMaxCols
}

// Report is the profiling result for one table.
type Report struct {
	Name          string          `json:"name"`
	Rows          int             `json:"rows"`
	ColsTotal     int             `json:"cols"`
	DuplicateRows int             `json:"duplicate_rows"`
	Columns       []ColumnProfile `json:"columns"`
	Samples       [][]string      `json:"samples,omitempty"`
}

// ColumnProfile captures one column's type and statistics.
type ColumnProfile struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	NonNull      int     `json:"non_null"`
	Nulls        int     `json:"nulls"`
	MissingRatio float64 `json:"missing_ratio"`
	Distinct     int     `json:"distinct"`
	Unique       bool    `json:"unique"`

	// Numeric stats; set only when Numeric is true.
	Numeric bool     `json:"numeric"`
	Min     float64  `json:"min,omitempty"`
	Max     float64  `json:"max,omitempty"`
	Mean    float64  `json:"mean,omitempty"`
	Std     float64  `json:"std,omitempty"`
	Median  *float64 `json:"median,omitempty"`

	// Mode of non-numeric columns; nil when the column has no non-null
	// values. Ties resolve to the value encountered first.
	Mode      *string `json:"mode,omitempty"`
	ModeCount int     `json:"mode_count,omitempty"`
}

// Validate applies the empty and oversize gates. Cleaning calls it with
// the same options before touching a table.
func Validate(t *table.Table, opt Options) error {
	if t.NumRows() == 0 {
		return &EmptyInputError{Name: t.Name}
	}
	if t.NumRows() > opt.maxRows() || t.NumCols() > opt.maxCols() {
		return &OversizeError{
			Rows:    t.NumRows(),
			Cols:    t.NumCols(),
			MaxRows: opt.maxRows(),
			MaxCols: opt.maxCols(),
		}
	}
	return nil
}

// Profile validates the table and computes the report. The table is
// read only; callers may profile and then clean the same instance.
func Profile(t *table.Table, opt Options) (*Report, error) {
	if err := Validate(t, opt); err != nil {
		return nil, err
	}
	rows := t.NumRows()
	rep := &Report{Name: t.Name, Rows: rows, ColsTotal: t.NumCols()}

	sampleRows := opt.SampleRows
	if sampleRows <= 0 {
		sampleRows = DefaultSampleRows
	}
	rep.Samples = t.Head(sampleRows)

	seen := make(map[string]bool, rows)
	for i := 0; i < rows; i++ {
		key := t.RowKey(i)
		if seen[key] {
			rep.DuplicateRows++
		} else {
			seen[key] = true
		}
	}

	rep.Columns = make([]ColumnProfile, 0, t.NumCols())
	for i := range t.Cols {
		rep.Columns = append(rep.Columns, profileColumn(&t.Cols[i], rows))
	}
	return rep, nil
}

func profileColumn(c *table.Column, rows int) ColumnProfile {
	p := ColumnProfile{Name: c.Name, Type: c.Type.String()}

	distinct := make(map[string]bool)
	var (
		n    int
		mean float64
		m2   float64
		mn   = math.Inf(1)
		mx   = math.Inf(-1)
		vals []float64
	)

	for _, cell := range c.Cells {
		if cell.Null {
			p.Nulls++
			continue
		}
		p.NonNull++
		distinct[cell.Raw] = true

		if !c.Type.IsNumeric() {
			continue
		}
		x, ok := table.ParseFloatCell(cell)
		if !ok {
			continue
		}
		n++
		if x < mn {
			mn = x
		}
		if x > mx {
			mx = x
		}
		delta := x - mean
		mean += delta / float64(n)
		m2 += delta * (x - mean)
		vals = append(vals, x)
	}

	if rows > 0 {
		p.MissingRatio = float64(p.Nulls) / float64(rows)
	}
	p.Distinct = len(distinct)
	p.Unique = p.NonNull > 0 && p.Distinct == p.NonNull

	if c.Type.IsNumeric() && n > 0 {
		p.Numeric = true
		p.Min = mn
		p.Max = mx
		p.Mean = mean
		if n > 1 {
			p.Std = math.Sqrt(m2 / float64(n-1))
		}
		med := Median(vals)
		p.Median = &med
	}
	if !c.Type.IsNumeric() {
		if mode, cnt, ok := ModeOf(c.Cells); ok {
			p.Mode = &mode
			p.ModeCount = cnt
		}
	}
	return p
}

// Median returns the median of vals, averaging the middle pair on even
// counts. vals is copied before sorting.
func Median(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	s := make([]float64, len(vals))
	copy(s, vals)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

// ModeOf returns the most frequent non-null value of a column; ties go
// to the value whose first occurrence came earliest. ok is false when
// every cell is null. The cleaning engine imputes with this.
func ModeOf(cells []table.Cell) (string, int, bool) {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, cell := range cells {
		if cell.Null {
			continue
		}
		counts[cell.Raw]++
		if _, ok := firstSeen[cell.Raw]; !ok {
			firstSeen[cell.Raw] = i
		}
	}
	if len(counts) == 0 {
		return "", 0, false
	}
	best := ""
	bestCnt := -1
	bestIdx := math.MaxInt
	for v, cnt := range counts {
		idx := firstSeen[v]
		if cnt > bestCnt || (cnt == bestCnt && idx < bestIdx) {
			best, bestCnt, bestIdx = v, cnt, idx
		}
	}
	return best, bestCnt, true
}

// Text renders the report for terminal output.
func (r *Report) Text() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", r.ColsTotal))
	if r.DuplicateRows > 0 {
		b.WriteString(fmt.Sprintf("Duplicate rows: %d\n", r.DuplicateRows))
	}
	b.WriteString("\n[SCHEMA]\n")
	for _, c := range r.Columns {
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", c.Name, c.Type, c.NonNull, c.MissingRatio*100))
		if c.Numeric {
			b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
			if c.Median != nil {
				b.WriteString(fmt.Sprintf(", median %.4g", *c.Median))
			}
		} else if c.Mode != nil {
			b.WriteString(fmt.Sprintf(" — top: %s(%d); unique=%d", *c.Mode, c.ModeCount, c.Distinct))
		}
		b.WriteString("\n")
	}
	if len(r.Samples) > 0 {
		b.WriteString("\n[SAMPLE ROWS]\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			b.WriteString(strings.Join(row, " | "))
			b.WriteString(" |\n")
		}
	}
	return b.String()
}
