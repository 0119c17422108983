// Package table defines the in-memory tabular data model shared by the
// profiler, the cleaning engine, and the schema validator, plus file
// readers for the supported formats (CSV/TSV, JSON, XLSX, Parquet).
//
// A Table is an ordered sequence of named, typed columns of equal
// length. Cells keep their raw text form alongside a null flag so that
// untouched values round-trip byte-for-byte from input to output.
package table

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DType is the inferred logical type of a column.
type DType int

const (
	String DType = iota
	Integer
	Float
	Boolean
	DateTime
	Categorical
)

// String returns the lowercase name used in reports and rules files.
func (d DType) String() string {
	switch d {
	case String:
		return "string"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Boolean:
		return "boolean"
	case DateTime:
		return "datetime"
	case Categorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// ParseDType maps a type name from a rules file back to a DType.
func ParseDType(s string) (DType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string", "text":
		return String, true
	case "integer", "int":
		return Integer, true
	case "float", "number":
		return Float, true
	case "boolean", "bool":
		return Boolean, true
	case "datetime", "date":
		return DateTime, true
	case "categorical", "category":
		return Categorical, true
	default:
		return String, false
	}
}

// IsNumeric reports whether the type carries numeric statistics.
func (d DType) IsNumeric() bool { return d == Integer || d == Float }

// Cell is one value: the raw text as read, plus a null flag. When Null
// is true, Raw is empty.
type Cell struct {
	Raw  string
	Null bool
}

// Column is an ordered sequence of cells under a unique name.
type Column struct {
	Name  string
	Type  DType
	Cells []Cell
}

// NullCount returns the number of null cells.
func (c *Column) NullCount() int {
	n := 0
	for _, cell := range c.Cells {
		if cell.Null {
			n++
		}
	}
	return n
}

// Table is an in-memory dataset. Column lengths are equal and names are
// unique; New enforces both.
type Table struct {
	Name string
	Cols []Column
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	if len(t.Cols) == 0 {
		return 0
	}
	return len(t.Cols[0].Cells)
}

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.Cols) }

// Validate checks the structural invariants. A table read through New
// always passes; cleaning re-checks before mutating.
func (t *Table) Validate() error {
	seen := make(map[string]bool, len(t.Cols))
	n := -1
	for _, c := range t.Cols {
		if seen[c.Name] {
			return fmt.Errorf("duplicate column name %q", c.Name)
		}
		seen[c.Name] = true
		if n < 0 {
			n = len(c.Cells)
		} else if len(c.Cells) != n {
			return fmt.Errorf("column %q has %d cells, want %d", c.Name, len(c.Cells), n)
		}
	}
	return nil
}

// Clone returns a deep copy. Mutating the copy never touches the
// original; the cleaning engine works on clones only.
func (t *Table) Clone() *Table {
	out := &Table{Name: t.Name, Cols: make([]Column, len(t.Cols))}
	for i, c := range t.Cols {
		cells := make([]Cell, len(c.Cells))
		copy(cells, c.Cells)
		out.Cols[i] = Column{Name: c.Name, Type: c.Type, Cells: cells}
	}
	return out
}

// Equal reports whether two tables have identical names, types, and
// cell contents.
func (t *Table) Equal(o *Table) bool {
	if len(t.Cols) != len(o.Cols) {
		return false
	}
	for i := range t.Cols {
		a, b := &t.Cols[i], &o.Cols[i]
		if a.Name != b.Name || a.Type != b.Type || len(a.Cells) != len(b.Cells) {
			return false
		}
		for j := range a.Cells {
			if a.Cells[j] != b.Cells[j] {
				return false
			}
		}
	}
	return true
}

// Row returns the raw values of row i; null cells render as "".
func (t *Table) Row(i int) []string {
	out := make([]string, len(t.Cols))
	for j := range t.Cols {
		cell := t.Cols[j].Cells[i]
		if !cell.Null {
			out[j] = cell.Raw
		}
	}
	return out
}

// RowKey returns a signature used for duplicate detection. Null and the
// literal empty string hash differently.
func (t *Table) RowKey(i int) string {
	var b strings.Builder
	for j := range t.Cols {
		cell := t.Cols[j].Cells[i]
		if cell.Null {
			b.WriteString("\x00")
		} else {
			b.WriteString(cell.Raw)
		}
		b.WriteString("\x1f")
	}
	return b.String()
}

// Header returns the column names in order.
func (t *Table) Header() []string {
	out := make([]string, len(t.Cols))
	for i := range t.Cols {
		out[i] = t.Cols[i].Name
	}
	return out
}

// Head returns up to n leading rows as raw values.
func (t *Table) Head(n int) [][]string {
	if n > t.NumRows() {
		n = t.NumRows()
	}
	out := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, t.Row(i))
	}
	return out
}

// Filter keeps only the rows for which keep returns true, in order.
// It mutates the table in place and returns the number of rows removed.
func (t *Table) Filter(keep func(row int) bool) int {
	rows := t.NumRows()
	idx := make([]int, 0, rows)
	for i := 0; i < rows; i++ {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	if len(idx) == rows {
		return 0
	}
	for j := range t.Cols {
		cells := make([]Cell, len(idx))
		for k, i := range idx {
			cells[k] = t.Cols[j].Cells[i]
		}
		t.Cols[j].Cells = cells
	}
	return rows - len(idx)
}

// nullTokens are the raw values treated as missing, matched after
// trimming and lowercasing.
var nullTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"null": true,
	"none": true,
}

// IsNullToken reports whether a raw value denotes a missing cell.
func IsNullToken(s string) bool {
	return nullTokens[strings.ToLower(strings.TrimSpace(s))]
}

// categoricalMaxDistinct bounds how many distinct values a string
// column may have and still be refined to Categorical.
const categoricalMaxDistinct = 20

// New builds a Table from a header and raw rows, detecting nulls and
// inferring column types. Short rows are padded with nulls; empty or
// duplicate header names are made unique deterministically.
func New(name string, header []string, rows [][]string) (*Table, error) {
	ncol := len(header)
	if ncol == 0 {
		return &Table{Name: name}, nil
	}
	names := uniqueNames(header)
	cols := make([]Column, ncol)
	for j := range cols {
		cols[j] = Column{Name: names[j], Cells: make([]Cell, len(rows))}
	}
	for i, rec := range rows {
		for j := 0; j < ncol; j++ {
			var raw string
			if j < len(rec) {
				raw = strings.TrimSpace(rec[j])
			}
			if IsNullToken(raw) {
				cols[j].Cells[i] = Cell{Null: true}
			} else {
				cols[j].Cells[i] = Cell{Raw: raw}
			}
		}
	}
	for j := range cols {
		cols[j].Type = inferType(cols[j].Cells)
	}
	t := &Table{Name: name, Cols: cols}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func uniqueNames(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		}
		seen[name] = 1
		out[i] = name
	}
	return out
}

// inferType decides a column's type by its predominant parsed form,
// then refines low-cardinality string columns to Categorical.
func inferType(cells []Cell) DType {
	var intCnt, floatCnt, boolCnt, dtCnt, txtCnt, nonNull int
	distinct := make(map[string]bool)
	for _, cell := range cells {
		if cell.Null {
			continue
		}
		nonNull++
		v := cell.Raw
		switch {
		case isBool(v):
			boolCnt++
		case isInt(v):
			intCnt++
		case isFloat(v):
			floatCnt++
		case isDateTime(v):
			dtCnt++
		default:
			txtCnt++
			if len(distinct) <= categoricalMaxDistinct {
				distinct[v] = true
			}
		}
	}
	if nonNull == 0 {
		return String
	}
	numCnt := intCnt + floatCnt
	switch {
	case boolCnt > numCnt && boolCnt >= dtCnt && boolCnt >= txtCnt:
		return Boolean
	case numCnt >= dtCnt && numCnt >= txtCnt && numCnt > 0:
		if floatCnt > 0 {
			return Float
		}
		return Integer
	case dtCnt >= txtCnt && dtCnt > 0:
		return DateTime
	}
	if len(distinct) > 0 && len(distinct) <= categoricalMaxDistinct && nonNull >= 2*len(distinct) {
		return Categorical
	}
	return String
}

func isBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "false":
		return true
	}
	return false
}

func isInt(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func isFloat(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

var dtLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05",
}

func isDateTime(s string) bool {
	for _, l := range dtLayouts {
		if _, err := time.Parse(l, s); err == nil {
			return true
		}
	}
	return false
}

// ParseFloatCell parses a non-null cell as a float. Used for numeric
// statistics; values that fail to parse are simply skipped upstream.
func ParseFloatCell(c Cell) (float64, bool) {
	if c.Null {
		return 0, false
	}
	f, err := strconv.ParseFloat(c.Raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
