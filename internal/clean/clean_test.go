package clean

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/TansyBytes/tidytab-cli/internal/profile"
	"github.com/TansyBytes/tidytab-cli/internal/table"
)

func mustTable(t *testing.T, header []string, rows [][]string) *table.Table {
	t.Helper()
	tbl, err := table.New("fixture.csv", header, rows)
	if err != nil {
		t.Fatalf("table.New: %v", err)
	}
	return tbl
}

func TestCleanNoopIsFixedPoint(t *testing.T) {
	tbl := mustTable(t, []string{"id", "name"}, [][]string{
		{"1", "ada"},
		{"2", "bob"},
		{"3", "cyd"},
	})
	before := tbl.Clone()
	res, err := Clean(tbl)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if len(res.Steps) != 0 {
		t.Fatalf("steps = %d, want 0", len(res.Steps))
	}
	if !res.Table.Equal(tbl) {
		t.Fatal("clean table differs from clean input")
	}
	if !tbl.Equal(before) {
		t.Fatal("input table was mutated")
	}
	if res.RowsBefore != 3 || res.RowsAfter != 3 {
		t.Fatalf("rows %d -> %d, want 3 -> 3", res.RowsBefore, res.RowsAfter)
	}
	if res.RunID == "" {
		t.Fatal("run id not set")
	}
}

func TestCleanRemovesDuplicatesKeepingFirst(t *testing.T) {
	tbl := mustTable(t, []string{"a", "b"}, [][]string{
		{"1", "x"},
		{"2", "y"},
		{"1", "x"},
		{"2", "y"},
		{"3", "z"},
	})
	res, err := Clean(tbl)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if len(res.Steps) != 1 {
		t.Fatalf("steps = %d, want 1", len(res.Steps))
	}
	s := res.Steps[0]
	if s.Action != ActionDropDuplicates || s.Affected != 2 {
		t.Fatalf("step = %s affected %d, want drop_duplicates affected 2", s.Action, s.Affected)
	}
	if res.Table.NumRows() != 3 {
		t.Fatalf("rows = %d, want 3", res.Table.NumRows())
	}
	if got := res.Table.Cols[0].Cells[0].Raw; got != "1" {
		t.Fatalf("first row = %q, want first occurrence kept", got)
	}
	if got := res.Table.Cols[0].Cells[2].Raw; got != "3" {
		t.Fatalf("row order broken: %q", got)
	}
}

// The canonical policy scenario: 100 rows, age 5% null (rows dropped),
// city 20% null (mode imputed on the remaining rows). The impute step
// reports the estimate from the processing-time ratio and the original
// row count, which overshoots the 20 cells actually filled.
func TestCleanScenarioDropThenImpute(t *testing.T) {
	rows := make([][]string, 100)
	for i := 0; i < 100; i++ {
		age := strconv.Itoa(20 + i%40)
		if i < 5 {
			age = ""
		}
		city := "Lisbon"
		if i%10 == 1 {
			city = "Porto"
		}
		if i >= 10 && i < 30 {
			city = ""
		}
		rows[i] = []string{strconv.Itoa(i), age, city}
	}
	tbl := mustTable(t, []string{"id", "age", "city"}, rows)

	res, err := Clean(tbl)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if len(res.Steps) != 2 {
		t.Fatalf("steps = %d, want 2:\n%+v", len(res.Steps), res.Steps)
	}

	drop := res.Steps[0]
	if drop.Action != ActionDropNullRows || drop.Column != "age" || drop.Affected != 5 {
		t.Fatalf("step 1 = %+v, want age drop of 5 rows", drop)
	}

	impute := res.Steps[1]
	if impute.Action != ActionImpute || impute.Column != "city" {
		t.Fatalf("step 2 = %+v, want city impute", impute)
	}
	if impute.Value != "Lisbon" {
		t.Fatalf("fill value = %q, want mode Lisbon", impute.Value)
	}
	// ratio at processing time is 20/95; estimate = int(20/95 * 100) = 21
	// even though exactly 20 cells were filled.
	if impute.Affected != 21 {
		t.Fatalf("estimated cells = %d, want 21", impute.Affected)
	}

	if res.RowsAfter != 95 {
		t.Fatalf("rows after = %d, want 95", res.RowsAfter)
	}
	city := res.Table.Cols[2]
	if city.NullCount() != 0 {
		t.Fatalf("city still has %d nulls", city.NullCount())
	}
	filled := 0
	for _, cell := range city.Cells {
		if cell.Raw == "Lisbon" {
			filled++
		}
	}
	// 72 original Lisbons, 4 lost to the age drop, plus 20 imputed.
	if filled != 88 {
		t.Fatalf("Lisbon count = %d, want 88", filled)
	}
}

func TestCleanRowCountEquation(t *testing.T) {
	rows := make([][]string, 50)
	for i := 0; i < 50; i++ {
		v := strconv.Itoa(i)
		if i < 2 {
			v = ""
		}
		rows[i] = []string{strconv.Itoa(i % 48), v}
	}
	// exact duplicates of rows 2 and 3
	rows[48] = append([]string(nil), rows[2]...)
	rows[49] = append([]string(nil), rows[3]...)
	tbl := mustTable(t, []string{"a", "b"}, rows)

	res, err := Clean(tbl)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	var dups, dropped int
	for _, s := range res.Steps {
		switch s.Action {
		case ActionDropDuplicates:
			dups += s.Affected
		case ActionDropNullRows:
			dropped += s.Affected
		}
	}
	if want := res.RowsBefore - dups - dropped; res.RowsAfter != want {
		t.Fatalf("rows after = %d, want %d (before %d - dups %d - dropped %d)",
			res.RowsAfter, want, res.RowsBefore, dups, dropped)
	}
}

func TestCleanIdempotent(t *testing.T) {
	rows := make([][]string, 40)
	for i := 0; i < 40; i++ {
		tag := "m"
		if i%3 == 0 {
			tag = ""
		}
		rows[i] = []string{strconv.Itoa(i), tag}
	}
	rows[39] = append([]string(nil), rows[0]...)
	tbl := mustTable(t, []string{"id", "tag"}, rows)

	first, err := Clean(tbl)
	if err != nil {
		t.Fatalf("first Clean: %v", err)
	}
	if len(first.Steps) == 0 {
		t.Fatal("fixture produced no cleaning work")
	}
	second, err := Clean(first.Table)
	if err != nil {
		t.Fatalf("second Clean: %v", err)
	}
	if len(second.Steps) != 0 {
		t.Fatalf("second pass steps = %+v, want none", second.Steps)
	}
	if !second.Table.Equal(first.Table) {
		t.Fatal("second pass changed the table")
	}
}

func TestCleanAllNullColumnUsesUnknown(t *testing.T) {
	tbl := mustTable(t, []string{"id", "notes"}, [][]string{
		{"1", ""},
		{"2", "NA"},
		{"3", "null"},
	})
	res, err := Clean(tbl)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if len(res.Steps) != 1 {
		t.Fatalf("steps = %+v, want one impute", res.Steps)
	}
	if res.Steps[0].Value != UnknownSentinel {
		t.Fatalf("fill value = %q, want %q", res.Steps[0].Value, UnknownSentinel)
	}
	for _, cell := range res.Table.Cols[1].Cells {
		if cell.Raw != UnknownSentinel {
			t.Fatalf("cell = %+v, want Unknown fill", cell)
		}
	}
}

func TestCleanNumericImputesMedian(t *testing.T) {
	rows := [][]string{
		{"1", "10"}, {"2", "20"}, {"3", "30"},
		{"4", "40"}, {"5", ""}, {"6", ""},
	}
	tbl := mustTable(t, []string{"id", "score"}, rows)
	res, err := Clean(tbl)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if len(res.Steps) != 1 || res.Steps[0].Action != ActionImpute {
		t.Fatalf("steps = %+v, want one impute", res.Steps)
	}
	// median of {10,20,30,40} = 25
	if res.Steps[0].Value != "25" {
		t.Fatalf("fill = %q, want 25", res.Steps[0].Value)
	}
}

func TestCleanEmptyInput(t *testing.T) {
	tbl := mustTable(t, []string{"a"}, nil)
	var ee *profile.EmptyInputError
	if _, err := Clean(tbl); !errors.As(err, &ee) {
		t.Fatalf("err = %v, want EmptyInputError", err)
	}
}

func TestCleanFailureCarriesPartialSteps(t *testing.T) {
	ragged := &table.Table{
		Name: "bad.csv",
		Cols: []table.Column{
			{Name: "a", Cells: []table.Cell{{Raw: "1"}, {Raw: "2"}, {Raw: "3"}}},
			{Name: "b", Cells: []table.Cell{{Raw: "x"}}},
		},
	}
	var cf *CleaningFailure
	_, err := Clean(ragged)
	if !errors.As(err, &cf) {
		t.Fatalf("err = %v, want CleaningFailure", err)
	}
	if cf.Column != "b" {
		t.Fatalf("failing column = %q, want b", cf.Column)
	}

	// A hand-built numeric column with no parsable values fails after the
	// duplicate step, which must survive in the log.
	bad := &table.Table{
		Name: "bad2.csv",
		Cols: []table.Column{
			{Name: "n", Type: table.Integer, Cells: []table.Cell{
				{Null: true}, {Raw: "x"}, {Raw: "x"}, {Null: true},
				{Null: true}, {Raw: "x"}, {Raw: "x"}, {Null: true},
			}},
		},
	}
	_, err = Clean(bad)
	if !errors.As(err, &cf) {
		t.Fatalf("err = %v, want CleaningFailure", err)
	}
	if cf.Column != "n" {
		t.Fatalf("failing column = %q, want n", cf.Column)
	}
	if len(cf.Steps) != 1 || cf.Steps[0].Action != ActionDropDuplicates {
		t.Fatalf("partial steps = %+v, want the duplicate step", cf.Steps)
	}
}

type fakeQuerier struct {
	out  string
	err  error
	got  string
	mod  string
	hits int
}

func (f *fakeQuerier) Query(_ context.Context, prompt, model string) (string, error) {
	f.hits++
	f.got = prompt
	f.mod = model
	return f.out, f.err
}

func TestAdviseSuccessAndFallback(t *testing.T) {
	tbl := mustTable(t, []string{"id", "city"}, [][]string{
		{"1", "Lisbon"},
		{"2", "Porto"},
	})
	rep, err := profile.Profile(tbl, profile.Options{})
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}

	q := &fakeQuerier{out: "  Drop nothing, the data is clean.  "}
	got := Advise(context.Background(), q, tbl, rep, "test-model")
	if got != "Drop nothing, the data is clean." {
		t.Fatalf("advisory = %q", got)
	}
	if q.hits != 1 || q.mod != "test-model" {
		t.Fatalf("querier called %d times with model %q", q.hits, q.mod)
	}
	for _, want := range []string{
		"You are a data cleaning assistant.",
		"2 rows × 2 columns",
		"id: integer",
		"Sample data:",
	} {
		if !strings.Contains(q.got, want) {
			t.Errorf("prompt missing %q:\n%s", want, q.got)
		}
	}

	failing := &fakeQuerier{err: fmt.Errorf("connection refused")}
	if got := Advise(context.Background(), failing, tbl, rep, "m"); got != FallbackAdvisory {
		t.Fatalf("advisory = %q, want fallback", got)
	}
	if got := Advise(context.Background(), &fakeQuerier{out: "   "}, tbl, rep, "m"); got != FallbackAdvisory {
		t.Fatalf("blank advisory = %q, want fallback", got)
	}
	if got := Advise(context.Background(), nil, tbl, rep, "m"); got != FallbackAdvisory {
		t.Fatalf("nil querier advisory = %q, want fallback", got)
	}
}

func TestSummaryRendering(t *testing.T) {
	tbl := mustTable(t, []string{"a", "b"}, [][]string{
		{"1", "x"},
		{"1", "x"},
		{"2", "y"},
	})
	res, err := Clean(tbl)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	out := Summary(res, FallbackAdvisory)
	for _, want := range []string{
		FallbackAdvisory,
		"ACTUAL CLEANING PERFORMED:",
		"Removed 1 duplicate rows",
		"RESULTS:",
		"Original dataset: 3 rows × 2 columns",
		"Cleaned dataset: 2 rows × 2 columns",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	clean := mustTable(t, []string{"a"}, [][]string{{"1"}, {"2"}})
	res2, err := Clean(clean)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if out := Summary(res2, ""); !strings.Contains(out, "No automatic cleaning steps were necessary") {
		t.Fatalf("no-op summary = %q", out)
	}
}
