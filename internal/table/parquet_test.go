package table

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
)

type tripRecord struct {
	ID   int64   `parquet:"id"`
	Fare float64 `parquet:"fare"`
	City *string `parquet:"city,optional"`
	Paid bool    `parquet:"paid"`
}

func writeTripsParquet(t *testing.T, recs []tripRecord) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trips.parquet")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create parquet: %v", err)
	}
	w := parquet.NewGenericWriter[tripRecord](f)
	if _, err := w.Write(recs); err != nil {
		t.Fatalf("write rows: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	return path
}

func TestReadFileParquet(t *testing.T) {
	lisbon, porto := "Lisbon", "Porto"
	path := writeTripsParquet(t, []tripRecord{
		{ID: 1, Fare: 7.5, City: &lisbon, Paid: true},
		{ID: 2, Fare: 12.25, City: &lisbon, Paid: false},
		{ID: 3, Fare: 3, City: &porto, Paid: true},
		{ID: 4, Fare: 8.1, City: &porto, Paid: true},
		{ID: 5, Fare: 5.75, City: nil, Paid: false},
	})

	tbl, err := ReadFile(path, ReadOptions{})
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if tbl.Name != "trips.parquet" {
		t.Fatalf("name = %q", tbl.Name)
	}
	if tbl.NumRows() != 5 || tbl.NumCols() != 4 {
		t.Fatalf("shape = %dx%d, want 5x4", tbl.NumRows(), tbl.NumCols())
	}

	id := columnNamed(t, tbl, "id")
	if id.Type != Integer {
		t.Fatalf("id type = %s, want integer", id.Type)
	}
	if id.Cells[1].Raw != "2" {
		t.Fatalf("id[1] = %q", id.Cells[1].Raw)
	}

	fare := columnNamed(t, tbl, "fare")
	if fare.Type != Float {
		t.Fatalf("fare type = %s, want float", fare.Type)
	}
	if fare.Cells[1].Raw != "12.25" {
		t.Fatalf("fare[1] = %q", fare.Cells[1].Raw)
	}

	city := columnNamed(t, tbl, "city")
	if city.Type != Categorical {
		t.Fatalf("city type = %s, want categorical", city.Type)
	}
	if !city.Cells[4].Null {
		t.Fatalf("optional null not detected: %#v", city.Cells[4])
	}
	if city.Cells[0].Raw != "Lisbon" {
		t.Fatalf("city[0] = %q", city.Cells[0].Raw)
	}

	paid := columnNamed(t, tbl, "paid")
	if paid.Type != Boolean {
		t.Fatalf("paid type = %s, want boolean", paid.Type)
	}
	if paid.Cells[0].Raw != "true" || paid.Cells[1].Raw != "false" {
		t.Fatalf("paid literals = %q, %q", paid.Cells[0].Raw, paid.Cells[1].Raw)
	}
}

func TestCanReadFileParquet(t *testing.T) {
	if !CanReadFile("data/Trips.PARQUET") {
		t.Fatal("parquet extension not claimed")
	}
}
