package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type csvReader struct{}

func (csvReader) CanRead(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv":
		return true
	}
	return false
}

func (csvReader) Read(path string, opt ReadOptions) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	text, _ := decodeText(data)

	delim := opt.Delimiter
	if delim == 0 {
		delim = ','
		if strings.EqualFold(filepath.Ext(path), ".tsv") {
			delim = '\t'
		}
	}
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return New(filepath.Base(path), nil, nil)
		}
		return nil, &UnreadableInputError{Path: path, Err: err}
	}
	var rows [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &UnreadableInputError{Path: path, Err: fmt.Errorf("row %d: %w", len(rows)+2, err)}
		}
		row := make([]string, len(rec))
		copy(row, rec)
		rows = append(rows, row)
	}
	return New(filepath.Base(path), header, rows)
}

// WriteCSV renders the table back to CSV. Null cells serialize as empty
// fields; everything else keeps its raw form.
func WriteCSV(t *Table, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rows := t.NumRows()
	for i := 0; i < rows; i++ {
		if err := cw.Write(t.Row(i)); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
