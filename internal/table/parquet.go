package table

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
)

type parquetReader struct{}

func (parquetReader) CanRead(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".parquet")
}

// Read loads a flat parquet file. Leaf values are rendered back to the
// literal forms the type inference understands; timestamps and other
// logical types keep their physical representation. Nested groups are
// not supported.
func (parquetReader) Read(path string, opt ReadOptions) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	pf, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &UnreadableInputError{Path: path, Err: err}
	}
	fields := pf.Schema().Fields()
	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = f.Name()
	}

	var out [][]string
	buf := make([]parquet.Row, 64)
	for _, rg := range pf.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				rec := make([]string, len(header))
				for _, v := range row {
					col := v.Column()
					if col < 0 || col >= len(rec) || v.IsNull() {
						continue
					}
					rec[col] = parquetScalar(v)
				}
				out = append(out, rec)
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				rows.Close()
				return nil, &UnreadableInputError{Path: path, Err: err}
			}
		}
		if err := rows.Close(); err != nil {
			return nil, &UnreadableInputError{Path: path, Err: err}
		}
	}
	return New(filepath.Base(path), header, out)
}

func parquetScalar(v parquet.Value) string {
	switch v.Kind() {
	case parquet.Boolean:
		if v.Boolean() {
			return "true"
		}
		return "false"
	case parquet.Int32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case parquet.Int64:
		return strconv.FormatInt(v.Int64(), 10)
	case parquet.Float:
		return strconv.FormatFloat(float64(v.Float()), 'g', -1, 32)
	case parquet.Double:
		return strconv.FormatFloat(v.Double(), 'g', -1, 64)
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return v.String()
	}
}
