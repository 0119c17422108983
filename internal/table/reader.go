package table

import (
	"fmt"
	"os"
)

// MaxFileBytes is the default ingestion size cap.
const MaxFileBytes = 100 << 20

// ReadOptions controls reader behavior.
type ReadOptions struct {
	// Delimiter for CSV. If 0, ',' is used ('\t' for .tsv files).
	Delimiter rune
	// Sheet selects an XLSX worksheet by name. Empty means first sheet.
	Sheet string
	// MaxBytes overrides the ingestion size cap; 0 means MaxFileBytes.
	MaxBytes int64
}

// Reader loads one file format into a Table.
type Reader interface {
	CanRead(path string) bool
	Read(path string, opt ReadOptions) (*Table, error)
}

var readers []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	readers = append(readers, r)
}

// ReadFile checks the size cap, selects a reader by filename, and loads
// the table. Unsupported extensions fail with UnreadableInputError
// wrapping ErrUnsupported.
func ReadFile(path string, opt ReadOptions) (*Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	limit := opt.MaxBytes
	if limit <= 0 {
		limit = MaxFileBytes
	}
	if info.Size() > limit {
		return nil, &FileTooLargeError{Path: path, Size: info.Size(), Limit: limit}
	}
	for _, r := range readers {
		if r.CanRead(path) {
			return r.Read(path, opt)
		}
	}
	return nil, &UnreadableInputError{Path: path, Err: ErrUnsupported}
}

// CanReadFile reports whether any registered reader claims the path.
func CanReadFile(path string) bool {
	for _, r := range readers {
		if r.CanRead(path) {
			return true
		}
	}
	return false
}

func init() {
	Register(csvReader{})
	Register(jsonReader{})
	Register(xlsxReader{})
	Register(parquetReader{})
}
