package profile

import "fmt"

// EmptyInputError reports a table with zero data rows. Profiling and
// cleaning both refuse empty input.
type EmptyInputError struct {
	Name string
}

func (e *EmptyInputError) Error() string {
	if e.Name == "" {
		return "dataset is empty"
	}
	return fmt.Sprintf("dataset %s is empty", e.Name)
}

// OversizeError reports a table exceeding the row or column caps.
type OversizeError struct {
	Rows    int
	Cols    int
	MaxRows int
	MaxCols int
}

func (e *OversizeError) Error() string {
	if e.Rows > e.MaxRows {
		return fmt.Sprintf("dataset has %d rows, limit is %d", e.Rows, e.MaxRows)
	}
	return fmt.Sprintf("dataset has %d columns, limit is %d", e.Cols, e.MaxCols)
}
