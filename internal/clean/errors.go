package clean

import "fmt"

// CleaningFailure aborts a cleaning pass. Steps holds the log
// accumulated before the failing column so partial progress is
// reported rather than discarded.
type CleaningFailure struct {
	Column string
	Steps  []Step
	Err    error
}

func (e *CleaningFailure) Error() string {
	return fmt.Sprintf("cleaning failed at column %q: %v", e.Column, e.Err)
}

func (e *CleaningFailure) Unwrap() error { return e.Err }
