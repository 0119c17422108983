package infer

import "fmt"

// ServiceUnavailableError means neither transport answered its health
// probe. Queries fail immediately with it; no retries are spent on an
// unreachable host.
type ServiceUnavailableError struct {
	Host string
}

func (e *ServiceUnavailableError) Error() string {
	return "Ollama is not running or installed. Please start Ollama service."
}

// NotInstalledError means the runtime binary is missing from PATH.
type NotInstalledError struct {
	Bin string
}

func (e *NotInstalledError) Error() string {
	return "Ollama is not installed or not in PATH. Please install Ollama."
}

// TimeoutError means one generation call exceeded its wall-clock
// timeout. Retryable up to the retry ceiling.
type TimeoutError struct {
	Transport string
	Err       error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s request timed out. The operation took too long to complete.", e.Transport)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// TransportError covers the remaining transport failures: non-zero
// subprocess exit, network errors, bad HTTP status, malformed
// responses. Detail carries the stderr tail or response body excerpt.
type TransportError struct {
	Transport string
	Status    int
	Detail    string
	Err       error
}

func (e *TransportError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("%s transport failed with status %d: %s", e.Transport, e.Status, e.Detail)
	case e.Detail != "":
		return fmt.Sprintf("%s transport failed: %s", e.Transport, e.Detail)
	default:
		return fmt.Sprintf("%s transport failed: %v", e.Transport, e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// truncateDetail bounds error detail captured from stderr or response
// bodies.
func truncateDetail(s string) string {
	const max = 500
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
