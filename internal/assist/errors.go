package assist

import (
	"errors"

	"github.com/TansyBytes/tidytab-cli/internal/clean"
	"github.com/TansyBytes/tidytab-cli/internal/infer"
	"github.com/TansyBytes/tidytab-cli/internal/profile"
	"github.com/TansyBytes/tidytab-cli/internal/table"
)

// Kind tags every failure the CLI can show a user. Classification is
// by error type, never by message text; user-visible wording comes
// only from FriendlyMessage.
type Kind int

const (
	KindUnknown Kind = iota
	KindEmptyInput
	KindOversize
	KindUnreadable
	KindFileTooLarge
	KindCleaningFailure
	KindServiceUnavailable
	KindTimeout
	KindNotInstalled
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindEmptyInput:
		return "empty_input"
	case KindOversize:
		return "oversize"
	case KindUnreadable:
		return "unreadable"
	case KindFileTooLarge:
		return "file_too_large"
	case KindCleaningFailure:
		return "cleaning_failure"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindTimeout:
		return "timeout"
	case KindNotInstalled:
		return "not_installed"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// messages is total over all kinds; TestFriendlyMessageTotal keeps it
// that way.
var messages = map[Kind]string{
	KindUnknown:            "An unexpected error occurred. Please try again later.",
	KindEmptyInput:         "The file appears to be empty. Please check your file and try again.",
	KindOversize:           "The dataset is too large to process. Maximum is 1,000,000 rows and 100 columns.",
	KindUnreadable:         "Could not parse the file. Please ensure it's properly formatted.",
	KindFileTooLarge:       "The file is too large to process. Maximum size is 100 MB.",
	KindCleaningFailure:    "Cleaning failed partway through. The original file was left untouched.",
	KindServiceUnavailable: "AI processing unavailable. The AI service (Ollama) is not responding.",
	KindTimeout:            "The request timed out. The operation took too long to complete.",
	KindNotInstalled:       "Ollama is not installed or not in PATH. Please install Ollama.",
	KindTransport:          "The AI service returned an error. Please try again.",
}

// Classify maps an error onto its kind.
func Classify(err error) Kind {
	var (
		cleaningErr  *clean.CleaningFailure
		emptyErr     *profile.EmptyInputError
		oversizeErr  *profile.OversizeError
		tooLarge     *table.FileTooLargeError
		unreadable   *table.UnreadableInputError
		unavailable  *infer.ServiceUnavailableError
		notInstalled *infer.NotInstalledError
		timeoutErr   *infer.TimeoutError
		transportErr *infer.TransportError
	)
	switch {
	case errors.As(err, &cleaningErr):
		return KindCleaningFailure
	case errors.As(err, &emptyErr):
		return KindEmptyInput
	case errors.As(err, &oversizeErr):
		return KindOversize
	case errors.As(err, &tooLarge):
		return KindFileTooLarge
	case errors.As(err, &unreadable):
		return KindUnreadable
	case errors.As(err, &unavailable):
		return KindServiceUnavailable
	case errors.As(err, &notInstalled):
		return KindNotInstalled
	case errors.As(err, &timeoutErr):
		return KindTimeout
	case errors.As(err, &transportErr):
		return KindTransport
	default:
		return KindUnknown
	}
}

// FriendlyMessage returns the fixed user-facing line for err.
func FriendlyMessage(err error) string {
	return messages[Classify(err)]
}
