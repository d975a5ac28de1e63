package audio

import "fmt"

// Load error codes
const (
	ErrCodeNotFound    = "FILE_NOT_FOUND"
	ErrCodeUnsupported = "UNSUPPORTED_FORMAT"
	ErrCodeCorrupt     = "CORRUPT_FILE"
	ErrCodeDecoding    = "DECODING_FAILED"
	ErrCodeEmpty       = "EMPTY_AUDIO"
)

// LoadError reports a file that could not be turned into a SampleBuffer
type LoadError struct {
	Path    string `json:"path"`
	Format  string `json:"format"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// NewLoadError creates a new load error
func NewLoadError(path, format, code, message string, cause error) *LoadError {
	return &LoadError{
		Path:    path,
		Format:  format,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// DecodeBackendUnavailableError means a format needs an external decoder
// that is not installed.
type DecodeBackendUnavailableError struct {
	Format  string `json:"format"`
	Backend string `json:"backend"`
	Remedy  string `json:"remedy"`
	Cause   error  `json:"-"`
}

func (e *DecodeBackendUnavailableError) Error() string {
	msg := fmt.Sprintf("decoding %s requires %s, which is not available (%s)", e.Format, e.Backend, e.Remedy)
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *DecodeBackendUnavailableError) Unwrap() error {
	return e.Cause
}
