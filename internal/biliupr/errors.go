package biliupr

import "fmt"

// InstallError reports an installer-logic failure: an unexpected release
// payload, no usable asset, an unsupported platform or archive format, or a
// binary missing from the extracted archive. None of these are retryable.
//
// Network failures are never wrapped in an InstallError.
type InstallError struct {
	Msg string
	Err error // Optional underlying cause
}

func (e *InstallError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *InstallError) Unwrap() error {
	return e.Err
}

func installErrorf(format string, args ...any) error {
	return &InstallError{Msg: fmt.Sprintf(format, args...)}
}

// StatusError is returned when a release query or asset download gets a
// non-2xx HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string // e.g. "404 Not Found"
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %s for url: %s", e.Status, e.URL)
}

func isSuccess(code int) bool {
	return code >= 200 && code <= 299
}
