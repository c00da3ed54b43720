package zowie

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by calls made after Close.
	ErrClosed = errors.New("client closed")

	// ErrCannotConnect marks setup-time validation failures.
	ErrCannotConnect = errors.New("cannot connect")
)

// HTTPError reports a non-2xx HTTP status from the device.
type HTTPError struct {
	Endpoint   string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("api %s returned status %d", e.Endpoint, e.StatusCode)
}

// APIError reports an application-level failure: an HTTP 200 reply whose
// status field is not the success sentinel.
type APIError struct {
	Endpoint string
	Status   string
	Rsp      string
}

func (e *APIError) Error() string {
	if e.Rsp == "" {
		return fmt.Sprintf("api %s returned status %q", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("api %s returned status %q: %s", e.Endpoint, e.Status, e.Rsp)
}

// ConnectError is returned by Validate when the device answers with a
// non-success status. Its message is the device's rsp text.
type ConnectError struct {
	Message string
}

func (e *ConnectError) Error() string { return e.Message }

// Is reports ErrCannotConnect so callers can match with errors.Is.
func (e *ConnectError) Is(target error) bool { return target == ErrCannotConnect }
