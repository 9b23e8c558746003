package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport covers connection, DNS and timeout failures. These are
	// never retried.
	ErrTransport = errors.New("transport error")
	// ErrStatus matches any *StatusError.
	ErrStatus = errors.New("http status error")
	ErrDecode = errors.New("decode error")
)

// StatusError is returned for a 4xx response, or a 5xx response once
// retries are exhausted.
type StatusError struct {
	Code     int
	URL      string
	Attempts int
	Body     string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("http %d from %s after %d attempt(s)", e.Code, e.URL, e.Attempts)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// IsServerError reports whether err is a StatusError with a 5xx code.
func IsServerError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code >= 500
}
