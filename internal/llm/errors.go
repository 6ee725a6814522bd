package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrMalformedResponse marks a successful status whose body cannot be turned
// into completion text: invalid JSON, no choices, or a choice without text.
var ErrMalformedResponse = errors.New("malformed completion response")

// StatusError is returned when the model server answers with a failing HTTP status.
type StatusError struct {
	StatusCode int
	Status     string
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	msg := status
	if e.URL != "" {
		msg = fmt.Sprintf("%s for url: %s", status, e.URL)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	return msg
}

// Malformed wraps a decoding or shape problem so that errors.Is(err, ErrMalformedResponse) holds.
func Malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}

// IsTransient reports whether retrying the same request may succeed.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrMalformedResponse) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500 || statusErr.StatusCode == http.StatusTooManyRequests
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}
