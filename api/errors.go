package api

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownKind = errors.New("unknown operation kind")
	ErrEmptyHandle = errors.New("empty operation handle")
)

// StatusError describes a response whose status code the caller did not
// expect.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("unexpected status %d", e.StatusCode)
	if e.URL != "" {
		msg = fmt.Sprintf("%s %s: %s", e.Method, e.URL, msg)
	}
	if len(e.Body) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	return msg
}
