package apiclient

import (
	"errors"
	"fmt"
)

// ErrTimeout marks requests cancelled because the deadline elapsed. It is
// deliberately distinct from connection failures so callers can word the
// alert differently ("server took too long" vs "something went wrong").
var ErrTimeout = errors.New("request timed out")

// StatusError is returned for responses outside the 2xx range. Message holds
// the server-provided message field when the response carried one.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	switch e.Status {
	case 400:
		return "Invalid request. Please check your input."
	case 401:
		return "Invalid student ID or password."
	case 500:
		return "Server error. Please try again later."
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// IsTimeout reports whether err is a deadline expiry.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not a
// StatusError.
func StatusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}
