package common

import (
	"errors"
	"fmt"
)

// ErrCredentials is returned when a signed endpoint is called without keys.
var ErrCredentials = errors.New("API key/secret required")

// ExchangeError wraps any gateway failure other than best-effort setup calls.
type ExchangeError struct {
	Venue string
	Op    string
	Err   error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Venue, e.Op, e.Err)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// Wrap returns nil for a nil err, otherwise an *ExchangeError.
func Wrap(venue, op string, err error) error {
	if err == nil {
		return nil
	}
	var ee *ExchangeError
	if errors.As(err, &ee) {
		return err
	}
	return &ExchangeError{Venue: venue, Op: op, Err: err}
}

// APIError is a non-success answer from a venue.
type APIError struct {
	Status int
	Code   string
	Msg    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("status %d code %s: %s", e.Status, e.Code, e.Msg)
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Msg)
}
