package scanning

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAPIKey means no provider credential was configured. The
	// upload path reports it before any network call is attempted.
	ErrMissingAPIKey = errors.New("provider api key is not configured")

	// ErrEmptyResponse means both the content and reasoning channels of
	// the provider reply were blank.
	ErrEmptyResponse = errors.New("empty response from provider")

	// ErrNoJSONFound means the provider reply contained no {...} span.
	ErrNoJSONFound = errors.New("no json object found in provider response")
)

// TransportError wraps a network failure, a timeout or a non-2xx provider
// status. It is distinct from content errors so callers can tell a broken
// connection apart from an unusable model reply.
type TransportError struct {
	Status int // zero when the request never completed
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("provider request failed with status %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("provider request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// JSONParseError reports a {...} span that was not valid JSON.
type JSONParseError struct {
	Err  error
	Text string
}

func (e *JSONParseError) Error() string {
	return fmt.Sprintf("parsing provider json: %v, text: %s", e.Err, e.Text)
}

func (e *JSONParseError) Unwrap() error { return e.Err }

// MissingFieldError reports a required key absent from the model output.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("provider response is missing field %q", e.Field)
}

// AmountParseError reports a model amount that was still not numeric after
// stripping currency glyphs and separators.
type AmountParseError struct {
	Value string
	Err   error
}

func (e *AmountParseError) Error() string {
	return fmt.Sprintf("parsing amount %q: %v", e.Value, e.Err)
}

func (e *AmountParseError) Unwrap() error { return e.Err }
