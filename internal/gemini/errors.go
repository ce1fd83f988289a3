package gemini

import (
	"errors"
	"fmt"
)

// ErrMissingCredential is returned before any network work when no API key
// is configured.
var ErrMissingCredential = errors.New("no API key configured")

// FileError represents a failure to read or convert an uploaded file before
// it ever reaches the API.
type FileError struct {
	Message string
	Cause   error
}

func (e *FileError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("reading file: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("reading file: %s", e.Message)
}

func (e *FileError) Unwrap() error {
	return e.Cause
}

// TransportError represents a network-level failure: the request never
// completed an HTTP exchange with the API.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("calling Gemini API: %v", e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// HTTPError represents a non-2xx response from the API. Both the status
// code and the raw response body appear in the error text so rate-limit
// and quota details reach the user unmodified.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("Gemini API error %d: %s", e.Status, e.Body)
}

// BlockedError represents a response withheld by the API's safety system.
type BlockedError struct {
	Reason  string
	Message string
}

func (e *BlockedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("content blocked (%s): %s", e.Reason, e.Message)
	}
	return fmt.Sprintf("content blocked (%s)", e.Reason)
}

// MalformedResponseError represents a structurally successful exchange
// whose payload cannot be used: no candidates, no text parts, or JSON that
// fails to parse or validate.
type MalformedResponseError struct {
	Message string
	Cause   error
}

func (e *MalformedResponseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed model response: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("malformed model response: %s", e.Message)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Cause
}
