package services

import (
	"errors"
	"fmt"

	"github.com/desertthunder/spotlite/internal/shared"
)

// ErrorKind classifies why a request failed.
type ErrorKind int

const (
	KindMissingCredential ErrorKind = iota // no access token; no request was sent
	KindTransport                          // the request could not be completed
	KindStatus                             // non-2xx response
	KindDecode                             // response body could not be parsed
	KindMissingUser                        // no user id to own the result; no request was sent
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissingCredential:
		return "missing_credential"
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	case KindMissingUser:
		return "missing_user"
	default:
		return "unknown"
	}
}

// RequestError is returned by every [SpotifyClient] operation.
//
// Error returns the short user-facing message; Kind, Status and the wrapped cause are kept for logs and callers.
type RequestError struct {
	Op      string
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Detail renders the full cause for logging.
func (e *RequestError) Detail() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Op, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

// IsMissingCredential reports whether err stems from an absent access token.
func IsMissingCredential(err error) bool {
	return errors.Is(err, shared.ErrMissingCredential)
}

func missingCredential(op, message string) *RequestError {
	if message == "" {
		message = "No access token available"
	}
	return &RequestError{Op: op, Kind: KindMissingCredential, Message: message, Err: shared.ErrMissingCredential}
}

func missingUser(op, message string) *RequestError {
	return &RequestError{Op: op, Kind: KindMissingUser, Message: message, Err: shared.ErrNotAuthenticated}
}

func failed(op string, kind ErrorKind, status int, err error) *RequestError {
	return &RequestError{Op: op, Kind: kind, Status: status, Message: messages[op], Err: err}
}
