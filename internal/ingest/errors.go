package ingest

import (
	"errors"

	"github.com/AngelCh415/wbdash/internal/normalize"
)

var (
	// ErrTransport: network failure or non-2xx status.
	ErrTransport = errors.New("transport error")
	// ErrParse: no JSON object could be read from the response body.
	ErrParse = errors.New("parse error")
	// ErrRemote: the endpoint answered with an error payload.
	ErrRemote = errors.New("remote error")
	// ErrValidation: required columns missing or no data rows.
	ErrValidation = normalize.ErrValidation
	// ErrCacheMiss: the fetch failed and there is no snapshot to fall back to.
	ErrCacheMiss = errors.New("no cached snapshot available")

	ErrLoadInProgress = errors.New("load already in progress")
	ErrNoSheetID      = errors.New("sheet id required")
)

type ValidationError = normalize.ValidationError

// RemoteError carries the message the endpoint put in its errors list.
type RemoteError struct {
	Message  string
	Detailed string
}

func (e *RemoteError) Error() string {
	msg := "remote error: " + e.Message
	if e.Detailed != "" && e.Detailed != e.Message {
		msg += " (" + e.Detailed + ")"
	}
	return msg
}

func (e *RemoteError) Unwrap() error { return ErrRemote }

// errorKind labels err for the fetch error counter.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrBreakerOpen):
		return "breaker"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrRemote):
		return "remote"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "other"
	}
}
