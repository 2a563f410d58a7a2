package extract

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse means the model returned an empty or whitespace-only
// payload. Callers surface an apology; the call is not retried here.
var ErrEmptyResponse = errors.New("model returned an empty response")

// MalformedResponseError means the payload could not be parsed as the
// expected structure even after repair attempts. Head and Tail hold slices of
// the offending payload for diagnosis.
type MalformedResponseError struct {
	Head string
	Tail string
	Err  error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed model response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// TransportError wraps a failure of the completion endpoint itself: network
// errors, timeouts, server-side errors, unknown or input-incompatible models.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("completion transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
