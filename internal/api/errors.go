package api

import (
	"errors"
	"fmt"
)

// Kind classifies a failed call.
type Kind int

const (
	// KindBackend is a non-2xx, non-401 response.
	KindBackend Kind = iota + 1
	// KindAuthentication is a 401 response.
	KindAuthentication
	// KindNetwork means no response was received.
	KindNetwork
	// KindDecode means the response body could not be understood.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindBackend:
		return "backend"
	case KindAuthentication:
		return "authentication"
	case KindNetwork:
		return "network"
	case KindDecode:
		return "decode"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sentinels matched by errors.Is against an *Error of the same kind.
var (
	ErrUnauthorized = errors.New("api: authentication failed")
	ErrNetwork      = errors.New("api: network unreachable")
)

// Error is returned by every Client operation that fails.
type Error struct {
	Kind    Kind
	Op      string // operation name, e.g. "uploadFile"
	Status  int    // HTTP status, 0 for network errors
	Message string // backend message or the operation fallback
	Err     error  // underlying cause, if any
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("api: %s: %s (status %d)", e.Op, e.Message, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("api: %s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("api: %s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets callers test the kind with errors.Is(err, ErrUnauthorized) or
// errors.Is(err, ErrNetwork).
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Kind == KindAuthentication
	case ErrNetwork:
		return e.Kind == KindNetwork
	}
	return false
}

// KindOf returns the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

// Message returns the user-facing message of err.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
