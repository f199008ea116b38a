package exchange

import (
	"errors"
	"fmt"

	"github.com/sig-0/feemeta/storage/types"
)

var (
	// ErrUnavailable is returned when the exchange can't be reached,
	// responds with a non-2xx status, or rejects the call
	ErrUnavailable = errors.New("exchange unavailable")

	// ErrProtocol is returned when the exchange response
	// doesn't have the expected shape
	ErrProtocol = errors.New("unexpected exchange response")
)

// CallError is a failed exchange call.
// It matches both its kind (ErrUnavailable, ErrProtocol) and the cause
type CallError struct {
	Kind     error
	Err      error
	Exchange types.Exchange
	Call     string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s %s: %s: %s", e.Exchange, e.Call, e.Kind, e.Err)
}

func (e *CallError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Unavailable creates a new ErrUnavailable call error
func Unavailable(exchange types.Exchange, call string, err error) error {
	return &CallError{
		Kind:     ErrUnavailable,
		Err:      err,
		Exchange: exchange,
		Call:     call,
	}
}

// Protocol creates a new ErrProtocol call error
func Protocol(exchange types.Exchange, call string, err error) error {
	return &CallError{
		Kind:     ErrProtocol,
		Err:      err,
		Exchange: exchange,
		Call:     call,
	}
}
