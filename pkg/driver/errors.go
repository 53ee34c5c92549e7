// pkg/driver/errors.go
package driver

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNoAck           = errors.New("no acknowledgement")
	ErrTimeout         = errors.New("timeout")
	ErrNoDevice        = errors.New("no device found")
	ErrMultipleDevices = errors.New("multiple devices found")
)

// Error is the error type returned by the driver stack
type Error struct {
	Op     string // Operation or command that failed
	Kind   error  // One of the Err* kinds above
	Detail string // Human readable detail
	Err    error  // Underlying cause, if any
}

// NewError creates a new driver error
func NewError(op string, kind error, detail string) *Error {
	return &Error{Op: op, Kind: kind, Detail: detail}
}

// WrapError creates a new driver error around a cause
func WrapError(op string, kind error, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Op
	if e.Kind != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Kind)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Is reports whether target is the kind of this error
func (e *Error) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the error kind of err, or nil when err carries none
func KindOf(err error) error {
	for _, kind := range []error{ErrInvalidArgument, ErrNoAck, ErrTimeout, ErrNoDevice, ErrMultipleDevices} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// KindName returns a stable identifier for the error kind of err
func KindName(err error) string {
	switch KindOf(err) {
	case ErrInvalidArgument:
		return "INVALID_ARGUMENT"
	case ErrNoAck:
		return "NO_ACK"
	case ErrTimeout:
		return "TIMEOUT"
	case ErrNoDevice:
		return "NO_DEVICE"
	case ErrMultipleDevices:
		return "MULTIPLE_DEVICES"
	default:
		if err == nil {
			return ""
		}
		return "INTERNAL"
	}
}
