// Package errs defines the error kinds used throughout the bitforce driver.
package errs

import "fmt"

// Kind classifies a driver error so callers can branch on it with errors.As
// without depending on string matching.
type Kind int

const (
	KindTransportClosed Kind = iota
	KindTimeout
	KindUnexpectedResponse
	KindDeviceBusy
	KindDeviceQueueFull
	KindProtocolUnsupported
	KindThermalThrottle
	KindOverheat
	KindSanityMismatch
	KindInvalidArgument
)

func (k Kind) String() string {
	switch k {
	case KindTransportClosed:
		return "transport closed"
	case KindTimeout:
		return "timeout"
	case KindUnexpectedResponse:
		return "unexpected response"
	case KindDeviceBusy:
		return "device busy"
	case KindDeviceQueueFull:
		return "device queue full"
	case KindProtocolUnsupported:
		return "protocol unsupported"
	case KindThermalThrottle:
		return "thermal throttle"
	case KindOverheat:
		return "overheat"
	case KindSanityMismatch:
		return "sanity mismatch"
	case KindInvalidArgument:
		return "invalid argument"
	default:
		return "unknown"
	}
}

// Error is the driver's structured error type: a Kind plus the operation
// that failed and, optionally, the underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bitforce: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("bitforce: %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error with no wrapped cause.
func New(op string, kind Kind) error {
	return &Error{Op: op, Kind: kind}
}

// Wrap builds an *Error around an existing cause.
func Wrap(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// Is reports whether err is a *Error of the given Kind, unwrapping as needed.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Kind == kind {
				return true
			}
			err = e.Err
			continue
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
