// Package ckerr defines the sentinel-comparable error kinds used
// throughout the middleware (spec.md §7). Every APDU-layer and
// PIN-layer error is constructed through New or Wrap so that callers
// can classify failures with errors.Is against the Kind sentinels
// below, regardless of which layer raised them.
package ckerr

import (
	"errors"
	"fmt"
)

// Kind is a comparable error category, usable directly with errors.Is.
type Kind struct{ name string }

func (k Kind) Error() string { return k.name }

var (
	InvalidArguments           = Kind{"invalid arguments"}
	OutOfMemory                = Kind{"out of memory"}
	BufferTooSmall             = Kind{"buffer too small"}
	NotSupported               = Kind{"not supported"}
	FileNotFound               = Kind{"file not found"}
	RecordNotFound             = Kind{"record not found"}
	RefDataNotFound            = Kind{"reference data not found"}
	WrongLength                = Kind{"wrong length"}
	PINIncorrect               = Kind{"pin incorrect"}
	AuthMethodBlocked          = Kind{"authentication method blocked"}
	SecurityStatusNotSatisfied = Kind{"security status not satisfied"}
	CmdTooLong                 = Kind{"command too long"}
	UnknownReply               = Kind{"unknown card reply"}
	TransmitFailed             = Kind{"transmit failed"}
	Internal                   = Kind{"internal error"}
)

// Error wraps a Kind with context and an optional underlying cause.
// TriesLeft is meaningful only when Kind is PINIncorrect.
type Error struct {
	Kind      Kind
	Msg       string
	TriesLeft int
	cause     error
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *Error) Unwrap() error { return e.cause }

// Is lets errors.Is(err, ckerr.PINIncorrect) succeed directly against
// the Kind sentinel without exposing *Error's shape.
func (e *Error) Is(target error) bool { return e.Kind == target }

// New builds an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind that chains cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), cause: cause}
}

// PINError builds a PINIncorrect error carrying its tries-left count.
func PINError(triesLeft int) *Error {
	return &Error{Kind: PINIncorrect, Msg: fmt.Sprintf("tries left: %d", triesLeft), TriesLeft: triesLeft}
}

// Is reports whether err (or any error it wraps) carries kind.
func Is(err error, kind Kind) bool { return errors.Is(err, kind) }

// TriesLeft extracts the tries-left count from a PIN_INCORRECT error,
// returning ok=false if err is not one.
func TriesLeft(err error) (int, bool) {
	var e *Error
	if errors.As(err, &e) && e.Kind == PINIncorrect {
		return e.TriesLeft, true
	}
	return 0, false
}
