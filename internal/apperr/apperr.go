// Package apperr carries the engine's error taxonomy across package
// boundaries. Collaborators return *Error values; the lifecycle layer folds
// them into user-facing messages and the IPC layer into error envelopes.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindUnknown        Kind = "unknown"
	KindValidation     Kind = "validation"
	KindNotFound       Kind = "not_found"
	KindTransientInfra Kind = "transient_infra"
	KindRuntimeAPI     Kind = "runtime_api"
	KindProtocol       Kind = "protocol"
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Msg == "" && e.Err == nil:
		return string(e.Kind)
	case e.Msg == "":
		return e.Err.Error()
	case e.Err == nil:
		return e.Msg
	default:
		return e.Msg + ": " + e.Err.Error()
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, apperr.ErrNotFound)
// works for wrapped values.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil {
		return false
	}
	return t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrValidation     = &Error{Kind: KindValidation}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrTransientInfra = &Error{Kind: KindTransientInfra}
	ErrRuntimeAPI     = &Error{Kind: KindRuntimeAPI}
	ErrProtocol       = &Error{Kind: KindProtocol}
)

func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and context message to err. A nil err stays nil.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func Validation(msg string) error { return New(KindValidation, msg) }

func NotFound(format string, args ...any) error { return Newf(KindNotFound, format, args...) }

func Protocol(format string, args ...any) error { return Newf(KindProtocol, format, args...) }

// KindOf reports the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

func IsTransient(err error) bool { return errors.Is(err, ErrTransientInfra) }
