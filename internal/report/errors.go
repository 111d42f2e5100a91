package report

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed run.
type ErrorKind string

const (
	KindConfiguration ErrorKind = "configuration"
	KindResource      ErrorKind = "resource"
	KindRender        ErrorKind = "render"
	KindExhaustion    ErrorKind = "exhaustion"
	KindCancelled     ErrorKind = "cancelled"
)

// Error codes.
const (
	CodeOutputPathMissing = "OUTPUT_PATH_MISSING"
	CodeLogoUndecodable   = "LOGO_UNDECODABLE"
	CodeOutputUnwritable  = "OUTPUT_UNWRITABLE"
	CodeOutputLocked      = "OUTPUT_LOCKED"
	CodeOutputIO          = "OUTPUT_IO"
	CodeRenderFailed      = "RENDER_FAILED"
	CodeOutOfMemory       = "OUT_OF_MEMORY"
	CodeRunCancelled      = "RUN_CANCELLED"
)

// Error is the single error a failed run returns.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Cause   error
}

// Sentinels for errors.Is; they match any error of their kind.
var (
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrResource      = &Error{Kind: KindResource}
	ErrRender        = &Error{Kind: KindRender}
	ErrExhaustion    = &Error{Kind: KindExhaustion}
	ErrCancelled     = &Error{Kind: KindCancelled}
)

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches by code, or by kind when the target carries no code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != "" {
		return e.Code == t.Code
	}
	return e.Kind == t.Kind
}

func newError(kind ErrorKind, code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Cause: cause}
}

func configError(code, format string, args ...any) *Error {
	return newError(KindConfiguration, code, fmt.Sprintf(format, args...), nil)
}

// CodeOf returns the code of a run error, or "" for anything else.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// KindOf returns the kind of a run error, or "" for anything else.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
