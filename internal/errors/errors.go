// Package errors models the interpreter's three error kinds: scan
// errors, compile errors, and runtime errors. Each carries a source
// position so the CLI can print "[line:col] message" diagnostics.
package errors

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies where in the pipeline an error originated.
type Kind string

const (
	ScanError    Kind = "scan error"
	CompileError Kind = "compile error"
	RuntimeError Kind = "runtime error"
)

// Pos is a source coordinate. Zero value means "no position known."
type Pos struct {
	Line   int
	Column int
}

func (p Pos) String() string {
	if p.Line == 0 {
		return ""
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// AwkError is the error type produced at every stage of the pipeline.
type AwkError struct {
	Kind    Kind
	Pos     Pos
	Message string
	cause   error
}

func New(kind Kind, pos Pos, format string, args ...interface{}) *AwkError {
	return &AwkError{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches cause to a new AwkError, preserving the original error in the
// chain so callers can still errors.Unwrap/errors.Is/errors.As through pkg/errors.
func Wrap(cause error, kind Kind, pos Pos, format string, args ...interface{}) *AwkError {
	return &AwkError{
		Kind:    kind,
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
		cause:   pkgerrors.WithStack(cause),
	}
}

func (e *AwkError) Error() string {
	if e.Pos.Line == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("[%d:%d] %s", e.Pos.Line, e.Pos.Column, e.Message)
}

func (e *AwkError) Unwrap() error {
	return e.cause
}

// Causef mirrors the common "at %v: %s" pattern used when a runtime error
// needs to mention which record it happened on.
func Causef(cause error, format string, args ...interface{}) error {
	return pkgerrors.Wrap(cause, fmt.Sprintf(format, args...))
}
