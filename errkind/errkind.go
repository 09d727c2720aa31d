// Package errkind defines the behavioral error taxonomy shared by every
// layer of the engine: binder, optimizer, executor, and the session
// surface all fail with one of these kinds so the outermost API can decide
// whether to retry, surface a message, or abort the query.
package errkind

import (
	"github.com/pingcap/errors"
)

// Kind is a closed set of failure categories. New engine errors should
// reuse one of these rather than inventing ad-hoc sentinel errors.
type Kind string

const (
	InvalidSyntax       Kind = "InvalidSyntax"
	ColumnNotFound      Kind = "ColumnNotFound"
	DatasetNotFound     Kind = "DatasetNotFound"
	AmbiguousIdentifier Kind = "AmbiguousIdentifier"
	ParameterError      Kind = "ParameterError"
	UnsupportedSyntax   Kind = "UnsupportedSyntax"
	PermissionError     Kind = "PermissionError"
	ResourceExhausted   Kind = "ResourceExhausted"
	DecodeError         Kind = "DecodeError"
	ExecutionFailed     Kind = "ExecutionFailed"
	Cancelled           Kind = "Cancelled"
)

// kindError pairs a Kind with a message and lets pingcap/errors attach a
// stack trace and annotation chain the way the teacher wraps errors at
// every call site instead of returning bare fmt.Errorf values.
type kindError struct {
	kind Kind
	msg  string
}

func (e *kindError) Error() string { return string(e.kind) + ": " + e.msg }

// New builds a stack-traced error of the given kind.
func New(kind Kind, msg string) error {
	return errors.Trace(&kindError{kind: kind, msg: msg})
}

// Newf builds a stack-traced, formatted error of the given kind.
func Newf(kind Kind, format string, args ...interface{}) error {
	return errors.Trace(&kindError{kind: kind, msg: errors.Errorf(format, args...).Error()})
}

// Annotate wraps an existing error with a kind, preserving the original
// cause for later unwrapping while classifying it for the cursor.
func Annotate(err error, kind Kind, context string) error {
	if err == nil {
		return nil
	}
	return errors.Trace(&kindError{kind: kind, msg: context + ": " + err.Error()})
}

// Is reports whether err (or any cause in its pingcap/errors chain) carries
// the given Kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		if ke, ok := err.(*kindError); ok {
			return ke.kind == kind
		}
		cause := errors.Cause(err)
		if cause == err {
			return false
		}
		err = cause
	}
	return false
}

// KindOf extracts the Kind from err, if any, and whether one was found.
func KindOf(err error) (Kind, bool) {
	cause := errors.Cause(err)
	if ke, ok := cause.(*kindError); ok {
		return ke.kind, true
	}
	return "", false
}
