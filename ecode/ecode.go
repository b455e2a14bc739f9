// Package ecode defines the stable error codes of the node control
// protocol. Every externally surfaced failure carries one of these codes
// so operators can cross-reference the published catalog. Once published,
// a code is never reused or redefined.
package ecode

import (
	"errors"
	"fmt"
)

// Code is a stable error identifier of the form <PREFIX><digits>.
type Code string

const (
	// Runtime codes.
	CodeTransportFailure Code = "RT0001"
	CodeStorageQuery     Code = "RT0002"
	CodeChannelClosed    Code = "RT0003"
	CodeNonDeterminism   Code = "RT0004"
	CodeInternal         Code = "RT0005"
	CodeStaleVersion     Code = "RT0006"

	// Metadata codes.
	CodeInvalidConfig      Code = "META0001"
	CodeClusterMismatch    Code = "META0002"
	CodeRevisionConflict   Code = "META0006"
	CodeUnknownServiceType Code = "META0007"
)

// Category groups codes by how a caller should react to them.
type Category int

const (
	// TransientInfra covers network and storage glitches. Safe to retry.
	TransientInfra Category = iota + 1

	// Misconfiguration covers endpoint or runtime config problems. Not
	// retryable without operator action.
	Misconfiguration

	// NonDeterminism means an execution produced different results on
	// replay. Never retried automatically, requires a code fix.
	NonDeterminism

	// InternalDefect is a runtime or library bug.
	InternalDefect

	// RevisionConflict is a service revision registration rejection. Not
	// retryable without a compatible revision.
	RevisionConflict
)

func (c Category) String() string {
	switch c {
	case TransientInfra:
		return "transient-infra"
	case Misconfiguration:
		return "misconfiguration"
	case NonDeterminism:
		return "non-determinism"
	case InternalDefect:
		return "internal-defect"
	case RevisionConflict:
		return "revision-conflict"
	default:
		return "unknown"
	}
}

// MarshalText lets the category render as its name in JSON documents.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Retryable reports whether an automated layer may retry a failure of
// this category. NonDeterminism and InternalDefect must never be retried
// silently: replaying a non-deterministic failure can corrupt durable
// execution state.
func (c Category) Retryable() bool {
	return c == TransientInfra
}

// Error is an error annotated with a stable code. The code resolves to a
// catalog entry carrying the category and remediation guidance.
type Error struct {
	code  Code
	msg   string
	cause error
}

func New(code Code, msg string) *Error {
	return &Error{code: code, msg: msg}
}

func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{code: code, msg: fmt.Sprintf(format, args...)}
}

// Wrap annotates an existing error with a code. The cause remains
// reachable through errors.Is/As.
func Wrap(code Code, err error, msg string) *Error {
	return &Error{code: code, msg: msg, cause: err}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %s", e.code, e.msg, e.cause)
	}

	return fmt.Sprintf("[%s] %s", e.code, e.msg)
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Code() Code { return e.code }

// Category resolves the error's catalog category. Unpublished codes are
// treated as internal defects.
func (e *Error) Category() Category {
	if desc, ok := Lookup(e.code); ok {
		return desc.Category
	}

	return InternalDefect
}

// CodeOf extracts the stable code from an error chain.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.code, true
	}

	return "", false
}
