// Package errors re-exports github.com/cockroachdb/errors so every core
// package gets stack traces, wrapping, and errors.Is/As without each one
// importing the third-party package directly.
//
// It also declares the error taxonomy of spec §7: UnknownFile,
// RangeMismatch, and CycleDepth. Only UnknownFile and RangeMismatch
// ever reach a caller outside this module; CycleDepth is only logged.
// ParseDegenerate is deliberately not a constructible value — the
// parser never raises.
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

var (
	Is     = crdb.Is
	As     = crdb.As
	Unwrap = crdb.Unwrap
)

// Sentinel errors for the taxonomy in spec §7. Wrap these with Wrap/Wrapf
// to add context while keeping errors.Is checks working.
var (
	// ErrUnknownFile: a position query or read for a filename never
	// opened and not present on disk.
	ErrUnknownFile = New("unknown file")

	// ErrRangeMismatch: an incremental edit's declared rangeLength
	// disagrees with the indexed byte length of that range.
	ErrRangeMismatch = New("range length mismatch")

	// ErrCycleDepth: include depth exceeded the cycle-guard cap. Never
	// surfaced to the protocol shell; logged and scanning continues
	// without recursing into the offending child.
	ErrCycleDepth = New("include depth exceeded")
)

// IsUnknownFile reports whether err is or wraps ErrUnknownFile.
func IsUnknownFile(err error) bool {
	return err != nil && Is(err, ErrUnknownFile)
}

// IsRangeMismatch reports whether err is or wraps ErrRangeMismatch.
func IsRangeMismatch(err error) bool {
	return err != nil && Is(err, ErrRangeMismatch)
}
