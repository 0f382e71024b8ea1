// Copyright 2026 The Exoplanet Transit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xerr defines the four fatal error kinds used at every public
// component boundary of the transit pipeline (format, range, invariant,
// resource). The non-fatal saturation warning is not an error kind; it is
// reported through package transitlog. Every kind, invariant breaks
// included, is returned as an error; nothing here panics.
package xerr

import "fmt"

// Kind classifies a fatal error so the top-level driver can report it
// without inspecting message text.
type Kind int

const (
	// Format marks a malformed TLI or atmosphere file.
	Format Kind = iota
	// Range marks a hinted window outside a database or radius window.
	Range
	// Invariant marks a broken internal invariant (non-monotonic
	// transitions, abundance sums out of tolerance, ...).
	Invariant
	// Resource marks an allocation failure for a large array.
	Resource
)

func (k Kind) String() string {
	switch k {
	case Format:
		return "format"
	case Range:
		return "range"
	case Invariant:
		return "invariant"
	case Resource:
		return "resource"
	default:
		return "unknown"
	}
}

// Error is a fatal condition tagged with its Kind and a formatted message.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.Msg)
}

// New builds a *Error of the given kind, formatting msg/args with fmt.Sprintf.
func New(k Kind, msg string, args ...interface{}) error {
	return &Error{Kind: k, Msg: fmt.Sprintf(msg, args...)}
}

// Formatf is a convenience wrapper for Kind Format.
func Formatf(msg string, args ...interface{}) error { return New(Format, msg, args...) }

// Rangef is a convenience wrapper for Kind Range.
func Rangef(msg string, args ...interface{}) error { return New(Range, msg, args...) }

// Invariantf is a convenience wrapper for Kind Invariant.
func Invariantf(msg string, args ...interface{}) error { return New(Invariant, msg, args...) }

// Resourcef is a convenience wrapper for Kind Resource.
func Resourcef(msg string, args ...interface{}) error { return New(Resource, msg, args...) }

// Wrap adds context to err without losing its Kind, when err is an *Error;
// otherwise it wraps it as an Invariant (a failure from a layer that did not
// itself report a kind is treated as an internal invariant break).
func Wrap(err error, msg string, args ...interface{}) error {
	prefix := fmt.Sprintf(msg, args...)
	if e, ok := err.(*Error); ok {
		return &Error{Kind: e.Kind, Msg: prefix + ": " + e.Msg}
	}
	return &Error{Kind: Invariant, Msg: prefix + ": " + err.Error()}
}
