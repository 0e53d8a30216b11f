package rag

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures so the transport layer can map them
// to responses without matching error strings.
type Kind string

const (
	KindValidation Kind = "validation"
	KindUpstream   Kind = "upstream" // extraction, transcription, embedding
	KindStore      Kind = "store"
	KindGeneration Kind = "generation"
)

type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind carried by err, or "" for untagged errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
