package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedDate is wrapped by a ParseError when the date field does not
	// match the configured layout.
	ErrMalformedDate = errors.New("malformed date")

	// ErrMalformedNumber is wrapped by a ParseError when an integer field holds
	// something other than digits or the missing marker.
	ErrMalformedNumber = errors.New("malformed number")
)

// ParseError reports a raw field value that could not be parsed.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// MissingFieldError reports a record that lacks one of the named raw columns.
type MissingFieldError struct {
	Field  string
	File   string
	Record int
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s record %d: missing field %q", e.File, e.Record, e.Field)
}

// SchemaMismatchError reports a raw record whose arity differs from the
// configured column list.
type SchemaMismatchError struct {
	File   string
	Record int
	Got    int
	Want   int
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%s record %d: got %d fields, want %d", e.File, e.Record, e.Got, e.Want)
}

// PersistenceError reports a table that could not be written.
type PersistenceError struct {
	Table string
	Path  string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s to %s: %v", e.Table, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
