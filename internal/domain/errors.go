package domain

import "errors"

var (
	// ErrMalformedSchema is returned when the header/sample line is absent or empty.
	// It aborts the session before any table is created.
	ErrMalformedSchema = errors.New("malformed schema")

	// ErrUnparseableValue marks a field that was replaced by its type's default
	ErrUnparseableValue = errors.New("unparseable value")

	// ErrSourceRead wraps I/O failures of the line source. Rows already sent stay committed.
	ErrSourceRead = errors.New("source read failure")

	// ErrUnknownDialect is returned by strict dialect lookups
	ErrUnknownDialect = errors.New("unknown dialect")
)
