package domain

import "errors"

var (
	// ErrMalformedKey marks a geographic identifier that cannot be normalized
	// to a 5-character county key. Cleaners recover by excluding the row.
	ErrMalformedKey = errors.New("malformed county key")

	// ErrInvalidMetric marks a non-numeric, non-sentinel value in a numeric column.
	ErrInvalidMetric = errors.New("invalid metric")

	// ErrSourceUnavailable marks a failed or non-success remote fetch.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrSchemaMismatch marks an input table missing an expected column.
	ErrSchemaMismatch = errors.New("schema mismatch")
)
