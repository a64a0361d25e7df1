package models

import (
	"errors"
	"fmt"
)

// InputError reports a malformed or out-of-range input: an empty raster,
// an unknown shape or format tag, or a parameter outside its documented
// range. Surfaced to the caller immediately and never retried internally.
type InputError struct {
	Field  string
	Reason string

	// Index optionally points at the offending element for list-valued
	// inputs. -1 when not applicable.
	Index int
}

func (e *InputError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid %s: %s (index %d)", e.Field, e.Reason, e.Index)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewInputError builds an InputError for a named field.
func NewInputError(field, format string, args ...interface{}) *InputError {
	return &InputError{Field: field, Reason: fmt.Sprintf(format, args...), Index: -1}
}

// IsInputError reports whether err is (or wraps) an InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// ResourceLimitError reports a request that exceeds a configured ceiling
// (point count, subdivision level, projected mesh size). Raised before any
// synthesis work begins so memory use stays bounded.
type ResourceLimitError struct {
	Resource  string
	Requested int
	Limit     int
}

func (e *ResourceLimitError) Error() string {
	return fmt.Sprintf("%s limit exceeded: requested %d, limit %d", e.Resource, e.Requested, e.Limit)
}

// IsResourceLimit reports whether err is (or wraps) a ResourceLimitError.
func IsResourceLimit(err error) bool {
	var rl *ResourceLimitError
	return errors.As(err, &rl)
}
