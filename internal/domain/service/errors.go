package service

import (
	"errors"
	"fmt"
)

// MissingFeatureError reports a required input field that was absent.
type MissingFeatureError struct {
	Field string
}

func (e *MissingFeatureError) Error() string {
	return fmt.Sprintf("missing required feature: %s", e.Field)
}

// InvalidRangeError reports a numeric field whose value is outside its
// documented range or is not a number at all.
type InvalidRangeError struct {
	Field string
	Value any
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid value for %s: %v", e.Field, e.Value)
}

// UnknownCategoryError reports a categorical field whose value is not part of
// the field's vocabulary.
type UnknownCategoryError struct {
	Field string
	Value string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category for %s: %q", e.Field, e.Value)
}

// FeatureWidthMismatchError reports an encoded vector whose width does not
// match the feature spec. This is a configuration fault, never a client error.
type FeatureWidthMismatchError struct {
	Expected int
	Actual   int
}

func (e *FeatureWidthMismatchError) Error() string {
	return fmt.Sprintf("feature width mismatch: expected %d columns, got %d", e.Expected, e.Actual)
}

// IsClientError reports whether err belongs to the caller-fault half of the
// taxonomy (missing feature, out-of-range value, unknown category).
func IsClientError(err error) bool {
	var missing *MissingFeatureError
	var invalid *InvalidRangeError
	var unknown *UnknownCategoryError
	return errors.As(err, &missing) || errors.As(err, &invalid) || errors.As(err, &unknown)
}
