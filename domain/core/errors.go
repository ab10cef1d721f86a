package core

import (
	"errors"
)

// Domain errors - centralized error definitions
var (
	ErrNotFound         = errors.New("resource not found")
	ErrInsufficientData = errors.New("insufficient data for analysis")

	// ErrTooFewGroups is returned when a comparison is requested with fewer
	// than two non-empty groups.
	ErrTooFewGroups = errors.New("fewer than two non-empty groups")

	// ErrMixedDataTypes is returned by the statistics backend when the
	// collections of one outcome do not share a data type.
	ErrMixedDataTypes = errors.New("data collections have different data types")

	ErrTargetExists = errors.New("target already exists")

	ErrDuplicateCategory = errors.New("category already exists")
	ErrEmptyGroup        = errors.New("group has no member categories")
)

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsStatisticsError(err error) bool {
	return errors.Is(err, ErrTooFewGroups) || errors.Is(err, ErrMixedDataTypes)
}
