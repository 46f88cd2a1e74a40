package repository

import "errors"

// ErrNotFound is returned by GetByID lookups that match no row.
var ErrNotFound = errors.New("record not found")

const (
	// DefaultListLimit is used when a caller passes a non-positive limit.
	DefaultListLimit = 100
	// MaxListLimit caps every List call.
	MaxListLimit = 100
)

// clampLimit maps limit into [1, MaxListLimit], with DefaultListLimit for
// non-positive values.
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
