package creditline

import "errors"

var (
	// ErrInsufficientCredit is returned when a hold would push utilization past the limit
	ErrInsufficientCredit = errors.New("insufficient credit")

	// ErrCreditLineNotFound is returned when no credit line exists for the lookup
	ErrCreditLineNotFound = errors.New("credit line not found")

	// ErrVersionConflict is returned when a compare-and-swap write lost the race
	ErrVersionConflict = errors.New("credit line version conflict")

	// ErrInvalidAmount is returned when amount is not positive
	ErrInvalidAmount = errors.New("invalid amount: must be greater than 0")

	ErrInternal = errors.New("internal error")
)
