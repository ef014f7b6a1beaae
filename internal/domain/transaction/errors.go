package transaction

import "errors"

var (
	// ErrNoFundingSource is returned when the driver has no linked bank
	ErrNoFundingSource = errors.New("driver has no funding source")

	// ErrTransactionNotFound is returned for an unknown transaction id
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrAlreadySettled is returned when settling a SETTLED transaction
	ErrAlreadySettled = errors.New("transaction already settled")

	// ErrTransactionVoided is returned when settling a VOIDED transaction
	ErrTransactionVoided = errors.New("transaction voided")

	// ErrSettledAmountExceedsAuthorized is returned when capture exceeds the hold
	ErrSettledAmountExceedsAuthorized = errors.New("settled amount exceeds authorized amount")

	// ErrInvalidOrExpiredToken is returned when no live token matches a scan
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")

	// ErrInvalidTransactionState is returned when the scanned transaction is not AUTHORIZED
	ErrInvalidTransactionState = errors.New("invalid transaction state")

	// ErrStationMismatch is returned when station matching is enforced and fails
	ErrStationMismatch = errors.New("token not issued for this station")

	// ErrInvalidAmount is returned when amount is not positive
	ErrInvalidAmount = errors.New("invalid amount: must be greater than 0")

	ErrInternal = errors.New("internal error")
)
