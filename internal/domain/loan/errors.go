package loan

import "errors"

var (
	// ErrLoanNotFound is returned for an unknown loan id
	ErrLoanNotFound = errors.New("loan not found")

	// ErrTransactionNotSettled is returned when rolling up a non-settled transaction
	ErrTransactionNotSettled = errors.New("transaction not settled")

	// ErrAlreadyRolledUp is returned when a transaction was rolled up before
	ErrAlreadyRolledUp = errors.New("transaction already rolled up")

	// ErrRepaymentExceedsBalance is returned when amount exceeds outstanding balance
	ErrRepaymentExceedsBalance = errors.New("repayment exceeds outstanding balance")

	// ErrInvalidAmount is returned when amount is not positive
	ErrInvalidAmount = errors.New("invalid amount: must be greater than 0")

	ErrInternal = errors.New("internal error")
)
