package creditrequest

import "errors"

var (
	ErrRequestNotFound = errors.New("credit request not found")
	ErrAlreadyDecided  = errors.New("credit request already decided")
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrInternal        = errors.New("internal error")
)
