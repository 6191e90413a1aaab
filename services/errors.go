package services

import "errors"

var (
	ErrMissionNotFound = errors.New("mission not found")
	ErrMissionExpired  = errors.New("mission has expired")
	ErrMissionLocked   = errors.New("mission is locked until 3 missions are approved today")

	ErrAlreadyAttempted = errors.New("mission already attempted today")
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrAlreadyResolved  = errors.New("attempt already resolved")

	// ErrExternalVerificationUnavailable never escapes the verifier; it is
	// downgraded to a rejected verdict.
	ErrExternalVerificationUnavailable = errors.New("external verification unavailable")

	// ErrTransactionFailed means the reward + wallet commit was rolled back.
	// Callers may retry.
	ErrTransactionFailed = errors.New("reward transaction failed")

	ErrInvalidAmount = errors.New("credit amount must be non-negative")
)
