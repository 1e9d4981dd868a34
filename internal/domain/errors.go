package domain

import (
	"errors"
	"fmt"
)

// Error categories. Every specific error below wraps exactly one of them so
// callers can branch with errors.Is on the category.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidState        = errors.New("invalid state")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidReferral     = errors.New("invalid referral code")
	ErrValidation          = errors.New("validation failed")
	ErrConflict            = errors.New("conflict")
	ErrStorage             = errors.New("storage failure")
)

var (
	ErrAccountNotFound    = fmt.Errorf("account %w", ErrNotFound)
	ErrPurchaseNotFound   = fmt.Errorf("purchase %w", ErrNotFound)
	ErrWithdrawalNotFound = fmt.Errorf("withdrawal request %w", ErrNotFound)
	ErrChallengeNotFound  = fmt.Errorf("challenge %w", ErrNotFound)

	ErrPurchaseNotPending   = fmt.Errorf("purchase is not pending: %w", ErrInvalidState)
	ErrWithdrawalNotPending = fmt.Errorf("withdrawal request is not pending: %w", ErrInvalidState)
	ErrAccountHasLedger     = fmt.Errorf("account has ledger history: %w", ErrInvalidState)

	ErrAccountExists     = fmt.Errorf("phone number already registered: %w", ErrConflict)
	ErrReferralCodeTaken = fmt.Errorf("referral code already taken: %w", ErrConflict)

	ErrInvalidAmount   = fmt.Errorf("amount must be positive with at most two decimals: %w", ErrValidation)
	ErrInvalidComfort  = fmt.Errorf("comfort level out of range: %w", ErrValidation)
	ErrInvalidDay      = fmt.Errorf("day out of range: %w", ErrValidation)
	ErrInvalidTimeslot = fmt.Errorf("unrecognized timeslot: %w", ErrValidation)
	ErrInvalidStatus   = fmt.Errorf("unrecognized status: %w", ErrValidation)
	ErrMissingPayout   = fmt.Errorf("payout details are incomplete: %w", ErrValidation)
	ErrMissingField    = fmt.Errorf("required field missing: %w", ErrValidation)
)

// StorageError wraps an unexpected store failure into the ErrStorage category.
func StorageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
