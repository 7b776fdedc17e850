package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMemberNotFound      = errors.New("member not found")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidReferralCode = errors.New("invalid referral code")
	ErrPurchaseNotFound    = errors.New("purchase not found")
	ErrPurchaseNotPending  = errors.New("purchase is not pending")
	ErrInvalidPool         = errors.New("point pool must be positive")
	ErrInvalidSplit        = errors.New("pool split must sum to 100")
)

// ConfigIntegrityError rejects a level configuration set.
type ConfigIntegrityError struct {
	Reason string
}

func (e *ConfigIntegrityError) Error() string {
	return "level config integrity: " + e.Reason
}

// MissingWalletError is returned when a member has no wallet row.
type MissingWalletError struct {
	MemberID uint
}

func (e *MissingWalletError) Error() string {
	return fmt.Sprintf("member %d has no wallet", e.MemberID)
}

// ConcurrencyConflictError means row locks could not be acquired within the retry budget.
// The whole triggering event was rolled back and may be retried by the caller.
type ConcurrencyConflictError struct {
	Attempts int
	Err      error
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("concurrency conflict after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ConcurrencyConflictError) Unwrap() error { return e.Err }

// GraphIntegrityError reports a cycle in the referral graph.
type GraphIntegrityError struct {
	MemberID uint
	Path     []uint
}

func (e *GraphIntegrityError) Error() string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return fmt.Sprintf("referral cycle at member %d (path %s)", e.MemberID, strings.Join(parts, "->"))
}

func IsMissingWallet(err error) bool {
	var mw *MissingWalletError
	return errors.As(err, &mw)
}
