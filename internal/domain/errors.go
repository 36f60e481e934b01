package domain

import (
	"errors"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sentinel errors — compare with errors.Is()
// ──────────────────────────────────────────────────────────────────────────────

// Market / registry errors
var (
	// ErrMarketNotFound is returned when no market exists for the given
	// identifier or id.
	ErrMarketNotFound = errors.New("market not found")

	// ErrAlreadyTokenized is returned when tokenizing a URL that already maps
	// to a market.
	ErrAlreadyTokenized = errors.New("url is already tokenized")

	// ErrInvalidURL is returned when a URL cannot be parsed or is not an
	// http(s) address.
	ErrInvalidURL = errors.New("invalid url")
)

// Swap errors
var (
	// ErrZeroAmount is returned when a swap or quote is requested with a zero
	// (or negative) input amount.
	ErrZeroAmount = errors.New("amount must be greater than zero")

	// ErrSlippageExceeded is returned when the computed output falls below the
	// caller's min_amount_out. The entire swap is rolled back.
	ErrSlippageExceeded = errors.New("output amount below minimum, slippage exceeded")

	// ErrInvalidSide is returned when a swap direction is neither buy nor sell.
	ErrInvalidSide = errors.New("swap side must be buy or sell")
)

// Fee configuration errors
var (
	// ErrInvalidSetting is returned when a fee configuration is malformed:
	// zero decay interval, out-of-range basis points, or starting < final.
	ErrInvalidSetting = errors.New("invalid fee setting")
)

// Treasury errors
var (
	// ErrCooldownTimerNotEnded is returned when a liquidity withdrawal is
	// attempted before the cooldown timer is armed and elapsed.
	ErrCooldownTimerNotEnded = errors.New("withdrawal cooldown timer has not ended")
)

// Ledger errors (propagated from the external asset ledger, never retried)
var (
	// ErrInsufficientBalance is returned when an account's balance cannot
	// cover a transfer.
	ErrInsufficientBalance = errors.New("insufficient token balance")

	// ErrInsufficientAllowance is returned when a transferFrom exceeds the
	// spender's approved allowance.
	ErrInsufficientAllowance = errors.New("insufficient token allowance")

	// ErrTransferFailed is returned when a ledger transfer cannot complete
	// for any other reason (e.g. unknown account or asset).
	ErrTransferFailed = errors.New("token transfer failed")

	// ErrAccountNotFound is returned when no account matches the address.
	ErrAccountNotFound = errors.New("account not found")
)

// Auth errors
var (
	// ErrUnauthorized is returned when a privileged operation is attempted
	// without valid credentials (bearer token or owner API key).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller is authenticated but does not
	// own the resource (e.g. claiming another deployer's fees).
	ErrForbidden = errors.New("forbidden: insufficient permissions")

	// ErrTokenInvalid is returned when a bearer token cannot be parsed or its
	// signature does not match.
	ErrTokenInvalid = errors.New("token is invalid")
)

// ──────────────────────────────────────────────────────────────────────────────
// Helper predicates
// ──────────────────────────────────────────────────────────────────────────────

// notFoundErrors collects all "entity not found" sentinel errors so that
// IsNotFound can stay in sync automatically.
var notFoundErrors = []error{
	ErrMarketNotFound,
	ErrAccountNotFound,
}

// IsNotFound returns true when err (or any error in its chain) is one of the
// domain "not found" errors. Use this instead of comparing error values
// directly when translating domain errors to HTTP 404 responses.
func IsNotFound(err error) bool {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsConflict returns true for errors that represent a state conflict (e.g.
// double tokenization or a cooldown that has not elapsed).
func IsConflict(err error) bool {
	conflictErrors := []error{
		ErrAlreadyTokenized,
		ErrCooldownTimerNotEnded,
		ErrSlippageExceeded,
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsLedgerError returns true for errors propagated from the external asset
// ledger. These are economic failures, not configuration mistakes.
func IsLedgerError(err error) bool {
	ledgerErrors := []error{
		ErrInsufficientBalance,
		ErrInsufficientAllowance,
		ErrTransferFailed,
	}
	for _, target := range ledgerErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
