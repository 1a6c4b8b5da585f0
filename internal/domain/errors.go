package domain

import (
	"errors"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sentinel errors — compare with errors.Is()
// ──────────────────────────────────────────────────────────────────────────────

// Validation errors. The ledger rejects malformed inputs at its own boundary
// instead of relying on caller-side clamping.
var (
	// ErrInvalidBidAmount is returned when a bid amount is below one token.
	ErrInvalidBidAmount = errors.New("bid amount must be at least 1")

	// ErrInvalidPrice is returned when a negative price is passed to a price
	// seeding or adjustment operation.
	ErrInvalidPrice = errors.New("price must be non-negative")

	// ErrInvalidSellAmount is returned when a sell amount is zero or negative.
	ErrInvalidSellAmount = errors.New("sell amount must be positive")

	// ErrInvalidWalletAddress is returned when a wallet address fails the
	// shape check on connect.
	ErrInvalidWalletAddress = errors.New("invalid wallet address")
)

// Holding / settlement errors. These are predictable business outcomes: the
// operation returns a zero value alongside the sentinel and mutates nothing.
var (
	// ErrTokensLocked is returned when a redemption or sell is attempted
	// inside the 24-hour lock window.
	ErrTokensLocked = errors.New("tokens are still locked")

	// ErrNothingToRedeem is returned when the user holds no tokens for the post.
	ErrNothingToRedeem = errors.New("no redeemable tokens for this post")

	// ErrInsufficientTokens is returned when a sell exceeds the user's holding.
	ErrInsufficientTokens = errors.New("insufficient token balance")
)

// Auth errors
var (
	// ErrUnauthorized is returned when a valid wallet session is not present.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenInvalid is returned when a session token cannot be parsed or its
	// signature does not match.
	ErrTokenInvalid = errors.New("session token is invalid")

	// ErrTokenExpired is returned when a session token has passed its TTL.
	ErrTokenExpired = errors.New("session token has expired")
)

// ──────────────────────────────────────────────────────────────────────────────
// Helper predicates
// ──────────────────────────────────────────────────────────────────────────────

// IsValidation returns true when err (or any error in its chain) is one of the
// input-validation sentinel errors. Used by the HTTP layer to translate to
// 400 responses.
func IsValidation(err error) bool {
	validationErrors := []error{
		ErrInvalidBidAmount,
		ErrInvalidPrice,
		ErrInvalidSellAmount,
		ErrInvalidWalletAddress,
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsConflict returns true for errors that represent a holding-state conflict
// (locked, empty, or over-drawn holdings). Translated to HTTP 409.
func IsConflict(err error) bool {
	conflictErrors := []error{
		ErrTokensLocked,
		ErrNothingToRedeem,
		ErrInsufficientTokens,
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsAuthError returns true for authentication/authorisation errors.
func IsAuthError(err error) bool {
	authErrors := []error{
		ErrUnauthorized,
		ErrTokenInvalid,
		ErrTokenExpired,
	}
	for _, target := range authErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
