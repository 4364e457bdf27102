package engine

import "errors"

// Rule violations are returned as typed sentinel errors so controllers can
// map them to status codes without string matching.
var (
	// ErrNotFound means the card code or definition does not resolve.
	ErrNotFound = errors.New("card not found")

	// ErrCardExpired means the definition's expiry policy no longer allows use.
	ErrCardExpired = errors.New("card expired")

	// ErrCardPaused means the card was paused or disabled by the merchant.
	ErrCardPaused = errors.New("card paused")

	// ErrIssuanceLimitReached means the definition's issuance limit is full.
	ErrIssuanceLimitReached = errors.New("issuance limit reached")

	// ErrProductSelectionRequired means the definition requires a product on
	// every scan and none was supplied.
	ErrProductSelectionRequired = errors.New("product selection required")

	// ErrNoRewardAvailable means redemption was attempted with zero rewards.
	ErrNoRewardAvailable = errors.New("no reward available")

	// ErrStoreConflict means a concurrent writer won the optimistic check.
	// The engine retries internally a bounded number of times before
	// surfacing it.
	ErrStoreConflict = errors.New("store conflict")
)
