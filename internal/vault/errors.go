package vault

import "errors"

// Operation failures reported to callers. All of them are synchronous and
// leave every component exactly as it was before the call.
var (
	ErrInvalidParameters = errors.New("invalid parameters")
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("invalid state")

	ErrAuctionNotActive   = errors.New("auction not active")
	ErrAuctionExpired     = errors.New("auction expired")
	ErrAuctionStillActive = errors.New("auction still active")
	ErrBidTooLow          = errors.New("bid too low")

	ErrInsufficientShares = errors.New("insufficient shares")
	ErrPaymentMismatch    = errors.New("payment mismatch")

	ErrConfidentialComputeTimeout = errors.New("confidential compute timed out")
)
