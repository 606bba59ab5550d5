package domain

import "errors"

// Expected failure modes of the reservation protocol. Callers branch on these
// with errors.Is; anything else coming out of the engine is an infrastructure
// fault.
var (
	ErrInvalidArgument     = errors.New("missing or malformed argument")
	ErrInvalidQuantity     = errors.New("quantity must be a positive integer")
	ErrMissingHolder       = errors.New("exactly one of user or session holder required")
	ErrProductNotFound     = errors.New("product not found")
	ErrVariantNotFound     = errors.New("variant not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrInsufficientStock   = errors.New("not enough stock")
	ErrInvalidState        = errors.New("reservation not active")
	ErrReservationExpired  = errors.New("reservation expired")
)
