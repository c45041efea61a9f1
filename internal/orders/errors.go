package orders

import "errors"

var (
	// validation: rejected before any write
	ErrNothingSelected   = errors.New("nothing selected")
	ErrUnknownStatus     = errors.New("unknown consultation status")
	ErrMissingField      = errors.New("missing required field")
	ErrInvalidTransition = errors.New("transition not allowed")

	ErrOrderNotFound    = errors.New("order not found")
	ErrOrdersNotFound   = errors.New("orders not found")
	ErrAdminNotFound    = errors.New("admin not found")
	ErrStatusConflict   = errors.New("order status changed concurrently")
	ErrAlreadyCancelled = errors.New("order already cancelled")
	ErrNoPayment        = errors.New("order has no payment to cancel")
	ErrPaymentCancel    = errors.New("payment cancellation failed")
)
