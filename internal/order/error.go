package order

import "errors"

var (
	ErrEmptyOrder        = errors.New("please provide at least one item")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidStatus     = errors.New("please provide a valid status: fulfilled or cancelled")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyFulfilled  = errors.New("order has already been fulfilled")
	ErrAlreadyCancelled  = errors.New("order has been cancelled")
)
