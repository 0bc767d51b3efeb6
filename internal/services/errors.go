package services

import (
	"errors"
	"fmt"
)

// ErrInvalidCredentials covers both an unknown login identity and a wrong
// password. The dispatch layer renders it distinctly from a missing session.
var ErrInvalidCredentials = errors.New("invalid credentials")

// InsufficientStockError rejects a sale request that exceeds current stock.
type InsufficientStockError struct {
	ItemName  string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for '%s': available %d, requested %d",
		e.ItemName, e.Available, e.Requested)
}

// TotalMismatchError rejects a sale whose supplied total disagrees with the
// catalog-computed total by more than the fixed tolerance.
type TotalMismatchError struct {
	Calculated float64
	Provided   float64
}

func (e *TotalMismatchError) Error() string {
	return fmt.Sprintf("total amount mismatch: calculated %.2f, provided %.2f",
		e.Calculated, e.Provided)
}

// DeliveryError wraps an outbound send failure. It is logged and swallowed
// at the webhook boundary; it never reverses a committed state change.
type DeliveryError struct {
	To  string
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to deliver message to %s: %v", e.To, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
