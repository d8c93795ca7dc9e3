package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error kinds returned by the services. Handlers map them to HTTP statuses
// with errors.Is; callers add context with fmt.Errorf("...: %w", err).
var (
	ErrNotFound             = errors.New("not found")
	ErrDuplicateBarcode     = errors.New("barcode already in use")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrWrongPaymentMethod   = errors.New("operation not allowed for this payment method")
	ErrAlreadyAttached      = errors.New("payment detail already attached")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrTerminalState        = errors.New("transaction is already completed or cancelled")
	ErrInvalidCardDetails   = errors.New("invalid card details")
	ErrInvalidImage         = errors.New("invalid receipt image")
	ErrInvalidCredentials   = errors.New("invalid credentials")
)

// StockError names the product that could not be served.
type StockError struct {
	ProductID uuid.UUID
	Name      string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.Name, e.Requested, e.Available)
}

func (e *StockError) Is(target error) bool { return target == ErrInsufficientStock }

// ErrInvalidFilter reports a malformed list or report filter (bad date,
// bad id).
var ErrInvalidFilter = errors.New("invalid filter")

// ErrInvalidProduct reports catalog input the request validation cannot
// catch: an unknown category or a non-positive price on update.
var ErrInvalidProduct = errors.New("invalid product")

// ErrDuplicateUsername is returned when creating a user whose username is taken.
var ErrDuplicateUsername = errors.New("username already in use")
