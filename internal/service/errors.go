package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cafebar/api/internal/database"
	"github.com/shopspring/decimal"
)

// Errors returned by the order service.
var (
	ErrEmptyItems         = errors.New("items are required")
	ErrInvalidItemName    = errors.New("item name is required")
	ErrInvalidQuantity    = errors.New("quantity must be >= 1")
	ErrUnknownItems       = errors.New("unknown items")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrStatusConflict     = errors.New("order group status changed, please retry")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrOrderTotalTooLarge = errors.New("order total must be below 100000000")
	ErrStockOutOfRange    = errors.New("stock would leave the storable range")
	ErrOrderGroupNotFound = errors.New("order group not found")
	ErrUserNotFound       = errors.New("user not found")
)

// UnknownItemsError lists every requested name with no matching item,
// in the order the names were requested.
type UnknownItemsError struct {
	Names []string
}

func (e *UnknownItemsError) Error() string {
	return fmt.Sprintf("items not found: %s", strings.Join(e.Names, ", "))
}

func (e *UnknownItemsError) Unwrap() error { return ErrUnknownItems }

// TransitionError reports a status change the lifecycle does not allow.
type TransitionError struct {
	From database.OrderGroupStatus
	To   database.OrderGroupStatus
}

func (e *TransitionError) Error() string {
	if _, ok := allowedTransitions[e.From]; !ok {
		return fmt.Sprintf("cannot transition from %s", e.From)
	}
	return fmt.Sprintf("cannot transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// Shortage is one ingredient that would drop below zero.
type Shortage struct {
	Name      string
	Unit      string
	Available decimal.Decimal
	Required  decimal.Decimal
}

// InsufficientStockError aborts a transition into ready.
type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s (need %s %s, have %s)",
			s.Name, s.Required.String(), s.Unit, s.Available.String()))
	}
	return fmt.Sprintf("insufficient stock: %s", strings.Join(parts, ", "))
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }
