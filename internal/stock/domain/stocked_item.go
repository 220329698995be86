// Package domain holds the stock-keeping core: an integer stock level per
// stocked item and the availability query every cart and order operation
// delegates to.
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuantity is returned when a caller asks about a zero or
	// negative quantity. Quantities are strictly positive in every workflow.
	ErrInvalidQuantity = errors.New("stock: quantity must be greater than zero")

	// ErrNegativeLevel is returned when a stocked item would be created or
	// driven below zero. Stock is never negative.
	ErrNegativeLevel = errors.New("stock: level must not be negative")

	// ErrNotFound is returned when no stocked item exists for an ID.
	ErrNotFound = errors.New("stock: stocked item not found")
)

// StockedItem keeps the unit count for a sellable entity — a product or one
// of its variations. It is referenced, not owned, by cart and order lines.
type StockedItem struct {
	ID    string
	Label string
	Level int
}

// New validates and builds a stocked item.
func New(id, label string, level int) (*StockedItem, error) {
	if level < 0 {
		return nil, ErrNegativeLevel
	}
	return &StockedItem{ID: id, Label: label, Level: level}, nil
}

// IsAvailable reports whether quantity units are in stock.
// Pure query; it never mutates the item.
func (s *StockedItem) IsAvailable(quantity int) (bool, error) {
	if quantity <= 0 {
		return false, ErrInvalidQuantity
	}
	return s.Level >= quantity, nil
}

// Decrement lowers the stock level by quantity. The guard keeps the level
// from ever going negative; callers that need durable atomicity use the
// storage adapter's conditional update instead of read-modify-write.
func (s *StockedItem) Decrement(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if s.Level < quantity {
		return &UnavailableError{
			ItemID:    s.ID,
			Label:     s.Label,
			Requested: quantity,
			Available: s.Level,
		}
	}
	s.Level -= quantity
	return nil
}

// Increment raises the stock level by quantity. Used by compensation paths
// that undo a confirmed decrement.
func (s *StockedItem) Increment(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	s.Level += quantity
	return nil
}

// Availability is implemented by anything that can answer whether a quantity
// is in stock: a stocked item itself, or a cart/order line delegating to one.
type Availability interface {
	IsAvailable(quantity int) (bool, error)
}

// UnavailableError signals that a requested quantity exceeds available stock.
// It is a recoverable business error: the caller is expected to surface it to
// the shopper and allow a retry with a smaller quantity.
type UnavailableError struct {
	// ItemID identifies the stocked item that ran out.
	ItemID string
	// Label is a human-readable name for the offending line.
	Label string
	// LineID identifies the cart or order line that triggered the check,
	// when known.
	LineID string
	// Requested and Available record the failed comparison.
	Requested int
	Available int
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("stock: %d of %q requested, %d available", e.Requested, e.Label, e.Available)
}

// IsUnavailable reports whether err is (or wraps) an UnavailableError.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}
