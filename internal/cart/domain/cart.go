// Package domain defines the shopping cart entities.
package domain

import (
	"errors"
	"time"
)

var (
	ErrCartNotFound = errors.New("cart: not found")
	ErrItemNotFound = errors.New("cart: item not found")
)

// Cart is a session-scoped collection of cart items. It is created lazily on
// first access for a session and owns its items (deleting the cart deletes
// them).
type Cart struct {
	ID        string
	SessionID string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem is one line in a cart: a product (optionally a specific
// variation) and a quantity. Quantity is strictly positive and additive —
// adding the same product again raises the quantity on the existing line.
// Unique per (cart, product, variation).
type CartItem struct {
	ID          string
	CartID      string
	ProductID   string
	VariationID string
	Quantity    int
	AddedAt     time.Time
}
