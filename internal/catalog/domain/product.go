// Package domain defines the catalog entities: products, their variations,
// and the pricing capability every sellable entity carries.
package domain

import (
	"errors"
	"time"

	"github.com/jcmexdev/shopkit/internal/pkg/money"
)

var (
	ErrProductNotFound   = errors.New("catalog: product not found")
	ErrVariationNotFound = errors.New("catalog: variation not found")

	// ErrVariationMismatch is returned when a variation exists but belongs to
	// a different product than the one named in the request.
	ErrVariationMismatch = errors.New("catalog: variation does not belong to product")
)

// Product is a sellable entity. Identity is immutable; stock for a product
// lives in a separate stocked item referenced by ID.
type Product struct {
	ID        string
	SKU       string
	Name      string
	UnitPrice money.Price
	Active    bool
	CreatedAt time.Time
}

// Price returns the product's unit price. Pure accessor.
func (p *Product) Price() money.Price { return p.UnitPrice }

// ProductVariation is a concrete variant of a product (size, colour).
// A variation may carry its own stocked item; the stock resolver decides
// whether a line is backed by the product's stock or the variation's.
type ProductVariation struct {
	ID        string
	ProductID string
	Label     string
}

// Priceable is the pricing capability: anything that can quote a unit price.
type Priceable interface {
	Price() money.Price
}
