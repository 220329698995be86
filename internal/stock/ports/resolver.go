package ports

import (
	"context"
	"errors"

	"github.com/jcmexdev/shopkit/internal/stock/domain"
)

// ErrMissingCapability is returned at composition time when a required port
// was not supplied. It marks a configuration error, not a runtime business
// condition — request handlers should not catch it.
var ErrMissingCapability = errors.New("stock: required capability not configured")

// Resolver resolves which stocked item backs a given cart or order line:
// the product itself, or one of its variations. Every composing application
// must supply one; services reject a nil resolver when constructed.
type Resolver interface {
	ResolveStockedItem(ctx context.Context, productID, variationID string) (*domain.StockedItem, error)
}
