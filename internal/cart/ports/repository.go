package ports

import (
	"context"

	"github.com/jcmexdev/shopkit/internal/cart/domain"
)

// Repository is the port for cart persistence.
// Consumers define this interface, not the storage implementation.
type Repository interface {
	// GetBySession returns the cart for a session, or domain.ErrCartNotFound.
	GetBySession(ctx context.Context, sessionID string) (*domain.Cart, error)

	// SaveCart durably persists the cart header.
	SaveCart(ctx context.Context, cart *domain.Cart) error

	// DeleteCart removes the cart and all of its items.
	DeleteCart(ctx context.Context, cartID string) error

	// FindOrCreateItem returns the existing line for (cart, product,
	// variation) or a fresh zero-quantity instance. A fresh instance is not
	// persisted until SaveItem is called.
	FindOrCreateItem(ctx context.Context, cartID, productID, variationID string) (*domain.CartItem, error)

	// SaveItem durably persists the full current state of the line.
	SaveItem(ctx context.Context, item *domain.CartItem) error

	// DeleteItem removes a single line.
	DeleteItem(ctx context.Context, itemID string) error

	// ListItems returns all lines in the cart.
	ListItems(ctx context.Context, cartID string) ([]*domain.CartItem, error)
}
