package ports

import (
	"context"

	"github.com/jcmexdev/shopkit/internal/order/domain"
)

// Repository is the port for order persistence.
type Repository interface {
	// SaveOrder durably persists the order header and all of its items.
	SaveOrder(ctx context.Context, order *domain.Order) error

	// GetOrder returns the order with its items, or domain.ErrOrderNotFound.
	GetOrder(ctx context.Context, id string) (*domain.Order, error)

	// SaveOrderItem durably persists the full current state of a single item.
	SaveOrderItem(ctx context.Context, item *domain.Item) error
}
