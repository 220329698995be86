package ports

import (
	"context"

	"github.com/jcmexdev/shopkit/internal/stock/domain"
)

// Repository is the port for durable stock state. The toolkit depends on
// this abstraction, not on SQLite directly, so the composing application can
// swap in Postgres, an in-memory fake (tests), etc.
type Repository interface {
	// Get returns the stocked item by ID.
	Get(ctx context.Context, id string) (*domain.StockedItem, error)

	// Save durably persists the full current state of the item.
	Save(ctx context.Context, item *domain.StockedItem) error

	// Decrement atomically lowers the stock level by quantity. It must be
	// serialized with respect to other decrements on the same item and must
	// fail with *domain.UnavailableError instead of driving the level
	// negative.
	Decrement(ctx context.Context, id string, quantity int) error

	// Increment atomically restores quantity units. Compensation path.
	Increment(ctx context.Context, id string, quantity int) error
}
