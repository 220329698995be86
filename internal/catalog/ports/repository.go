package ports

import (
	"context"

	"github.com/jcmexdev/shopkit/internal/catalog/domain"
)

// Repository is the port for catalog reads and writes.
type Repository interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	SaveProduct(ctx context.Context, p *domain.Product) error

	GetVariation(ctx context.Context, id string) (*domain.ProductVariation, error)
	SaveVariation(ctx context.Context, v *domain.ProductVariation) error
}
