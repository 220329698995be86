// Package service implements catalog reads with an optional cache-aside
// layer in front of the repository.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jcmexdev/shopkit/internal/catalog/domain"
	"github.com/jcmexdev/shopkit/internal/catalog/ports"
	"github.com/jcmexdev/shopkit/internal/pkg/cache"
	"github.com/jcmexdev/shopkit/internal/pkg/money"
	stockports "github.com/jcmexdev/shopkit/internal/stock/ports"
)

const productCacheTTL = 5 * time.Minute

// Service serves catalog lookups. The cache is optional; a nil cache means
// every read goes to the repository.
type Service struct {
	repo   ports.Repository
	cache  cache.Cache
	policy domain.PricingPolicy
	field  money.Field
}

// NewService wires the catalog service. policy may be nil, in which case the
// default placeholder policy is used. Prices are validated and quantized
// against money.DefaultField on save.
func NewService(repo ports.Repository, c cache.Cache, policy domain.PricingPolicy) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog: repository is required: %w", stockports.ErrMissingCapability)
	}
	if policy == nil {
		policy = domain.DefaultPolicy{}
	}
	return &Service{repo: repo, cache: c, policy: policy, field: money.DefaultField}, nil
}

// Policy returns the pricing policy in effect.
func (s *Service) Policy() domain.PricingPolicy { return s.policy }

// GetProduct returns a product, preferring the cache.
func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if s.cache != nil {
		key := s.cache.GenerateKey("product", id)
		if raw, err := s.cache.Get(ctx, key); err == nil {
			var p domain.Product
			if err := json.Unmarshal(raw, &p); err == nil {
				return &p, nil
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			// log cache error but continue to the repository
			slog.WarnContext(ctx, "product cache get failed", "product_id", id, "error", err)
		}
	}

	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(p); err == nil {
			key := s.cache.GenerateKey("product", id)
			if err := s.cache.Set(ctx, key, raw, productCacheTTL); err != nil {
				slog.WarnContext(ctx, "product cache set failed", "product_id", id, "error", err)
			}
		}
	}
	return p, nil
}

// ListProducts returns all products straight from the repository.
func (s *Service) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

// SaveProduct persists a product and invalidates its cache entry. The unit
// price must fit the configured price field; it is quantized to the field's
// decimal places before the write.
func (s *Service) SaveProduct(ctx context.Context, p *domain.Product) error {
	if err := s.field.Validate(p.UnitPrice); err != nil {
		return fmt.Errorf("catalog: save product %q: %w", p.ID, err)
	}
	p.UnitPrice = s.field.Quantize(p.UnitPrice)

	if err := s.repo.SaveProduct(ctx, p); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, s.cache.GenerateKey("product", p.ID)); err != nil {
			slog.WarnContext(ctx, "product cache invalidate failed", "product_id", p.ID, "error", err)
		}
	}
	return nil
}

// GetVariation returns a product variation by ID.
func (s *Service) GetVariation(ctx context.Context, id string) (*domain.ProductVariation, error) {
	return s.repo.GetVariation(ctx, id)
}

// SaveVariation persists a variation. The parent product must already exist.
func (s *Service) SaveVariation(ctx context.Context, v *domain.ProductVariation) error {
	if _, err := s.repo.GetProduct(ctx, v.ProductID); err != nil {
		return fmt.Errorf("catalog: save variation %q: %w", v.ID, err)
	}
	return s.repo.SaveVariation(ctx, v)
}
