// Package service implements the stocked cart workflow: adding a line to a
// cart validates available stock against the cumulative line quantity and
// leaves the line untouched when stock is insufficient.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jcmexdev/shopkit/internal/cart/domain"
	"github.com/jcmexdev/shopkit/internal/cart/ports"
	catalogdomain "github.com/jcmexdev/shopkit/internal/catalog/domain"
	catalogports "github.com/jcmexdev/shopkit/internal/catalog/ports"
	stockdomain "github.com/jcmexdev/shopkit/internal/stock/domain"
	stockports "github.com/jcmexdev/shopkit/internal/stock/ports"
)

// Service orchestrates cart operations on top of the repository, catalog, and
// stock resolver ports.
type Service struct {
	repo     ports.Repository
	catalog  catalogports.Repository
	resolver stockports.Resolver

	// Per-cart mutexes so the read-check-write in AddItem is serialized for
	// concurrent goroutines in this process. Keys are cart IDs.
	locks sync.Map // map[string]*sync.Mutex
}

// NewService wires the cart service. All three ports are required; a nil
// port is a composition error surfaced immediately rather than on first add.
func NewService(repo ports.Repository, catalog catalogports.Repository, resolver stockports.Resolver) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart: repository is required: %w", stockports.ErrMissingCapability)
	}
	if catalog == nil {
		return nil, fmt.Errorf("cart: catalog repository is required: %w", stockports.ErrMissingCapability)
	}
	if resolver == nil {
		return nil, fmt.Errorf("cart: stock resolver is required: %w", stockports.ErrMissingCapability)
	}
	return &Service{repo: repo, catalog: catalog, resolver: resolver}, nil
}

// GetOrCreate returns the session's cart, creating it lazily on first access.
func (s *Service) GetOrCreate(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.repo.GetBySession(ctx, sessionID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, domain.ErrCartNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	cart = &domain.Cart{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.SaveCart(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// AddItem adds quantity units of a product to the cart and returns the
// resulting line. The product must exist in the catalog; a variation, when
// given, must exist and belong to that product.
//
// The stock check runs against the cumulative line quantity, not just the
// delta, so over-subscription is caught even when items are added in several
// small increments. On insufficient stock the call fails with
// *stockdomain.UnavailableError and the line is exactly as it was before the
// call: an existing line keeps its quantity, a fresh line is never persisted.
func (s *Service) AddItem(ctx context.Context, cartID, productID, variationID string, quantity int) (*domain.CartItem, error) {
	if quantity <= 0 {
		return nil, stockdomain.ErrInvalidQuantity
	}
	if err := s.validateLine(ctx, productID, variationID); err != nil {
		return nil, err
	}

	unlock := s.lockCart(cartID)
	defer unlock()

	item, err := s.repo.FindOrCreateItem(ctx, cartID, productID, variationID)
	if err != nil {
		return nil, err
	}

	stocked, err := s.resolver.ResolveStockedItem(ctx, productID, variationID)
	if err != nil {
		return nil, fmt.Errorf("cart: resolve stocked item for product %s: %w", productID, err)
	}

	newQuantity := item.Quantity + quantity
	ok, err := stocked.IsAvailable(newQuantity)
	if err != nil {
		return nil, err
	}
	if !ok {
		slog.InfoContext(ctx, "add to cart rejected, insufficient stock",
			"cart_id", cartID,
			"product_id", productID,
			"requested", newQuantity,
			"available", stocked.Level,
		)
		return nil, &stockdomain.UnavailableError{
			ItemID:    stocked.ID,
			Label:     stocked.Label,
			LineID:    item.ID,
			Requested: newQuantity,
			Available: stocked.Level,
		}
	}

	item.Quantity = newQuantity
	if err := s.repo.SaveItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Items returns all lines in the cart.
func (s *Service) Items(ctx context.Context, cartID string) ([]*domain.CartItem, error) {
	return s.repo.ListItems(ctx, cartID)
}

// RemoveItem deletes the line for a product from the cart.
func (s *Service) RemoveItem(ctx context.Context, cartID, productID, variationID string) error {
	unlock := s.lockCart(cartID)
	defer unlock()

	item, err := s.repo.FindOrCreateItem(ctx, cartID, productID, variationID)
	if err != nil {
		return err
	}
	if item.Quantity == 0 {
		return domain.ErrItemNotFound
	}
	return s.repo.DeleteItem(ctx, item.ID)
}

// Clear deletes the cart and all of its lines.
func (s *Service) Clear(ctx context.Context, cartID string) error {
	unlock := s.lockCart(cartID)
	defer unlock()
	return s.repo.DeleteCart(ctx, cartID)
}

// validateLine checks the (product, variation) pair against the catalog
// before any cart state is touched.
func (s *Service) validateLine(ctx context.Context, productID, variationID string) error {
	if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
		return err
	}
	if variationID == "" {
		return nil
	}
	variation, err := s.catalog.GetVariation(ctx, variationID)
	if err != nil {
		return err
	}
	if variation.ProductID != productID {
		return fmt.Errorf("cart: variation %s of product %s: %w",
			variationID, variation.ProductID, catalogdomain.ErrVariationMismatch)
	}
	return nil
}

// lockCart acquires the process-local mutex for a cart. Returns the unlock func.
func (s *Service) lockCart(cartID string) func() {
	if v, ok := s.locks.Load(cartID); ok {
		m := v.(*sync.Mutex)
		m.Lock()
		return m.Unlock
	}
	m := &sync.Mutex{}
	actual, _ := s.locks.LoadOrStore(cartID, m)
	mtx := actual.(*sync.Mutex)
	mtx.Lock()
	return mtx.Unlock
}
