// Package service implements the two-phase order confirmation workflow:
// prepare-confirm surfaces stock problems early without committing, confirm
// is the durable commit point that re-checks and decrements stock.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	cartdomain "github.com/jcmexdev/shopkit/internal/cart/domain"
	catalogports "github.com/jcmexdev/shopkit/internal/catalog/ports"
	"github.com/jcmexdev/shopkit/internal/order/confirmlog"
	"github.com/jcmexdev/shopkit/internal/order/domain"
	"github.com/jcmexdev/shopkit/internal/order/pipeline"
	"github.com/jcmexdev/shopkit/internal/order/ports"
	stockdomain "github.com/jcmexdev/shopkit/internal/stock/domain"
	stockports "github.com/jcmexdev/shopkit/internal/stock/ports"
)

// ErrEmptyCart is returned when an order is built from a cart with no lines.
var ErrEmptyCart = errors.New("order: cart is empty")

// StepsFunc supplies additional confirmation steps for an item — discounts,
// accounting, loyalty. They run strictly after the stock decrement, in the
// order returned.
type StepsFunc func(item *domain.Item) []pipeline.Step

// Service orchestrates order construction and confirmation.
type Service struct {
	orders   ports.Repository
	catalog  catalogports.Repository
	stock    stockports.Repository
	resolver stockports.Resolver
	log      confirmlog.Repository // nil-safe: transitions not persisted if nil
	steps    StepsFunc             // nil-safe: stock decrement is then the only step
}

// NewService wires the order service. The confirmation log repository may be
// nil; everything else is required and checked here so a missing port fails
// at composition time, not on first call.
func NewService(
	orders ports.Repository,
	catalog catalogports.Repository,
	stock stockports.Repository,
	resolver stockports.Resolver,
	logRepo confirmlog.Repository,
	steps StepsFunc,
) (*Service, error) {
	if orders == nil {
		return nil, fmt.Errorf("order: repository is required: %w", stockports.ErrMissingCapability)
	}
	if catalog == nil {
		return nil, fmt.Errorf("order: catalog repository is required: %w", stockports.ErrMissingCapability)
	}
	if stock == nil {
		return nil, fmt.Errorf("order: stock repository is required: %w", stockports.ErrMissingCapability)
	}
	if resolver == nil {
		return nil, fmt.Errorf("order: stock resolver is required: %w", stockports.ErrMissingCapability)
	}
	return &Service{
		orders:   orders,
		catalog:  catalog,
		stock:    stock,
		resolver: resolver,
		log:      logRepo,
		steps:    steps,
	}, nil
}

// BuildFromCart snapshots the cart lines into a new pending order. Unit
// prices are frozen at this point.
func (s *Service) BuildFromCart(ctx context.Context, cart *cartdomain.Cart, lines []*cartdomain.CartItem) (*domain.Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:        uuid.NewString(),
		CartID:    cart.ID,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, line := range lines {
		product, err := s.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("order: snapshot product %s: %w", line.ProductID, err)
		}
		order.Items = append(order.Items, &domain.Item{
			ID:          uuid.NewString(),
			OrderID:     order.ID,
			ProductID:   line.ProductID,
			VariationID: line.VariationID,
			Quantity:    line.Quantity,
			UnitPrice:   product.Price(),
			Status:      domain.ItemStatusCreated,
		})
	}

	if err := s.orders.SaveOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Get returns an order by ID.
func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	return s.orders.GetOrder(ctx, id)
}

// CheckStock validates availability for every item in the order. It fails
// fast: the first unavailable item's error is propagated unchanged and no
// stock or item state is mutated.
func (s *Service) CheckStock(ctx context.Context, order *domain.Order) error {
	for _, item := range order.Items {
		if err := s.checkItemStock(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// PrepareConfirmItem is the pre-flight phase: it validates stock for the
// item without mutating any stock level. On insufficient stock the item is
// rejected and *stockdomain.UnavailableError is returned.
func (s *Service) PrepareConfirmItem(ctx context.Context, item *domain.Item) error {
	if err := item.MarkPrepareConfirmed(); err != nil {
		return err
	}
	if err := s.checkItemStock(ctx, item); err != nil {
		if stockdomain.IsUnavailable(err) {
			s.reject(ctx, item)
		}
		return err
	}
	return s.orders.SaveOrderItem(ctx, item)
}

// ConfirmItem is the durable commit: it requires a prior successful
// prepare-confirm, re-checks availability, then decrements stock and runs
// the remaining confirmation steps.
//
// An unbounded amount of time may pass between the two phases and other
// orders may have consumed the same stock; a failed re-check here is an
// *domain.InvariantError, not the recoverable unavailability signalled by
// PrepareConfirmItem.
func (s *Service) ConfirmItem(ctx context.Context, item *domain.Item) error {
	if item.Status != domain.ItemStatusPrepareConfirmed {
		return &domain.InvariantError{
			ItemID: item.ID,
			Reason: fmt.Sprintf("confirm in state %s, prepare_confirm must succeed first", item.Status),
		}
	}

	stocked, err := s.resolver.ResolveStockedItem(ctx, item.ProductID, item.VariationID)
	if err != nil {
		return fmt.Errorf("order: resolve stocked item for product %s: %w", item.ProductID, err)
	}

	ok, err := stocked.IsAvailable(item.Quantity)
	if err != nil {
		return err
	}
	if !ok {
		s.reject(ctx, item)
		return &domain.InvariantError{
			ItemID: item.ID,
			Reason: fmt.Sprintf("stock of %s changed adversely after prepare_confirm", stocked.ID),
		}
	}

	// Stock decrement always runs first; discount/accounting steps may
	// depend on the final stock state.
	steps := []pipeline.Step{NewDecrementStockStep(s.stock, stocked.ID, item.Quantity)}
	if s.steps != nil {
		steps = append(steps, s.steps(item)...)
	}

	if err := pipeline.New(item.OrderID, steps, s.log).Run(ctx); err != nil {
		if stockdomain.IsUnavailable(err) {
			// The atomic decrement lost a race that the availability check
			// above did not see. Same contract as a failed re-check.
			s.reject(ctx, item)
			return &domain.InvariantError{
				ItemID: item.ID,
				Reason: fmt.Sprintf("stock of %s consumed concurrently during confirm", stocked.ID),
			}
		}
		return fmt.Errorf("order: confirm item %s: %w", item.ID, err)
	}

	if err := item.MarkConfirmed(); err != nil {
		return err
	}
	return s.orders.SaveOrderItem(ctx, item)
}

// Confirm runs the full two-phase confirmation for an order: every item is
// prepare-confirmed first (fail-fast), then committed in declared order. If
// a commit fails mid-way, the already-committed items are compensated in
// reverse order — their stock is restored.
func (s *Service) Confirm(ctx context.Context, order *domain.Order) error {
	for _, item := range order.Items {
		if err := s.PrepareConfirmItem(ctx, item); err != nil {
			s.fail(ctx, order)
			return err
		}
	}

	steps := make([]pipeline.Step, 0, len(order.Items))
	for _, item := range order.Items {
		steps = append(steps, &confirmItemStep{svc: s, item: item})
	}

	if err := pipeline.New(order.ID, steps, s.log).Run(ctx); err != nil {
		s.fail(ctx, order)
		return err
	}

	order.Status = domain.StatusConfirmed
	order.UpdatedAt = time.Now().UTC()
	return s.orders.SaveOrder(ctx, order)
}

// checkItemStock resolves the backing stocked item and validates the item's
// quantity against it. Pure check, no mutation.
func (s *Service) checkItemStock(ctx context.Context, item *domain.Item) error {
	stocked, err := s.resolver.ResolveStockedItem(ctx, item.ProductID, item.VariationID)
	if err != nil {
		return fmt.Errorf("order: resolve stocked item for product %s: %w", item.ProductID, err)
	}
	ok, err := stocked.IsAvailable(item.Quantity)
	if err != nil {
		return err
	}
	if !ok {
		return &stockdomain.UnavailableError{
			ItemID:    stocked.ID,
			Label:     stocked.Label,
			LineID:    item.ID,
			Requested: item.Quantity,
			Available: stocked.Level,
		}
	}
	return nil
}

func (s *Service) reject(ctx context.Context, item *domain.Item) {
	if err := item.MarkRejected(); err != nil {
		slog.ErrorContext(ctx, "failed to reject order item", "item_id", item.ID, "error", err)
		return
	}
	if err := s.orders.SaveOrderItem(ctx, item); err != nil {
		slog.ErrorContext(ctx, "failed to persist rejected order item", "item_id", item.ID, "error", err)
	}
}

// fail marks the order terminally failed. Items still in a non-terminal state
// are rejected along with it, so no item stays prepare-confirmed under a
// failed order.
func (s *Service) fail(ctx context.Context, order *domain.Order) {
	for _, item := range order.Items {
		switch item.Status {
		case domain.ItemStatusCreated, domain.ItemStatusPrepareConfirmed:
			if err := item.MarkRejected(); err != nil {
				slog.ErrorContext(ctx, "failed to reject order item", "item_id", item.ID, "error", err)
			}
		}
	}
	order.Status = domain.StatusFailed
	order.UpdatedAt = time.Now().UTC()
	if err := s.orders.SaveOrder(ctx, order); err != nil {
		slog.ErrorContext(ctx, "failed to persist failed order", "order_id", order.ID, "error", err)
	}
}
