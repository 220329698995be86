package service

import (
	"context"
	"fmt"

	"github.com/jcmexdev/shopkit/internal/order/domain"
	stockports "github.com/jcmexdev/shopkit/internal/stock/ports"
)

// --- DecrementStockStep ---

// DecrementStockStep is the first step of every item confirmation: it
// durably lowers the backing stocked item's level. Later steps (discounts,
// accounting) may depend on the final stock state, so this one always runs
// first.
type DecrementStockStep struct {
	repo     stockports.Repository
	stockID  string
	quantity int
}

// NewDecrementStockStep is the constructor for DecrementStockStep.
func NewDecrementStockStep(repo stockports.Repository, stockID string, quantity int) *DecrementStockStep {
	return &DecrementStockStep{
		repo:     repo,
		stockID:  stockID,
		quantity: quantity,
	}
}

func (s *DecrementStockStep) Name() string { return "decrement_stock" }

func (s *DecrementStockStep) Execute(ctx context.Context) error {
	if err := s.repo.Decrement(ctx, s.stockID, s.quantity); err != nil {
		return fmt.Errorf("failed to decrement stock for %s: %w", s.stockID, err)
	}
	return nil
}

func (s *DecrementStockStep) Compensate(ctx context.Context) error {
	return s.repo.Increment(ctx, s.stockID, s.quantity)
}

// --- confirmItemStep ---

// confirmItemStep commits one order item inside an order-level confirmation.
// Compensation undoes the commit: stock is restored and the item returns to
// the prepare-confirmed state.
type confirmItemStep struct {
	svc  *Service
	item *domain.Item
}

func (s *confirmItemStep) Name() string {
	return fmt.Sprintf("confirm_item_%s", s.item.ID)
}

func (s *confirmItemStep) Execute(ctx context.Context) error {
	return s.svc.ConfirmItem(ctx, s.item)
}

func (s *confirmItemStep) Compensate(ctx context.Context) error {
	stocked, err := s.svc.resolver.ResolveStockedItem(ctx, s.item.ProductID, s.item.VariationID)
	if err != nil {
		return err
	}
	if err := s.svc.stock.Increment(ctx, stocked.ID, s.item.Quantity); err != nil {
		return err
	}
	s.item.Status = domain.ItemStatusPrepareConfirmed
	return s.svc.orders.SaveOrderItem(ctx, s.item)
}
