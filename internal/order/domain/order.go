// Package domain defines orders, order items, and the two-phase confirmation
// state machine each item moves through.
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/jcmexdev/shopkit/internal/pkg/money"
)

var ErrOrderNotFound = errors.New("order: not found")

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// ItemStatus is the confirmation state of a single order item.
//
// Created → PrepareConfirmed → Confirmed, with Rejected reached when a stock
// check fails in either phase. Confirmed and Rejected are terminal.
type ItemStatus string

const (
	ItemStatusCreated          ItemStatus = "CREATED"
	ItemStatusPrepareConfirmed ItemStatus = "PREPARE_CONFIRMED"
	ItemStatusConfirmed        ItemStatus = "CONFIRMED"
	ItemStatusRejected         ItemStatus = "REJECTED"
)

// Order is created from a cart at checkout and owns its items.
type Order struct {
	ID        string
	CartID    string
	Status    Status
	Items     []*Item
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Total sums the line totals of all items.
func (o *Order) Total() money.Price {
	total := money.Zero
	for _, it := range o.Items {
		total = total.Add(it.UnitPrice.MulQuantity(it.Quantity))
	}
	return total
}

// Item snapshots a product and quantity at order build time. UnitPrice is
// frozen when the order is created so later catalog changes do not affect it.
type Item struct {
	ID          string
	OrderID     string
	ProductID   string
	VariationID string
	Quantity    int
	UnitPrice   money.Price
	Status      ItemStatus
}

// MarkPrepareConfirmed records a successful pre-flight stock check.
// Calling it again on an already prepare-confirmed item is allowed; checkout
// review may re-validate any number of times before the commit.
func (i *Item) MarkPrepareConfirmed() error {
	switch i.Status {
	case ItemStatusCreated, ItemStatusPrepareConfirmed:
		i.Status = ItemStatusPrepareConfirmed
		return nil
	default:
		return &InvariantError{ItemID: i.ID, Reason: fmt.Sprintf("prepare_confirm in state %s", i.Status)}
	}
}

// MarkConfirmed records the durable commit. Requires a prior successful
// prepare-confirm.
func (i *Item) MarkConfirmed() error {
	if i.Status != ItemStatusPrepareConfirmed {
		return &InvariantError{ItemID: i.ID, Reason: fmt.Sprintf("confirm in state %s, prepare_confirm must succeed first", i.Status)}
	}
	i.Status = ItemStatusConfirmed
	return nil
}

// MarkRejected records a failed stock check. Terminal.
func (i *Item) MarkRejected() error {
	switch i.Status {
	case ItemStatusCreated, ItemStatusPrepareConfirmed:
		i.Status = ItemStatusRejected
		return nil
	default:
		return &InvariantError{ItemID: i.ID, Reason: fmt.Sprintf("reject in state %s", i.Status)}
	}
}

// InvariantError marks a workflow-ordering bug or an unhandled race: confirm
// called without a successful prepare-confirm, or stock lost between the two
// phases. It is deliberately distinct from the recoverable stock
// unavailability error — request handlers should treat it as a defect, not a
// business condition.
type InvariantError struct {
	ItemID string
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("order: invariant violated on item %s: %s", e.ItemID, e.Reason)
}

// IsInvariantViolation reports whether err is (or wraps) an InvariantError.
func IsInvariantViolation(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}
