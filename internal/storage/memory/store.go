// Package memory provides a mutex-guarded in-memory implementation of every
// shopkit port. It backs the unit tests and local development; production
// deployments use the sqlite adapter.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	cartdomain "github.com/jcmexdev/shopkit/internal/cart/domain"
	catalogdomain "github.com/jcmexdev/shopkit/internal/catalog/domain"
	orderdomain "github.com/jcmexdev/shopkit/internal/order/domain"
	stockdomain "github.com/jcmexdev/shopkit/internal/stock/domain"
)

// Store holds all entities in maps behind a single mutex. Operations are
// serialized, which also makes the conditional stock decrement atomic.
type Store struct {
	mu sync.Mutex

	products   map[string]*catalogdomain.Product
	variations map[string]*catalogdomain.ProductVariation
	stock      map[string]*stockdomain.StockedItem
	carts      map[string]*cartdomain.Cart
	bySession  map[string]string // session ID -> cart ID
	cartItems  map[string]*cartdomain.CartItem
	orders     map[string]*orderdomain.Order
}

func NewStore() *Store {
	return &Store{
		products:   make(map[string]*catalogdomain.Product),
		variations: make(map[string]*catalogdomain.ProductVariation),
		stock:      make(map[string]*stockdomain.StockedItem),
		carts:      make(map[string]*cartdomain.Cart),
		bySession:  make(map[string]string),
		cartItems:  make(map[string]*cartdomain.CartItem),
		orders:     make(map[string]*orderdomain.Order),
	}
}

// --- catalog ports.Repository ---

func (s *Store) GetProduct(_ context.Context, id string) (*catalogdomain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, catalogdomain.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) ListProducts(_ context.Context) ([]*catalogdomain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*catalogdomain.Product, 0, len(s.products))
	for _, p := range s.products {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

func (s *Store) SaveProduct(_ context.Context, p *catalogdomain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.products[p.ID] = &cp
	return nil
}

func (s *Store) GetVariation(_ context.Context, id string) (*catalogdomain.ProductVariation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.variations[id]
	if !ok {
		return nil, catalogdomain.ErrVariationNotFound
	}
	cv := *v
	return &cv, nil
}

func (s *Store) SaveVariation(_ context.Context, v *catalogdomain.ProductVariation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cv := *v
	s.variations[v.ID] = &cv
	return nil
}

// --- stock ports.Repository ---

func (s *Store) Get(_ context.Context, id string) (*stockdomain.StockedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getStocked(id)
}

func (s *Store) Save(_ context.Context, item *stockdomain.StockedItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *item
	s.stock[item.ID] = &cp
	return nil
}

func (s *Store) Decrement(_ context.Context, id string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.stock[id]
	if !ok {
		return stockdomain.ErrNotFound
	}
	return item.Decrement(quantity)
}

func (s *Store) Increment(_ context.Context, id string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.stock[id]
	if !ok {
		return stockdomain.ErrNotFound
	}
	return item.Increment(quantity)
}

// --- stock ports.Resolver ---

// ResolveStockedItem prefers a stock record kept for the variation and falls
// back to the product's own record.
func (s *Store) ResolveStockedItem(_ context.Context, productID, variationID string) (*stockdomain.StockedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if variationID != "" {
		if item, err := s.getStocked(variationID); err == nil {
			return item, nil
		}
	}
	return s.getStocked(productID)
}

// getStocked returns a snapshot copy so callers observe a consistent level.
func (s *Store) getStocked(id string) (*stockdomain.StockedItem, error) {
	item, ok := s.stock[id]
	if !ok {
		return nil, stockdomain.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

// --- cart ports.Repository ---

func (s *Store) GetBySession(_ context.Context, sessionID string) (*cartdomain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.bySession[sessionID]
	if !ok {
		return nil, cartdomain.ErrCartNotFound
	}
	cp := *s.carts[id]
	return &cp, nil
}

func (s *Store) SaveCart(_ context.Context, cart *cartdomain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *cart
	s.carts[cart.ID] = &cp
	s.bySession[cart.SessionID] = cart.ID
	return nil
}

func (s *Store) DeleteCart(_ context.Context, cartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cart, ok := s.carts[cartID]; ok {
		delete(s.bySession, cart.SessionID)
	}
	delete(s.carts, cartID)
	// Cart owns its items: cascade.
	for id, item := range s.cartItems {
		if item.CartID == cartID {
			delete(s.cartItems, id)
		}
	}
	return nil
}

func (s *Store) FindOrCreateItem(_ context.Context, cartID, productID, variationID string) (*cartdomain.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.cartItems {
		if item.CartID == cartID && item.ProductID == productID && item.VariationID == variationID {
			cp := *item
			return &cp, nil
		}
	}
	// Fresh zero-quantity instance; persisted only when SaveItem is called.
	return &cartdomain.CartItem{
		ID:          uuid.NewString(),
		CartID:      cartID,
		ProductID:   productID,
		VariationID: variationID,
		Quantity:    0,
		AddedAt:     time.Now().UTC(),
	}, nil
}

func (s *Store) SaveItem(_ context.Context, item *cartdomain.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *item
	s.cartItems[item.ID] = &cp
	return nil
}

func (s *Store) DeleteItem(_ context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cartItems[itemID]; !ok {
		return cartdomain.ErrItemNotFound
	}
	delete(s.cartItems, itemID)
	return nil
}

func (s *Store) ListItems(_ context.Context, cartID string) ([]*cartdomain.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*cartdomain.CartItem
	for _, item := range s.cartItems {
		if item.CartID == cartID {
			cp := *item
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedAt.Before(out[j].AddedAt) })
	return out, nil
}

// --- order ports.Repository ---

func (s *Store) SaveOrder(_ context.Context, order *orderdomain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *order
	cp.Items = make([]*orderdomain.Item, len(order.Items))
	for i, item := range order.Items {
		ci := *item
		cp.Items[i] = &ci
	}
	s.orders[order.ID] = &cp
	return nil
}

func (s *Store) GetOrder(_ context.Context, id string) (*orderdomain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, orderdomain.ErrOrderNotFound
	}
	cp := *order
	cp.Items = make([]*orderdomain.Item, len(order.Items))
	for i, item := range order.Items {
		ci := *item
		cp.Items[i] = &ci
	}
	return &cp, nil
}

func (s *Store) SaveOrderItem(_ context.Context, item *orderdomain.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[item.OrderID]
	if !ok {
		return orderdomain.ErrOrderNotFound
	}
	for i, existing := range order.Items {
		if existing.ID == item.ID {
			ci := *item
			order.Items[i] = &ci
			return nil
		}
	}
	ci := *item
	order.Items = append(order.Items, &ci)
	return nil
}
