package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartdomain "github.com/jcmexdev/shopkit/internal/cart/domain"
	catalogdomain "github.com/jcmexdev/shopkit/internal/catalog/domain"
	orderdomain "github.com/jcmexdev/shopkit/internal/order/domain"
	"github.com/jcmexdev/shopkit/internal/pkg/money"
	stockdomain "github.com/jcmexdev/shopkit/internal/stock/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestProduct_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := &catalogdomain.Product{
		ID:        "prod-1",
		SKU:       "SHIRT-BLUE",
		Name:      "blue shirt",
		UnitPrice: money.MustFromString("19.99"),
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.SaveProduct(ctx, p))

	got, err := store.GetProduct(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, "SHIRT-BLUE", got.SKU)
	assert.True(t, got.UnitPrice.Equal(money.MustFromString("19.99")))
	assert.True(t, got.Active)

	_, err = store.GetProduct(ctx, "missing")
	assert.ErrorIs(t, err, catalogdomain.ErrProductNotFound)
}

func TestListProducts_OrderedBySKU(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, sku := range []string{"C", "A", "B"} {
		require.NoError(t, store.SaveProduct(ctx, &catalogdomain.Product{
			ID:        "prod-" + sku,
			SKU:       sku,
			Name:      sku,
			UnitPrice: money.MustFromString("1.00"),
			Active:    true,
			CreatedAt: time.Now().UTC(),
		}))
	}

	products, err := store.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "A", products[0].SKU)
	assert.Equal(t, "B", products[1].SKU)
	assert.Equal(t, "C", products[2].SKU)
}

func TestVariation_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveProduct(ctx, &catalogdomain.Product{
		ID:        "prod-1",
		SKU:       "SHIRT",
		Name:      "shirt",
		UnitPrice: money.MustFromString("19.99"),
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}))
	require.NoError(t, store.SaveVariation(ctx, &catalogdomain.ProductVariation{
		ID:        "var-1",
		ProductID: "prod-1",
		Label:     "size M",
	}))

	v, err := store.GetVariation(ctx, "var-1")
	require.NoError(t, err)
	assert.Equal(t, "prod-1", v.ProductID)
	assert.Equal(t, "size M", v.Label)

	_, err = store.GetVariation(ctx, "missing")
	assert.ErrorIs(t, err, catalogdomain.ErrVariationNotFound)
}

func TestDecrement_Conditional(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &stockdomain.StockedItem{ID: "prod-1", Label: "blue shirt", Level: 5}))

	require.NoError(t, store.Decrement(ctx, "prod-1", 3))

	item, err := store.Get(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 2, item.Level)

	// The guard rejects the decrement and reports the current level.
	err = store.Decrement(ctx, "prod-1", 3)
	require.True(t, stockdomain.IsUnavailable(err))

	var unavailable *stockdomain.UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, 3, unavailable.Requested)
	assert.Equal(t, 2, unavailable.Available)

	item, err = store.Get(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 2, item.Level)
}

func TestDecrement_MissingItem(t *testing.T) {
	store := newTestStore(t)
	err := store.Decrement(context.Background(), "missing", 1)
	assert.ErrorIs(t, err, stockdomain.ErrNotFound)
}

func TestIncrement_RestoresLevel(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &stockdomain.StockedItem{ID: "prod-1", Level: 2}))

	require.NoError(t, store.Increment(ctx, "prod-1", 3))

	item, err := store.Get(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 5, item.Level)

	assert.ErrorIs(t, store.Increment(ctx, "missing", 1), stockdomain.ErrNotFound)
}

func TestCartItems_FindSaveDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	cart := &cartdomain.Cart{ID: "cart-1", SessionID: "session-1", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.SaveCart(ctx, cart))

	item, err := store.FindOrCreateItem(ctx, "cart-1", "prod-1", "")
	require.NoError(t, err)
	assert.Equal(t, 0, item.Quantity)

	// Fresh lines stay unpersisted until saved.
	lines, err := store.ListItems(ctx, "cart-1")
	require.NoError(t, err)
	assert.Empty(t, lines)

	item.Quantity = 3
	require.NoError(t, store.SaveItem(ctx, item))

	found, err := store.FindOrCreateItem(ctx, "cart-1", "prod-1", "")
	require.NoError(t, err)
	assert.Equal(t, item.ID, found.ID)
	assert.Equal(t, 3, found.Quantity)

	require.NoError(t, store.DeleteItem(ctx, item.ID))
	assert.ErrorIs(t, store.DeleteItem(ctx, item.ID), cartdomain.ErrItemNotFound)
}

func TestDeleteCart_CascadesItems(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, store.SaveCart(ctx, &cartdomain.Cart{ID: "cart-1", SessionID: "session-1", CreatedAt: now, UpdatedAt: now}))

	item, err := store.FindOrCreateItem(ctx, "cart-1", "prod-1", "")
	require.NoError(t, err)
	item.Quantity = 1
	require.NoError(t, store.SaveItem(ctx, item))

	require.NoError(t, store.DeleteCart(ctx, "cart-1"))

	_, err = store.GetBySession(ctx, "session-1")
	assert.ErrorIs(t, err, cartdomain.ErrCartNotFound)

	lines, err := store.ListItems(ctx, "cart-1")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestOrder_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	order := &orderdomain.Order{
		ID:        "order-1",
		CartID:    "cart-1",
		Status:    orderdomain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
		Items: []*orderdomain.Item{
			{
				ID:        "item-1",
				OrderID:   "order-1",
				ProductID: "prod-1",
				Quantity:  3,
				UnitPrice: money.MustFromString("19.99"),
				Status:    orderdomain.ItemStatusCreated,
			},
		},
	}
	require.NoError(t, store.SaveOrder(ctx, order))

	got, err := store.GetOrder(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusPending, got.Status)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].UnitPrice.Equal(money.MustFromString("19.99")))
	assert.True(t, got.Total().Equal(money.MustFromString("59.97")))

	// Item-level status updates land without touching the header.
	got.Items[0].Status = orderdomain.ItemStatusConfirmed
	require.NoError(t, store.SaveOrderItem(ctx, got.Items[0]))

	again, err := store.GetOrder(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, orderdomain.ItemStatusConfirmed, again.Items[0].Status)

	_, err = store.GetOrder(ctx, "missing")
	assert.ErrorIs(t, err, orderdomain.ErrOrderNotFound)
}
