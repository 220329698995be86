package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/shopkit/internal/catalog/domain"
	"github.com/jcmexdev/shopkit/internal/pkg/cache"
	"github.com/jcmexdev/shopkit/internal/pkg/money"
	stockports "github.com/jcmexdev/shopkit/internal/stock/ports"
	"github.com/jcmexdev/shopkit/internal/storage/memory"
)

// countingRepo wraps the in-memory store and counts GetProduct calls so cache
// hits are observable.
type countingRepo struct {
	*memory.Store
	gets int
}

func (r *countingRepo) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	r.gets++
	return r.Store.GetProduct(ctx, id)
}

// fakeCache is an in-process cache.Cache for tests.
type fakeCache struct {
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, error) {
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return nil, cache.ErrCacheMiss
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func (c *fakeCache) GenerateKey(operation, key string) string {
	return "test:" + operation + ":" + key
}

func seedProduct(t *testing.T, repo *countingRepo, id string) {
	t.Helper()
	require.NoError(t, repo.Store.SaveProduct(context.Background(), &domain.Product{
		ID:        id,
		SKU:       "sku-" + id,
		Name:      id,
		UnitPrice: money.MustFromString("19.99"),
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}))
}

func TestNewService_RequiresRepository(t *testing.T) {
	_, err := NewService(nil, nil, nil)
	assert.ErrorIs(t, err, stockports.ErrMissingCapability)
}

func TestNewService_DefaultPolicy(t *testing.T) {
	svc, err := NewService(&countingRepo{Store: memory.NewStore()}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "EUR", svc.Policy().Currency())
	assert.True(t, svc.Policy().Taxes(money.MustFromString("10.00")).Equal(money.Zero))
}

func TestGetProduct_CacheAside(t *testing.T) {
	repo := &countingRepo{Store: memory.NewStore()}
	svc, err := NewService(repo, newFakeCache(), nil)
	require.NoError(t, err)

	ctx := context.Background()
	seedProduct(t, repo, "prod-1")

	first, err := svc.GetProduct(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.gets)

	// Second read is served from the cache.
	second, err := svc.GetProduct(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.gets)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.UnitPrice.Equal(first.UnitPrice))
}

func TestGetProduct_NilCacheGoesToRepository(t *testing.T) {
	repo := &countingRepo{Store: memory.NewStore()}
	svc, err := NewService(repo, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	seedProduct(t, repo, "prod-1")

	_, err = svc.GetProduct(ctx, "prod-1")
	require.NoError(t, err)
	_, err = svc.GetProduct(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.gets)
}

func TestGetProduct_NotFound(t *testing.T) {
	svc, err := NewService(&countingRepo{Store: memory.NewStore()}, newFakeCache(), nil)
	require.NoError(t, err)

	_, err = svc.GetProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestSaveProduct_RejectsNegativePrice(t *testing.T) {
	repo := &countingRepo{Store: memory.NewStore()}
	svc, err := NewService(repo, nil, nil)
	require.NoError(t, err)

	err = svc.SaveProduct(context.Background(), &domain.Product{
		ID:        "prod-1",
		SKU:       "sku-prod-1",
		Name:      "prod-1",
		UnitPrice: money.MustFromString("-1.00"),
		Active:    true,
		CreatedAt: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, money.ErrNegativePrice)

	_, err = repo.Store.GetProduct(context.Background(), "prod-1")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestSaveProduct_RejectsOversizedPrice(t *testing.T) {
	svc, err := NewService(&countingRepo{Store: memory.NewStore()}, nil, nil)
	require.NoError(t, err)

	// DECIMAL(12,2) allows at most 10 integer digits.
	err = svc.SaveProduct(context.Background(), &domain.Product{
		ID:        "prod-1",
		SKU:       "sku-prod-1",
		Name:      "prod-1",
		UnitPrice: money.MustFromString("12345678901.00"),
		Active:    true,
		CreatedAt: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, money.ErrTooManyDigits)
}

func TestSaveProduct_QuantizesPrice(t *testing.T) {
	repo := &countingRepo{Store: memory.NewStore()}
	svc, err := NewService(repo, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, svc.SaveProduct(ctx, &domain.Product{
		ID:        "prod-1",
		SKU:       "sku-prod-1",
		Name:      "prod-1",
		UnitPrice: money.MustFromString("19.995"),
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}))

	saved, err := repo.Store.GetProduct(ctx, "prod-1")
	require.NoError(t, err)
	assert.True(t, saved.UnitPrice.Equal(money.MustFromString("20.00")))
}

func TestVariations_SaveAndGet(t *testing.T) {
	repo := &countingRepo{Store: memory.NewStore()}
	svc, err := NewService(repo, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	seedProduct(t, repo, "prod-1")

	require.NoError(t, svc.SaveVariation(ctx, &domain.ProductVariation{
		ID:        "var-1",
		ProductID: "prod-1",
		Label:     "size M",
	}))

	v, err := svc.GetVariation(ctx, "var-1")
	require.NoError(t, err)
	assert.Equal(t, "prod-1", v.ProductID)
	assert.Equal(t, "size M", v.Label)

	_, err = svc.GetVariation(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrVariationNotFound)
}

func TestSaveVariation_RequiresParentProduct(t *testing.T) {
	svc, err := NewService(&countingRepo{Store: memory.NewStore()}, nil, nil)
	require.NoError(t, err)

	err = svc.SaveVariation(context.Background(), &domain.ProductVariation{
		ID:        "var-1",
		ProductID: "no-such-product",
		Label:     "size M",
	})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestSaveProduct_InvalidatesCache(t *testing.T) {
	repo := &countingRepo{Store: memory.NewStore()}
	svc, err := NewService(repo, newFakeCache(), nil)
	require.NoError(t, err)

	ctx := context.Background()
	seedProduct(t, repo, "prod-1")

	p, err := svc.GetProduct(ctx, "prod-1")
	require.NoError(t, err)
	require.Equal(t, 1, repo.gets)

	p.UnitPrice = money.MustFromString("29.99")
	require.NoError(t, svc.SaveProduct(ctx, p))

	// The stale entry is gone; the next read sees the new price.
	fresh, err := svc.GetProduct(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.gets)
	assert.True(t, fresh.UnitPrice.Equal(money.MustFromString("29.99")))
}
