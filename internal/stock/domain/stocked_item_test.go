package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsNegativeLevel(t *testing.T) {
	_, err := New("sku-1", "blue shirt", -1)
	assert.ErrorIs(t, err, ErrNegativeLevel)
}

func TestIsAvailable(t *testing.T) {
	item, err := New("sku-1", "blue shirt", 5)
	require.NoError(t, err)

	ok, err := item.IsAvailable(5)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = item.IsAvailable(6)
	require.NoError(t, err)
	assert.False(t, ok)

	// Pure query: the level is untouched either way.
	assert.Equal(t, 5, item.Level)
}

func TestIsAvailable_InvalidQuantity(t *testing.T) {
	item := &StockedItem{ID: "sku-1", Level: 5}

	_, err := item.IsAvailable(0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = item.IsAvailable(-3)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestDecrement(t *testing.T) {
	item := &StockedItem{ID: "sku-1", Level: 5}

	require.NoError(t, item.Decrement(3))
	assert.Equal(t, 2, item.Level)
}

func TestDecrement_Insufficient(t *testing.T) {
	item := &StockedItem{ID: "sku-1", Label: "blue shirt", Level: 2}

	err := item.Decrement(3)
	require.Error(t, err)

	var unavailable *UnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, "sku-1", unavailable.ItemID)
	assert.Equal(t, 3, unavailable.Requested)
	assert.Equal(t, 2, unavailable.Available)

	// Failed decrement leaves the level unchanged.
	assert.Equal(t, 2, item.Level)
}

func TestIncrement(t *testing.T) {
	item := &StockedItem{ID: "sku-1", Level: 2}

	require.NoError(t, item.Increment(3))
	assert.Equal(t, 5, item.Level)

	assert.ErrorIs(t, item.Increment(0), ErrInvalidQuantity)
}

func TestIsUnavailable(t *testing.T) {
	err := &UnavailableError{ItemID: "sku-1", Requested: 3, Available: 2}
	assert.True(t, IsUnavailable(err))
	assert.True(t, IsUnavailable(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsUnavailable(ErrNotFound))
	assert.False(t, IsUnavailable(nil))
}
