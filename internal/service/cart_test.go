package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddToCartMergesQuantity(t *testing.T) {
	t.Parallel()
	svc := &CartService{Repo: newTestRepo(t)}
	p := seedProduct(t, svc.Repo, "keyboard", 10.00, 5)
	ctx := context.Background()

	item, err := svc.AddToCart(ctx, 1, p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(2), item.Quantity)

	item, err = svc.AddToCart(ctx, 1, p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, uint(5), item.Quantity)

	cart, err := svc.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, cart, 1)
}

func TestAddToCartValidation(t *testing.T) {
	t.Parallel()
	svc := &CartService{Repo: newTestRepo(t)}
	p := seedProduct(t, svc.Repo, "keyboard", 10.00, 2)
	ctx := context.Background()

	tests := []struct {
		name      string
		productID uint
		quantity  uint
		wantErr   error
	}{
		{"missing product id", 0, 1, ErrValidation},
		{"zero quantity", p.ID, 0, ErrValidation},
		{"unknown product", p.ID + 100, 1, ErrNotFound},
		{"over stock", p.ID, 3, ErrInsufficientStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddToCart(ctx, 1, tt.productID, tt.quantity)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAddToCartStockCoversExistingLine(t *testing.T) {
	t.Parallel()
	svc := &CartService{Repo: newTestRepo(t)}
	p := seedProduct(t, svc.Repo, "keyboard", 10.00, 3)
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, 1, p.ID, 2)
	require.NoError(t, err)

	// 2 in cart + 2 requested > 3 in stock.
	_, err = svc.AddToCart(ctx, 1, p.ID, 2)
	require.ErrorIs(t, err, ErrInsufficientStock)

	_, err = svc.AddToCart(ctx, 1, p.ID, 1)
	require.NoError(t, err)
}

func TestDecreaseQuantityRemovesLineAtZero(t *testing.T) {
	t.Parallel()
	svc := &CartService{Repo: newTestRepo(t)}
	p := seedProduct(t, svc.Repo, "keyboard", 10.00, 5)
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, 1, p.ID, 2)
	require.NoError(t, err)

	deleted, item, err := svc.DecreaseQuantity(ctx, 1, p.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, uint(1), item.Quantity)

	deleted, _, err = svc.DecreaseQuantity(ctx, 1, p.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	cart, err := svc.GetCart(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, cart)

	_, _, err = svc.DecreaseQuantity(ctx, 1, p.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateQuantity(t *testing.T) {
	t.Parallel()
	svc := &CartService{Repo: newTestRepo(t)}
	p := seedProduct(t, svc.Repo, "keyboard", 10.00, 5)
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, 1, p.ID, 1)
	require.NoError(t, err)

	item, err := svc.UpdateQuantity(ctx, 1, p.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, uint(4), item.Quantity)

	_, err = svc.UpdateQuantity(ctx, 1, p.ID, 6)
	require.ErrorIs(t, err, ErrInsufficientStock)

	// Zero removes the line.
	item, err = svc.UpdateQuantity(ctx, 1, p.ID, 0)
	require.NoError(t, err)
	assert.Nil(t, item)

	cart, err := svc.GetCart(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, cart)
}

func TestRemoveAndClear(t *testing.T) {
	t.Parallel()
	svc := &CartService{Repo: newTestRepo(t)}
	a := seedProduct(t, svc.Repo, "keyboard", 10.00, 5)
	b := seedProduct(t, svc.Repo, "mousepad", 5.00, 5)
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, 1, a.ID, 1)
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, 1, b.ID, 1)
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, 1, a.ID))
	require.ErrorIs(t, svc.Remove(ctx, 1, a.ID), ErrNotFound)

	require.NoError(t, svc.Clear(ctx, 1))
	cart, err := svc.GetCart(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, cart)
}
