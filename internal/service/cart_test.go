package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartAddMergesLines(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(1, 2))
	require.NoError(t, c.Add(2, 1))
	require.NoError(t, c.Add(1, 3))

	assert.Equal(t, []CartLine{{ProductID: 1, Quantity: 5}, {ProductID: 2, Quantity: 1}}, c.Lines)
	assert.Equal(t, 6, c.Count())
}

func TestCartAddRejectsBadInput(t *testing.T) {
	var c Cart
	require.ErrorIs(t, c.Add(1, 0), ErrValidation)
	require.ErrorIs(t, c.Add(1, -3), ErrValidation)
	require.ErrorIs(t, c.Add(0, 1), ErrValidation)
	assert.True(t, c.IsEmpty())
}

func TestCartRemove(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(1, 1))
	c.Remove(42)
	assert.Equal(t, 1, c.Quantity(1))

	c.Remove(1)
	assert.True(t, c.IsEmpty())
}

func TestCartSetQuantity(t *testing.T) {
	var c Cart
	require.NoError(t, c.SetQuantity(7, 1))
	assert.Equal(t, 1, c.Quantity(7))

	require.NoError(t, c.SetQuantity(7, 1))
	assert.Equal(t, 2, c.Quantity(7))

	require.NoError(t, c.SetQuantity(7, -1))
	require.NoError(t, c.SetQuantity(7, -1))
	require.NoError(t, c.SetQuantity(7, -1))
	assert.Equal(t, 1, c.Quantity(7), "decrement floors at 1")
	assert.Len(t, c.Lines, 1)

	require.NoError(t, c.SetQuantity(99, -1))
	assert.Equal(t, 0, c.Quantity(99))

	require.ErrorIs(t, c.SetQuantity(7, 2), ErrValidation)
	require.ErrorIs(t, c.SetQuantity(7, 0), ErrValidation)
}

func TestSnapshotSkipsMissingProducts(t *testing.T) {
	r := newTestRepo(t)
	shirt := seedProduct(t, r, "Chemise", "19.90", nil)
	bag := seedProduct(t, r, "Sac", "5.05", nil)

	var c Cart
	require.NoError(t, c.Add(shirt.ID, 2))
	require.NoError(t, c.Add(999, 1))
	require.NoError(t, c.Add(bag.ID, 3))

	svc := &CartService{Repo: r}
	snap, err := svc.Snapshot(context.Background(), c)
	require.NoError(t, err)

	require.Len(t, snap.Lines, 2)
	assert.Equal(t, []uint{999}, snap.Missing)
	assert.Equal(t, "39.8", snap.Lines[0].Subtotal.String())
	assert.Equal(t, "15.15", snap.Lines[1].Subtotal.String())
	assert.Equal(t, "54.95", snap.Total.String())
}

func TestSnapshotOfEmptyCart(t *testing.T) {
	svc := &CartService{Repo: newTestRepo(t)}
	snap, err := svc.Snapshot(context.Background(), Cart{})
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())
	assert.True(t, snap.Total.IsZero())
}

func TestCartQuantityIsCapped(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(1, MaxLineQuantity-1))
	require.ErrorIs(t, c.Add(1, 2), ErrValidation)
	assert.Equal(t, MaxLineQuantity-1, c.Quantity(1))

	require.NoError(t, c.SetQuantity(1, 1))
	require.ErrorIs(t, c.SetQuantity(1, 1), ErrValidation)
	assert.Equal(t, MaxLineQuantity, c.Quantity(1))

	const huge = int(^uint(0) >> 1)
	require.ErrorIs(t, c.Add(2, huge), ErrValidation)
	require.NoError(t, c.Add(3, 1))
	require.ErrorIs(t, c.Add(3, huge), ErrValidation)
	assert.Equal(t, 1, c.Quantity(3))
	assert.Zero(t, c.Quantity(2))
}
