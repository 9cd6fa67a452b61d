package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inErrors "github.com/Alturino/storefront/internal/errors"
)

func TestPlaceOrder(t *testing.T) {
	c := context.Background()
	pool, pgContainer, queries, service := setup(t)(c)
	defer teardown(t)(pool, pgContainer)

	userId := uuid.New()
	addCartItem(t, c, queries, userId, laptopId, 2)
	cart := addCartItem(t, c, queries, userId, mouseId, 3)

	order, err := service.PlaceOrder(c, userId)
	require.NoError(t, err)
	assert.Equal(t, userId, order.UserId)
	assert.Equal(t, "PENDING", order.Status)
	assert.True(
		t,
		decimal.RequireFromString("350.00").Equal(order.TotalPrice),
		"total is 2*100.00 + 3*50.00",
	)
	require.Len(t, order.OrderItems, 2)

	items, err := queries.FindCartItemsWithProduct(c, cart.ID)
	require.NoError(t, err)
	assert.Empty(t, items, "placing an order clears the cart lines")
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	c := context.Background()
	pool, pgContainer, _, service := setup(t)(c)
	defer teardown(t)(pool, pgContainer)

	_, err := service.PlaceOrder(c, uuid.New())
	assert.ErrorIs(t, err, inErrors.ErrEmptyCart)
}

func TestPlaceOrderFreezesPrices(t *testing.T) {
	c := context.Background()
	pool, pgContainer, queries, service := setup(t)(c)
	defer teardown(t)(pool, pgContainer)

	userId := uuid.New()
	addCartItem(t, c, queries, userId, laptopId, 1)

	order, err := service.PlaceOrder(c, userId)
	require.NoError(t, err)

	_, err = pool.Exec(c, "UPDATE products SET price = 999.99 WHERE id = $1", laptopId)
	require.NoError(t, err)

	found, err := service.FindOrderById(c, userId, order.ID)
	require.NoError(t, err)
	require.Len(t, found.OrderItems, 1)
	assert.True(
		t,
		decimal.RequireFromString("100.00").Equal(found.OrderItems[0].Price),
		"order lines keep the price captured at placement",
	)
	assert.True(t, decimal.RequireFromString("100.00").Equal(found.TotalPrice))
}

func TestFindOrderById(t *testing.T) {
	c := context.Background()
	pool, pgContainer, queries, service := setup(t)(c)
	defer teardown(t)(pool, pgContainer)

	ownerId := uuid.New()
	otherId := uuid.New()
	addCartItem(t, c, queries, ownerId, mouseId, 1)

	order, err := service.PlaceOrder(c, ownerId)
	require.NoError(t, err)

	found, err := service.FindOrderById(c, ownerId, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	_, err = service.FindOrderById(c, otherId, order.ID)
	assert.ErrorIs(t, err, inErrors.ErrNotFound, "foreign orders are indistinguishable from missing ones")

	_, err = service.FindOrderById(c, ownerId, uuid.New())
	assert.ErrorIs(t, err, inErrors.ErrNotFound)
}

func TestFindOrders(t *testing.T) {
	c := context.Background()
	pool, pgContainer, queries, service := setup(t)(c)
	defer teardown(t)(pool, pgContainer)

	userId := uuid.New()

	orders, err := service.FindOrders(c, userId)
	require.NoError(t, err)
	assert.Empty(t, orders)

	addCartItem(t, c, queries, userId, laptopId, 1)
	first, err := service.PlaceOrder(c, userId)
	require.NoError(t, err)

	addCartItem(t, c, queries, userId, mouseId, 2)
	second, err := service.PlaceOrder(c, userId)
	require.NoError(t, err)

	orders, err = service.FindOrders(c, userId)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID, "history is newest first")
	assert.Equal(t, first.ID, orders[1].ID)

	foreign, err := service.FindOrders(c, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, foreign)
}
