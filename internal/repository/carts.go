package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const upsertCart = `
INSERT INTO carts (user_id)
VALUES ($1)
ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
RETURNING id, user_id, created_at
`

// UpsertCart returns the user's single cart, creating it when absent.
// The unique index on user_id makes concurrent first-access safe.
func (q *Queries) UpsertCart(c context.Context, userID uuid.UUID) (Cart, error) {
	row := q.db.QueryRow(c, upsertCart, userID)
	var i Cart
	err := row.Scan(&i.ID, &i.UserID, &i.CreatedAt)
	return i, err
}

const findCartById = `
SELECT id, user_id, created_at
FROM carts
WHERE id = $1
`

func (q *Queries) FindCartById(c context.Context, id uuid.UUID) (Cart, error) {
	row := q.db.QueryRow(c, findCartById, id)
	var i Cart
	err := row.Scan(&i.ID, &i.UserID, &i.CreatedAt)
	return i, err
}

const findCartByUserId = `
SELECT id, user_id, created_at
FROM carts
WHERE user_id = $1
`

func (q *Queries) FindCartByUserId(c context.Context, userID uuid.UUID) (Cart, error) {
	row := q.db.QueryRow(c, findCartByUserId, userID)
	var i Cart
	err := row.Scan(&i.ID, &i.UserID, &i.CreatedAt)
	return i, err
}

const findCartItemForUpdate = `
SELECT id, cart_id, product_id, quantity, added_at
FROM cart_items
WHERE cart_id = $1 AND product_id = $2
FOR UPDATE
`

type FindCartItemForUpdateParams struct {
	CartID    uuid.UUID
	ProductID uuid.UUID
}

// FindCartItemForUpdate locks the (cart, product) line so concurrent
// adds of the same product serialize into one deterministic merge.
func (q *Queries) FindCartItemForUpdate(
	c context.Context,
	arg FindCartItemForUpdateParams,
) (CartItem, error) {
	row := q.db.QueryRow(c, findCartItemForUpdate, arg.CartID, arg.ProductID)
	var i CartItem
	err := row.Scan(&i.ID, &i.CartID, &i.ProductID, &i.Quantity, &i.AddedAt)
	return i, err
}

const findCartItemById = `
SELECT id, cart_id, product_id, quantity, added_at
FROM cart_items
WHERE id = $1
`

func (q *Queries) FindCartItemById(c context.Context, id uuid.UUID) (CartItem, error) {
	row := q.db.QueryRow(c, findCartItemById, id)
	var i CartItem
	err := row.Scan(&i.ID, &i.CartID, &i.ProductID, &i.Quantity, &i.AddedAt)
	return i, err
}

const insertCartItem = `
INSERT INTO cart_items (cart_id, product_id, quantity)
VALUES ($1, $2, $3)
RETURNING id, cart_id, product_id, quantity, added_at
`

type InsertCartItemParams struct {
	CartID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int32
}

func (q *Queries) InsertCartItem(c context.Context, arg InsertCartItemParams) (CartItem, error) {
	row := q.db.QueryRow(c, insertCartItem, arg.CartID, arg.ProductID, arg.Quantity)
	var i CartItem
	err := row.Scan(&i.ID, &i.CartID, &i.ProductID, &i.Quantity, &i.AddedAt)
	return i, err
}

const updateCartItemQuantity = `
UPDATE cart_items
SET quantity = $2
WHERE id = $1
RETURNING id, cart_id, product_id, quantity, added_at
`

type UpdateCartItemQuantityParams struct {
	ID       uuid.UUID
	Quantity int32
}

func (q *Queries) UpdateCartItemQuantity(
	c context.Context,
	arg UpdateCartItemQuantityParams,
) (CartItem, error) {
	row := q.db.QueryRow(c, updateCartItemQuantity, arg.ID, arg.Quantity)
	var i CartItem
	err := row.Scan(&i.ID, &i.CartID, &i.ProductID, &i.Quantity, &i.AddedAt)
	return i, err
}

const deleteCartItem = `
DELETE FROM cart_items
WHERE id = $1
`

func (q *Queries) DeleteCartItem(c context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(c, deleteCartItem, id)
	return err
}

const deleteCartItemsByCartId = `
DELETE FROM cart_items
WHERE cart_id = $1
`

func (q *Queries) DeleteCartItemsByCartId(c context.Context, cartID uuid.UUID) error {
	_, err := q.db.Exec(c, deleteCartItemsByCartId, cartID)
	return err
}

const findCartItemsWithProduct = `
SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.added_at, p.name, p.price
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
WHERE ci.cart_id = $1
ORDER BY ci.added_at
`

type CartItemWithProductRow struct {
	ID          uuid.UUID
	CartID      uuid.UUID
	ProductID   uuid.UUID
	Quantity    int32
	AddedAt     pgtype.Timestamptz
	ProductName string
	Price       pgtype.Numeric
}

// FindCartItemsWithProduct resolves every line against the current
// catalog price. Line and cart totals are derived from this read and
// are never persisted on the row.
func (q *Queries) FindCartItemsWithProduct(
	c context.Context,
	cartID uuid.UUID,
) ([]CartItemWithProductRow, error) {
	return q.queryCartItemsWithProduct(c, findCartItemsWithProduct, cartID)
}

const findCartItemsWithProductForUpdate = `
SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.added_at, p.name, p.price
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
WHERE ci.cart_id = $1
ORDER BY ci.added_at
FOR UPDATE OF ci
`

// FindCartItemsWithProductForUpdate locks the cart lines for the
// duration of order placement so a concurrent add cannot slip between
// price capture and line clearing.
func (q *Queries) FindCartItemsWithProductForUpdate(
	c context.Context,
	cartID uuid.UUID,
) ([]CartItemWithProductRow, error) {
	return q.queryCartItemsWithProduct(c, findCartItemsWithProductForUpdate, cartID)
}

func (q *Queries) queryCartItemsWithProduct(
	c context.Context,
	query string,
	cartID uuid.UUID,
) ([]CartItemWithProductRow, error) {
	rows, err := q.db.Query(c, query, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []CartItemWithProductRow{}
	for rows.Next() {
		var i CartItemWithProductRow
		if err := rows.Scan(
			&i.ID,
			&i.CartID,
			&i.ProductID,
			&i.Quantity,
			&i.AddedAt,
			&i.ProductName,
			&i.Price,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
