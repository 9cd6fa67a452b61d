package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const insertOrder = `
INSERT INTO orders (user_id, total_price)
VALUES ($1, $2)
RETURNING id, user_id, status, total_price, created_at, updated_at
`

type InsertOrderParams struct {
	UserID     uuid.UUID
	TotalPrice pgtype.Numeric
}

func (q *Queries) InsertOrder(c context.Context, arg InsertOrderParams) (Order, error) {
	row := q.db.QueryRow(c, insertOrder, arg.UserID, arg.TotalPrice)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Status,
		&i.TotalPrice,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const insertOrderItem = `
INSERT INTO order_items (order_id, product_id, quantity, price)
VALUES ($1, $2, $3, $4)
RETURNING id, order_id, product_id, quantity, price
`

type InsertOrderItemParams struct {
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int32
	Price     pgtype.Numeric
}

func (q *Queries) InsertOrderItem(c context.Context, arg InsertOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(c, insertOrderItem, arg.OrderID, arg.ProductID, arg.Quantity, arg.Price)
	var i OrderItem
	err := row.Scan(&i.ID, &i.OrderID, &i.ProductID, &i.Quantity, &i.Price)
	return i, err
}

const findOrderByIdAndUserId = `
SELECT id, user_id, status, total_price, created_at, updated_at
FROM orders
WHERE id = $1 AND user_id = $2
`

type FindOrderByIdAndUserIdParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) FindOrderByIdAndUserId(
	c context.Context,
	arg FindOrderByIdAndUserIdParams,
) (Order, error) {
	row := q.db.QueryRow(c, findOrderByIdAndUserId, arg.ID, arg.UserID)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Status,
		&i.TotalPrice,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const findOrderForUpdate = `
SELECT id, user_id, status, total_price, created_at, updated_at
FROM orders
WHERE id = $1 AND user_id = $2
FOR UPDATE
`

type FindOrderForUpdateParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) FindOrderForUpdate(
	c context.Context,
	arg FindOrderForUpdateParams,
) (Order, error) {
	row := q.db.QueryRow(c, findOrderForUpdate, arg.ID, arg.UserID)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Status,
		&i.TotalPrice,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const findOrderById = `
SELECT id, user_id, status, total_price, created_at, updated_at
FROM orders
WHERE id = $1
FOR UPDATE
`

// FindOrderByIdForUpdate is the webhook-side lookup; it is not scoped
// to a user because the caller is the payment processor.
func (q *Queries) FindOrderByIdForUpdate(c context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(c, findOrderById, id)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Status,
		&i.TotalPrice,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const findOrdersByUserId = `
SELECT id, user_id, status, total_price, created_at, updated_at
FROM orders
WHERE user_id = $1
ORDER BY created_at DESC
`

func (q *Queries) FindOrdersByUserId(c context.Context, userID uuid.UUID) ([]Order, error) {
	rows, err := q.db.Query(c, findOrdersByUserId, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		var i Order
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.Status,
			&i.TotalPrice,
			&i.CreatedAt,
			&i.UpdatedAt,
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

const findOrderItemsByOrderId = `
SELECT id, order_id, product_id, quantity, price
FROM order_items
WHERE order_id = $1
`

func (q *Queries) FindOrderItemsByOrderId(
	c context.Context,
	orderID uuid.UUID,
) ([]OrderItem, error) {
	rows, err := q.db.Query(c, findOrderItemsByOrderId, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []OrderItem{}
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(&i.ID, &i.OrderID, &i.ProductID, &i.Quantity, &i.Price); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateOrderStatus = `
UPDATE orders
SET status = $2, updated_at = now()
WHERE id = $1
RETURNING id, user_id, status, total_price, created_at, updated_at
`

type UpdateOrderStatusParams struct {
	ID     uuid.UUID
	Status OrderStatus
}

func (q *Queries) UpdateOrderStatus(c context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(c, updateOrderStatus, arg.ID, arg.Status)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Status,
		&i.TotalPrice,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
