package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const insertPayment = `
INSERT INTO payments (order_id, amount)
VALUES ($1, $2)
RETURNING id, order_id, amount, status, intent_id, created_at, updated_at
`

type InsertPaymentParams struct {
	OrderID uuid.UUID
	Amount  pgtype.Numeric
}

func (q *Queries) InsertPayment(c context.Context, arg InsertPaymentParams) (Payment, error) {
	row := q.db.QueryRow(c, insertPayment, arg.OrderID, arg.Amount)
	var i Payment
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.Amount,
		&i.Status,
		&i.IntentID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updatePaymentIntentId = `
UPDATE payments
SET intent_id = $2, updated_at = now()
WHERE id = $1
RETURNING id, order_id, amount, status, intent_id, created_at, updated_at
`

type UpdatePaymentIntentIdParams struct {
	ID       uuid.UUID
	IntentID string
}

func (q *Queries) UpdatePaymentIntentId(
	c context.Context,
	arg UpdatePaymentIntentIdParams,
) (Payment, error) {
	row := q.db.QueryRow(c, updatePaymentIntentId, arg.ID, arg.IntentID)
	var i Payment
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.Amount,
		&i.Status,
		&i.IntentID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const findPaymentByIdForUpdate = `
SELECT id, order_id, amount, status, intent_id, created_at, updated_at
FROM payments
WHERE id = $1
FOR UPDATE
`

// FindPaymentByIdForUpdate takes the exclusive row lock that
// linearizes webhook deliveries for one payment.
func (q *Queries) FindPaymentByIdForUpdate(c context.Context, id uuid.UUID) (Payment, error) {
	row := q.db.QueryRow(c, findPaymentByIdForUpdate, id)
	var i Payment
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.Amount,
		&i.Status,
		&i.IntentID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updatePaymentStatus = `
UPDATE payments
SET status = $2, intent_id = COALESCE(intent_id, $3), updated_at = now()
WHERE id = $1
RETURNING id, order_id, amount, status, intent_id, created_at, updated_at
`

type UpdatePaymentStatusParams struct {
	ID       uuid.UUID
	Status   PaymentStatus
	IntentID pgtype.Text
}

func (q *Queries) UpdatePaymentStatus(
	c context.Context,
	arg UpdatePaymentStatusParams,
) (Payment, error) {
	row := q.db.QueryRow(c, updatePaymentStatus, arg.ID, arg.Status, arg.IntentID)
	var i Payment
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.Amount,
		&i.Status,
		&i.IntentID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
