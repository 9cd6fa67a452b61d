package response

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem carries the unit price frozen at order-creation time. It is
// a distinct type from the cart line on purpose: frozen pricing is a
// structural guarantee, not a flag.
type OrderItem struct {
	ID        uuid.UUID       `json:"id"`
	OrderId   uuid.UUID       `json:"order_id"`
	ProductId uuid.UUID       `json:"product_id"`
	Quantity  int32           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type Order struct {
	ID         uuid.UUID       `json:"id"`
	UserId     uuid.UUID       `json:"user_id"`
	Status     string          `json:"status"`
	TotalPrice decimal.Decimal `json:"total_price"`
	OrderItems []OrderItem     `json:"order_items"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
