package response

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentIntent struct {
	ClientSecret string    `json:"client_secret"`
	PaymentId    uuid.UUID `json:"payment_id"`
	OrderId      uuid.UUID `json:"order_id"`
}

type Payment struct {
	ID        uuid.UUID       `json:"id"`
	OrderId   uuid.UUID       `json:"order_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	IntentId  string          `json:"intent_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
