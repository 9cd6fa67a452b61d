package request

import (
	"github.com/google/uuid"
)

type CreatePaymentIntent struct {
	OrderId uuid.UUID `validate:"required" json:"order_id"`
}
