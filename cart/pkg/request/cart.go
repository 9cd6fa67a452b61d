package request

import (
	"github.com/google/uuid"
)

type AddItem struct {
	ProductId uuid.UUID `validate:"required"       json:"product_id"`
	Quantity  int32     `validate:"required,gte=1" json:"quantity"`
}

// UpdateItem sets an absolute quantity; zero removes the line.
type UpdateItem struct {
	Quantity int32 `validate:"gte=0" json:"quantity"`
}
