package request

import (
	"github.com/shopspring/decimal"
)

type Product struct {
	Name        string          `validate:"required"       json:"name"`
	Description string          `                          json:"description"`
	Price       decimal.Decimal `validate:"required"       json:"price"`
	Stock       int32           `validate:"gte=0"          json:"stock"`
}
