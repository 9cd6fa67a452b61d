package repository

import (
	"github.com/shopspring/decimal"

	cartResponse "github.com/Alturino/storefront/cart/pkg/response"
	orderResponse "github.com/Alturino/storefront/order/pkg/response"
	paymentResponse "github.com/Alturino/storefront/payment/pkg/response"
	productResponse "github.com/Alturino/storefront/product/pkg/response"
)

func (p Product) Response() productResponse.Product {
	return productResponse.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       DecimalFromNumeric(p.Price),
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt.Time,
		UpdatedAt:   p.UpdatedAt.Time,
	}
}

func (i CartItemWithProductRow) Response() cartResponse.CartItem {
	unitPrice := DecimalFromNumeric(i.Price)
	return cartResponse.CartItem{
		ID:          i.ID,
		ProductId:   i.ProductID,
		ProductName: i.ProductName,
		Quantity:    i.Quantity,
		UnitPrice:   unitPrice,
		TotalPrice:  unitPrice.Mul(decimal.NewFromInt32(i.Quantity)),
	}
}

func (c Cart) Response(items []CartItemWithProductRow) cartResponse.Cart {
	cartItems := []cartResponse.CartItem{}
	subtotal := decimal.Zero
	for _, item := range items {
		mapped := item.Response()
		subtotal = subtotal.Add(mapped.TotalPrice)
		cartItems = append(cartItems, mapped)
	}
	return cartResponse.Cart{
		ID:        c.ID,
		UserID:    c.UserID,
		CartItems: cartItems,
		Subtotal:  subtotal,
		CreatedAt: c.CreatedAt.Time,
	}
}

func (o Order) Response(items []OrderItem) orderResponse.Order {
	orderItems := []orderResponse.OrderItem{}
	for _, item := range items {
		orderItems = append(orderItems, orderResponse.OrderItem{
			ID:        item.ID,
			OrderId:   item.OrderID,
			ProductId: item.ProductID,
			Quantity:  item.Quantity,
			Price:     DecimalFromNumeric(item.Price),
		})
	}
	return orderResponse.Order{
		ID:         o.ID,
		UserId:     o.UserID,
		Status:     string(o.Status),
		TotalPrice: DecimalFromNumeric(o.TotalPrice),
		OrderItems: orderItems,
		CreatedAt:  o.CreatedAt.Time,
		UpdatedAt:  o.UpdatedAt.Time,
	}
}

func (p Payment) Response() paymentResponse.Payment {
	return paymentResponse.Payment{
		ID:        p.ID,
		OrderId:   p.OrderID,
		Amount:    DecimalFromNumeric(p.Amount),
		Status:    string(p.Status),
		IntentId:  p.IntentID.String,
		CreatedAt: p.CreatedAt.Time,
		UpdatedAt: p.UpdatedAt.Time,
	}
}
