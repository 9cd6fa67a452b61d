package request

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAddItemValidation(t *testing.T) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	tests := []struct {
		name      string
		req       AddItem
		expectErr bool
	}{
		{
			name:      "given product and positive quantity should pass",
			req:       AddItem{ProductId: uuid.New(), Quantity: 1},
			expectErr: false,
		},
		{
			name:      "given zero quantity should fail",
			req:       AddItem{ProductId: uuid.New(), Quantity: 0},
			expectErr: true,
		},
		{
			name:      "given negative quantity should fail",
			req:       AddItem{ProductId: uuid.New(), Quantity: -3},
			expectErr: true,
		},
		{
			name:      "given missing product should fail",
			req:       AddItem{Quantity: 1},
			expectErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := validate.StructCtx(context.Background(), test.req)
			if test.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestUpdateItemValidation(t *testing.T) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	assert.NoError(t, validate.StructCtx(context.Background(), UpdateItem{Quantity: 0}))
	assert.NoError(t, validate.StructCtx(context.Background(), UpdateItem{Quantity: 10}))
	assert.Error(t, validate.StructCtx(context.Background(), UpdateItem{Quantity: -1}))
}
