package errors

import (
	"errors"
)

// Sentinel errors for the checkout pipeline. Controllers translate them
// into status codes via inHttp.WriteErrorResponse; services wrap them
// with fmt.Errorf("... with error=%w", ...) so errors.Is keeps working
// across layers.
var (
	ErrEmptyAuth    = errors.New("missing authorization")
	ErrEmptySubject = errors.New("missing subject")
	ErrTokenInvalid = errors.New("invalid token")

	ErrNotFound   = errors.New("resource not found")
	ErrForbidden  = errors.New("resource belongs to another user")
	ErrValidation = errors.New("invalid request")
	ErrEmptyCart  = errors.New("cart is empty")

	ErrIntentRejected  = errors.New("payment intent rejected by processor")
	ErrExternalService = errors.New("payment processor unavailable")
	ErrSignature       = errors.New("webhook signature verification failed")
)

// Kind is the machine-readable error discriminator carried on 4xx
// response bodies.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrEmptyAuth), errors.Is(err, ErrEmptySubject), errors.Is(err, ErrTokenInvalid):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrIntentRejected):
		return "payment_rejected"
	case errors.Is(err, ErrExternalService):
		return "external_service"
	case errors.Is(err, ErrSignature):
		return "invalid_signature"
	}
	return "internal"
}
