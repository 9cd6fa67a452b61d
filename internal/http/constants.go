package http

const (
	HeaderContentType     = "Content-Type"
	HeaderValueJson       = "application/json"
	HeaderRequestId       = "X-Request-Id"
	HeaderStripeSignature = "Stripe-Signature"
)
