package processor

import (
	"context"
)

const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

const (
	MetadataOrderId   = "order_id"
	MetadataPaymentId = "payment_id"
	MetadataUserId    = "user_id"
)

// Intent is the processor-side handle for a charge. ClientSecret is
// returned to the client once and never persisted.
type Intent struct {
	ID           string
	ClientSecret string
}

// Event is an authenticated webhook notification. Metadata round-trips
// the values attached at intent creation; only payment_id is used to
// address local state.
type Event struct {
	ID       string
	Type     string
	IntentID string
	Metadata map[string]string
}

// Processor abstracts the external payment provider. CreateIntent
// charges in minor units; VerifyEvent authenticates a raw webhook
// payload against its signature header before any parsing of the body
// is trusted.
type Processor interface {
	CreateIntent(
		c context.Context,
		amount int64,
		currency string,
		metadata map[string]string,
	) (Intent, error)
	VerifyEvent(payload []byte, signatureHeader string) (Event, error)
}
