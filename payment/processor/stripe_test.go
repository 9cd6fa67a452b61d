package processor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/internal/config"
	inErrors "github.com/Alturino/storefront/internal/errors"
)

func newTestProcessor(baseUrl string) *StripeProcessor {
	return NewStripeProcessor(config.Stripe{
		SecretKey:       "sk_test",
		WebhookSecret:   "whsec_test",
		BaseUrl:         baseUrl,
		Currency:        "usd",
		TimeoutSecond:   5,
		ToleranceSecond: 300,
	})
}

func TestCreateIntent(t *testing.T) {
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		expectedErr error
		expectedId  string
	}{
		{
			name: "given accepted intent should return id and client secret",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/v1/payment_intents", r.URL.Path)
				assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
				require.NoError(t, r.ParseForm())
				assert.Equal(t, "10000", r.PostFormValue("amount"))
				assert.Equal(t, "usd", r.PostFormValue("currency"))
				assert.Equal(t, "pay_1", r.PostFormValue("metadata[payment_id]"))
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`{"id":"pi_123","client_secret":"pi_123_secret"}`))
			},
			expectedErr: nil,
			expectedId:  "pi_123",
		},
		{
			name: "given card decline should report rejection",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusPaymentRequired)
				w.Write([]byte(`{"error":{"type":"card_error","code":"card_declined","message":"declined"}}`))
			},
			expectedErr: inErrors.ErrIntentRejected,
		},
		{
			name: "given invalid request error should report rejection",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"bad param"}}`))
			},
			expectedErr: inErrors.ErrIntentRejected,
		},
		{
			name: "given processor outage should report external service error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":{"type":"api_error","message":"boom"}}`))
			},
			expectedErr: inErrors.ErrExternalService,
		},
		{
			name: "given success response without id should report external service error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`{}`))
			},
			expectedErr: inErrors.ErrExternalService,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			server := httptest.NewServer(test.handler)
			defer server.Close()

			proc := newTestProcessor(server.URL)
			intent, err := proc.CreateIntent(context.Background(), 10000, "usd", map[string]string{
				MetadataOrderId:   "ord_1",
				MetadataPaymentId: "pay_1",
				MetadataUserId:    "usr_1",
			})
			if test.expectedErr != nil {
				assert.ErrorIs(t, err, test.expectedErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, test.expectedId, intent.ID)
			assert.NotEmpty(t, intent.ClientSecret)
		})
	}
}

func TestVerifyEvent(t *testing.T) {
	proc := newTestProcessor("https://api.stripe.com")
	payload := []byte(
		`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_123","metadata":{"order_id":"ord_1","payment_id":"pay_1","user_id":"usr_1"}}}}`,
	)
	header := SignatureHeader("whsec_test", time.Now().Unix(), payload)

	event, err := proc.VerifyEvent(payload, header)
	assert.NoError(t, err)
	assert.Equal(t, EventPaymentSucceeded, event.Type)
	assert.Equal(t, "pi_123", event.IntentID)
	assert.Equal(t, "pay_1", event.Metadata[MetadataPaymentId])

	_, err = proc.VerifyEvent([]byte(`{"tampered":true}`), header)
	assert.ErrorIs(t, err, inErrors.ErrSignature)

	_, err = proc.VerifyEvent(payload, "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, inErrors.ErrSignature)
}

func TestVerifyEventMalformedPayload(t *testing.T) {
	proc := newTestProcessor("https://api.stripe.com")
	payload := []byte(`{not json`)
	header := SignatureHeader("whsec_test", time.Now().Unix(), payload)

	_, err := proc.VerifyEvent(payload, header)
	assert.ErrorIs(t, err, inErrors.ErrValidation)
}
