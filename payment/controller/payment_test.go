package controller

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/internal/config"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/repository"
	"github.com/Alturino/storefront/payment/processor"
	"github.com/Alturino/storefront/payment/service"
)

const webhookSecret = "whsec_test"

func newWebhookServer(t *testing.T) (*httptest.Server, pgxmock.PgxPoolIface) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	cfg := config.Stripe{
		SecretKey:       "sk_test",
		WebhookSecret:   webhookSecret,
		BaseUrl:         "https://api.stripe.com",
		Currency:        "usd",
		TimeoutSecond:   5,
		ToleranceSecond: 300,
	}
	stripe := processor.NewStripeProcessor(cfg)
	payments := service.NewPaymentService(mock, repository.New(mock), stripe, cfg)

	router := mux.NewRouter()
	AttachPaymentController(router, router, payments, stripe)
	return httptest.NewServer(router), mock
}

func succeededPayload(orderId uuid.UUID, paymentId uuid.UUID) []byte {
	return fmt.Appendf(nil,
		`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_123","metadata":{"order_id":%q,"payment_id":%q,"user_id":%q}}}}`,
		orderId, paymentId, uuid.New(),
	)
}

func postWebhook(t *testing.T, url string, payload []byte, header string) *http.Response {
	req, err := http.NewRequest(http.MethodPost, url+"/orders/stripe-webhook", bytes.NewReader(payload))
	require.NoError(t, err)
	if header != "" {
		req.Header.Set(inHttp.HeaderStripeSignature, header)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestStripeWebhook(t *testing.T) {
	orderId := uuid.New()
	paymentId := uuid.New()
	total := repository.NumericFromDecimal(decimal.RequireFromString("100.00"))
	now := pgtype.Timestamptz{Time: time.Now(), Valid: true}
	intentId := pgtype.Text{String: "pi_123", Valid: true}

	t.Run("given signed succeeded event should reconcile and return 200", func(t *testing.T) {
		server, mock := newWebhookServer(t)
		defer server.Close()
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id, order_id, amount, status, intent_id, created_at, updated_at\nFROM payments").
			WithArgs(paymentId).
			WillReturnRows(pgxmock.NewRows(
				[]string{"id", "order_id", "amount", "status", "intent_id", "created_at", "updated_at"},
			).AddRow(paymentId, orderId, total, repository.PaymentStatusPending, intentId, now, now))
		mock.ExpectQuery("UPDATE payments\nSET status").
			WithArgs(paymentId, repository.PaymentStatusSucceeded, intentId).
			WillReturnRows(pgxmock.NewRows(
				[]string{"id", "order_id", "amount", "status", "intent_id", "created_at", "updated_at"},
			).AddRow(paymentId, orderId, total, repository.PaymentStatusSucceeded, intentId, now, now))
		mock.ExpectQuery("UPDATE orders\nSET status").
			WithArgs(orderId, repository.OrderStatusCompleted).
			WillReturnRows(pgxmock.NewRows(
				[]string{"id", "user_id", "status", "total_price", "created_at", "updated_at"},
			).AddRow(orderId, uuid.New(), repository.OrderStatusCompleted, total, now, now))
		mock.ExpectCommit()
		mock.ExpectRollback()

		payload := succeededPayload(orderId, paymentId)
		header := processor.SignatureHeader(webhookSecret, time.Now().Unix(), payload)
		resp := postWebhook(t, server.URL, payload, header)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("given tampered payload should return 400 and mutate nothing", func(t *testing.T) {
		server, mock := newWebhookServer(t)
		defer server.Close()
		defer mock.Close()

		payload := succeededPayload(orderId, paymentId)
		header := processor.SignatureHeader(webhookSecret, time.Now().Unix(), payload)
		tampered := bytes.Replace(payload, []byte("succeeded"), []byte("created"), 1)
		resp := postWebhook(t, server.URL, tampered, header)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("given missing signature header should return 400", func(t *testing.T) {
		server, mock := newWebhookServer(t)
		defer server.Close()
		defer mock.Close()

		payload := succeededPayload(orderId, paymentId)
		resp := postWebhook(t, server.URL, payload, "")
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("given authenticated event without payment id should still return 200", func(t *testing.T) {
		server, mock := newWebhookServer(t)
		defer server.Close()
		defer mock.Close()

		payload := []byte(
			`{"id":"evt_2","type":"payment_intent.succeeded","data":{"object":{"id":"pi_123","metadata":{}}}}`,
		)
		header := processor.SignatureHeader(webhookSecret, time.Now().Unix(), payload)
		resp := postWebhook(t, server.URL, payload, header)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
