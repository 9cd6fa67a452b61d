package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/internal/config"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/repository"
	"github.com/Alturino/storefront/payment/processor"
	"github.com/Alturino/storefront/payment/pkg/request"
)

type fakeProcessor struct {
	intent   processor.Intent
	err      error
	metadata map[string]string
}

func (f *fakeProcessor) CreateIntent(
	c context.Context,
	amount int64,
	currency string,
	metadata map[string]string,
) (processor.Intent, error) {
	f.metadata = metadata
	return f.intent, f.err
}

func (f *fakeProcessor) VerifyEvent(payload []byte, header string) (processor.Event, error) {
	return processor.Event{}, nil
}

func newPaymentService(
	t *testing.T,
	proc processor.Processor,
) (*PaymentService, pgxmock.PgxPoolIface) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	queries := repository.New(mock)
	service := NewPaymentService(mock, queries, proc, config.Stripe{Currency: "usd"})
	return service, mock
}

func orderRow(
	orderId uuid.UUID,
	userId uuid.UUID,
	status repository.OrderStatus,
	total decimal.Decimal,
) *pgxmock.Rows {
	now := pgtype.Timestamptz{Time: time.Now(), Valid: true}
	return pgxmock.NewRows(
		[]string{"id", "user_id", "status", "total_price", "created_at", "updated_at"},
	).AddRow(orderId, userId, status, repository.NumericFromDecimal(total), now, now)
}

func paymentRow(
	paymentId uuid.UUID,
	orderId uuid.UUID,
	status repository.PaymentStatus,
	amount decimal.Decimal,
	intentId pgtype.Text,
) *pgxmock.Rows {
	now := pgtype.Timestamptz{Time: time.Now(), Valid: true}
	return pgxmock.NewRows(
		[]string{"id", "order_id", "amount", "status", "intent_id", "created_at", "updated_at"},
	).AddRow(paymentId, orderId, repository.NumericFromDecimal(amount), status, intentId, now, now)
}

func TestCreateIntent(t *testing.T) {
	userId := uuid.New()
	orderId := uuid.New()
	paymentId := uuid.New()
	total := decimal.RequireFromString("100.00")

	t.Run("given pending order should commit pending payment with intent id", func(t *testing.T) {
		proc := &fakeProcessor{intent: processor.Intent{ID: "pi_123", ClientSecret: "pi_123_secret"}}
		service, mock := newPaymentService(t, proc)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id, user_id, status, total_price, created_at, updated_at\nFROM orders").
			WithArgs(orderId, userId).
			WillReturnRows(orderRow(orderId, userId, repository.OrderStatusPending, total))
		mock.ExpectQuery("INSERT INTO payments").
			WithArgs(orderId, repository.NumericFromDecimal(total)).
			WillReturnRows(paymentRow(paymentId, orderId, repository.PaymentStatusPending, total, pgtype.Text{}))
		mock.ExpectQuery("UPDATE payments\nSET intent_id").
			WithArgs(paymentId, "pi_123").
			WillReturnRows(paymentRow(paymentId, orderId, repository.PaymentStatusPending, total, pgtype.Text{String: "pi_123", Valid: true}))
		mock.ExpectCommit()
		mock.ExpectRollback()

		intent, err := service.CreateIntent(
			context.Background(),
			userId,
			request.CreatePaymentIntent{OrderId: orderId},
		)
		assert.NoError(t, err)
		assert.Equal(t, "pi_123_secret", intent.ClientSecret)
		assert.Equal(t, paymentId, intent.PaymentId)
		assert.Equal(t, orderId, intent.OrderId)
		assert.Equal(t, orderId.String(), proc.metadata[processor.MetadataOrderId])
		assert.Equal(t, paymentId.String(), proc.metadata[processor.MetadataPaymentId])
		assert.Equal(t, userId.String(), proc.metadata[processor.MetadataUserId])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("given unknown or foreign order should report not found", func(t *testing.T) {
		service, mock := newPaymentService(t, &fakeProcessor{})
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id, user_id, status, total_price, created_at, updated_at\nFROM orders").
			WithArgs(orderId, userId).
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectRollback()

		_, err := service.CreateIntent(
			context.Background(),
			userId,
			request.CreatePaymentIntent{OrderId: orderId},
		)
		assert.ErrorIs(t, err, inErrors.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("given non pending order should answer as not found", func(t *testing.T) {
		service, mock := newPaymentService(t, &fakeProcessor{})
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id, user_id, status, total_price, created_at, updated_at\nFROM orders").
			WithArgs(orderId, userId).
			WillReturnRows(orderRow(orderId, userId, repository.OrderStatusCompleted, total))
		mock.ExpectRollback()

		_, err := service.CreateIntent(
			context.Background(),
			userId,
			request.CreatePaymentIntent{OrderId: orderId},
		)
		assert.ErrorIs(
			t,
			err,
			inErrors.ErrNotFound,
			"processed orders are indistinguishable from missing ones",
		)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("given processor decline should commit failed payment", func(t *testing.T) {
		proc := &fakeProcessor{err: inErrors.ErrIntentRejected}
		service, mock := newPaymentService(t, proc)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id, user_id, status, total_price, created_at, updated_at\nFROM orders").
			WithArgs(orderId, userId).
			WillReturnRows(orderRow(orderId, userId, repository.OrderStatusPending, total))
		mock.ExpectQuery("INSERT INTO payments").
			WithArgs(orderId, repository.NumericFromDecimal(total)).
			WillReturnRows(paymentRow(paymentId, orderId, repository.PaymentStatusPending, total, pgtype.Text{}))
		mock.ExpectQuery("UPDATE payments\nSET status").
			WithArgs(paymentId, repository.PaymentStatusFailed, pgxmock.AnyArg()).
			WillReturnRows(paymentRow(paymentId, orderId, repository.PaymentStatusFailed, total, pgtype.Text{}))
		mock.ExpectCommit()
		mock.ExpectRollback()

		_, err := service.CreateIntent(
			context.Background(),
			userId,
			request.CreatePaymentIntent{OrderId: orderId},
		)
		assert.ErrorIs(t, err, inErrors.ErrIntentRejected)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("given unreachable processor should roll back payment row", func(t *testing.T) {
		proc := &fakeProcessor{err: inErrors.ErrExternalService}
		service, mock := newPaymentService(t, proc)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id, user_id, status, total_price, created_at, updated_at\nFROM orders").
			WithArgs(orderId, userId).
			WillReturnRows(orderRow(orderId, userId, repository.OrderStatusPending, total))
		mock.ExpectQuery("INSERT INTO payments").
			WithArgs(orderId, repository.NumericFromDecimal(total)).
			WillReturnRows(paymentRow(paymentId, orderId, repository.PaymentStatusPending, total, pgtype.Text{}))
		mock.ExpectRollback()

		_, err := service.CreateIntent(
			context.Background(),
			userId,
			request.CreatePaymentIntent{OrderId: orderId},
		)
		assert.ErrorIs(t, err, inErrors.ErrExternalService)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestHandleEvent(t *testing.T) {
	orderId := uuid.New()
	paymentId := uuid.New()
	total := decimal.RequireFromString("100.00")

	succeededEvent := processor.Event{
		ID:       "evt_1",
		Type:     processor.EventPaymentSucceeded,
		IntentID: "pi_123",
		Metadata: map[string]string{
			processor.MetadataOrderId:   orderId.String(),
			processor.MetadataPaymentId: paymentId.String(),
		},
	}

	t.Run("given succeeded event on pending payment should complete order", func(t *testing.T) {
		service, mock := newPaymentService(t, &fakeProcessor{})
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id, order_id, amount, status, intent_id, created_at, updated_at\nFROM payments").
			WithArgs(paymentId).
			WillReturnRows(paymentRow(paymentId, orderId, repository.PaymentStatusPending, total, pgtype.Text{String: "pi_123", Valid: true}))
		mock.ExpectQuery("UPDATE payments\nSET status").
			WithArgs(paymentId, repository.PaymentStatusSucceeded, pgtype.Text{String: "pi_123", Valid: true}).
			WillReturnRows(paymentRow(paymentId, orderId, repository.PaymentStatusSucceeded, total, pgtype.Text{String: "pi_123", Valid: true}))
		mock.ExpectQuery("UPDATE orders\nSET status").
			WithArgs(orderId, repository.OrderStatusCompleted).
			WillReturnRows(orderRow(orderId, uuid.New(), repository.OrderStatusCompleted, total))
		mock.ExpectCommit()
		mock.ExpectRollback()

		err := service.HandleEvent(context.Background(), succeededEvent)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("given failed event on pending payment should fail order", func(t *testing.T) {
		service, mock := newPaymentService(t, &fakeProcessor{})
		defer mock.Close()

		failedEvent := succeededEvent
		failedEvent.Type = processor.EventPaymentFailed

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id, order_id, amount, status, intent_id, created_at, updated_at\nFROM payments").
			WithArgs(paymentId).
			WillReturnRows(paymentRow(paymentId, orderId, repository.PaymentStatusPending, total, pgtype.Text{String: "pi_123", Valid: true}))
		mock.ExpectQuery("UPDATE payments\nSET status").
			WithArgs(paymentId, repository.PaymentStatusFailed, pgtype.Text{String: "pi_123", Valid: true}).
			WillReturnRows(paymentRow(paymentId, orderId, repository.PaymentStatusFailed, total, pgtype.Text{String: "pi_123", Valid: true}))
		mock.ExpectQuery("UPDATE orders\nSET status").
			WithArgs(orderId, repository.OrderStatusFailed).
			WillReturnRows(orderRow(orderId, uuid.New(), repository.OrderStatusFailed, total))
		mock.ExpectCommit()
		mock.ExpectRollback()

		err := service.HandleEvent(context.Background(), failedEvent)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("given replay on terminal payment should acknowledge without mutation", func(t *testing.T) {
		service, mock := newPaymentService(t, &fakeProcessor{})
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id, order_id, amount, status, intent_id, created_at, updated_at\nFROM payments").
			WithArgs(paymentId).
			WillReturnRows(paymentRow(paymentId, orderId, repository.PaymentStatusSucceeded, total, pgtype.Text{String: "pi_123", Valid: true}))
		mock.ExpectRollback()

		err := service.HandleEvent(context.Background(), succeededEvent)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("given failed event after succeeded should not leave terminal state", func(t *testing.T) {
		service, mock := newPaymentService(t, &fakeProcessor{})
		defer mock.Close()

		failedEvent := succeededEvent
		failedEvent.Type = processor.EventPaymentFailed

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id, order_id, amount, status, intent_id, created_at, updated_at\nFROM payments").
			WithArgs(paymentId).
			WillReturnRows(paymentRow(paymentId, orderId, repository.PaymentStatusSucceeded, total, pgtype.Text{String: "pi_123", Valid: true}))
		mock.ExpectRollback()

		err := service.HandleEvent(context.Background(), failedEvent)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("given event without payment id metadata should be a no-op", func(t *testing.T) {
		service, mock := newPaymentService(t, &fakeProcessor{})
		defer mock.Close()

		event := succeededEvent
		event.Metadata = map[string]string{}

		err := service.HandleEvent(context.Background(), event)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("given event for unknown payment should be a no-op", func(t *testing.T) {
		service, mock := newPaymentService(t, &fakeProcessor{})
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id, order_id, amount, status, intent_id, created_at, updated_at\nFROM payments").
			WithArgs(paymentId).
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectRollback()

		err := service.HandleEvent(context.Background(), succeededEvent)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("given unrecognized event type should be ignored", func(t *testing.T) {
		service, mock := newPaymentService(t, &fakeProcessor{})
		defer mock.Close()

		event := succeededEvent
		event.Type = "payment_intent.created"

		err := service.HandleEvent(context.Background(), event)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
