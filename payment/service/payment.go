package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/database"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/repository"
	"github.com/Alturino/storefront/payment/processor"
	"github.com/Alturino/storefront/payment/pkg/request"
	"github.com/Alturino/storefront/payment/pkg/response"
)

type PaymentService struct {
	pool      database.Pool
	queries   *repository.Queries
	processor processor.Processor
	currency  string
}

func NewPaymentService(
	pool database.Pool,
	queries *repository.Queries,
	proc processor.Processor,
	cfg config.Stripe,
) *PaymentService {
	return &PaymentService{pool: pool, queries: queries, processor: proc, currency: cfg.Currency}
}

// minorUnits converts a decimal major-unit amount into the integer
// minor units the processor charges in.
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// CreateIntent opens a payment attempt for one of the caller's pending
// orders. The pending payment row is committed together with the
// processor's intent id so a later webhook always finds it; a
// definitive decline commits the payment as FAILED instead.
func (s PaymentService) CreateIntent(
	c context.Context,
	userId uuid.UUID,
	param request.CreatePaymentIntent,
) (response.PaymentIntent, error) {
	c, span := inOtel.Tracer.Start(c, "PaymentService CreateIntent")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "PaymentService CreateIntent").
		Str(constants.KEY_USER_ID, userId.String()).
		Str(constants.KEY_ORDER_ID, param.OrderId.String()).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "initializing transaction").Logger()
	logger.Info().Msg("initializing transaction")
	tx, err := s.pool.BeginTx(c, pgx.TxOptions{})
	if err != nil {
		err = fmt.Errorf("failed initializing transaction with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.PaymentIntent{}, err
	}
	defer func() {
		if err := tx.Rollback(c); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			err = fmt.Errorf("failed rolling back transaction with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
		}
	}()
	logger.Info().Msg("initialized transaction")
	qtx := s.queries.WithTx(tx)

	logger = logger.With().Str(constants.KEY_PROCESS, "locking order").Logger()
	logger.Info().Msg("locking order")
	order, err := qtx.FindOrderForUpdate(c, repository.FindOrderForUpdateParams{
		ID:     param.OrderId,
		UserID: userId,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = fmt.Errorf("%w: order id=%s", inErrors.ErrNotFound, param.OrderId)
		} else {
			err = fmt.Errorf("failed locking order with error=%w", err)
		}
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.PaymentIntent{}, err
	}
	if order.Status != repository.OrderStatusPending {
		// Already-processed orders answer the same as missing ones so a
		// caller cannot probe order existence across users.
		err = fmt.Errorf("%w: order id=%s", inErrors.ErrNotFound, order.ID)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.PaymentIntent{}, err
	}
	logger.Info().Msg("locked order")

	logger = logger.With().Str(constants.KEY_PROCESS, "inserting payment").Logger()
	logger.Info().Msg("inserting payment")
	payment, err := qtx.InsertPayment(c, repository.InsertPaymentParams{
		OrderID: order.ID,
		Amount:  order.TotalPrice,
	})
	if err != nil {
		err = fmt.Errorf("failed inserting payment with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.PaymentIntent{}, err
	}
	logger = logger.With().Str(constants.KEY_PAYMENT_ID, payment.ID.String()).Logger()
	logger.Info().Msg("inserted payment")

	amount := minorUnits(repository.DecimalFromNumeric(order.TotalPrice))
	logger = logger.With().
		Str(constants.KEY_PROCESS, "creating payment intent").
		Int64(constants.KEY_AMOUNT, amount).
		Logger()
	logger.Info().Msg("creating payment intent")
	intent, err := s.processor.CreateIntent(c, amount, s.currency, map[string]string{
		processor.MetadataOrderId:   order.ID.String(),
		processor.MetadataPaymentId: payment.ID.String(),
		processor.MetadataUserId:    userId.String(),
	})
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		if !errors.Is(err, inErrors.ErrIntentRejected) {
			return response.PaymentIntent{}, err
		}

		// The processor answered with a definitive decline, so the
		// failed payment attempt is part of history and must commit.
		logger = logger.With().Str(constants.KEY_PROCESS, "recording declined payment").Logger()
		logger.Info().Msg("recording declined payment")
		if _, updateErr := qtx.UpdatePaymentStatus(c, repository.UpdatePaymentStatusParams{
			ID:     payment.ID,
			Status: repository.PaymentStatusFailed,
		}); updateErr != nil {
			updateErr = fmt.Errorf("failed recording declined payment with error=%w", updateErr)
			inOtel.RecordError(updateErr, span)
			logger.Error().Err(updateErr).Msg(updateErr.Error())
			return response.PaymentIntent{}, updateErr
		}
		if commitErr := tx.Commit(c); commitErr != nil {
			commitErr = fmt.Errorf("failed committing transaction with error=%w", commitErr)
			inOtel.RecordError(commitErr, span)
			logger.Error().Err(commitErr).Msg(commitErr.Error())
			return response.PaymentIntent{}, commitErr
		}
		logger.Info().Msg("recorded declined payment")
		return response.PaymentIntent{}, err
	}
	logger = logger.With().Str(constants.KEY_INTENT_ID, intent.ID).Logger()
	logger.Info().Msg("created payment intent")

	logger = logger.With().Str(constants.KEY_PROCESS, "attaching intent to payment").Logger()
	logger.Info().Msg("attaching intent to payment")
	if _, err = qtx.UpdatePaymentIntentId(c, repository.UpdatePaymentIntentIdParams{
		ID:       payment.ID,
		IntentID: intent.ID,
	}); err != nil {
		err = fmt.Errorf("failed attaching intent to payment with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.PaymentIntent{}, err
	}
	logger.Info().Msg("attached intent to payment")

	logger = logger.With().Str(constants.KEY_PROCESS, "committing transaction").Logger()
	logger.Info().Msg("committing transaction")
	if err = tx.Commit(c); err != nil {
		err = fmt.Errorf("failed committing transaction with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.PaymentIntent{}, err
	}
	logger.Info().Msg("committed transaction")

	return response.PaymentIntent{
		ClientSecret: intent.ClientSecret,
		PaymentId:    payment.ID,
		OrderId:      order.ID,
	}, nil
}

// HandleEvent reconciles an authenticated webhook event against local
// payment state. Deliveries are at-least-once and unordered, so the
// payment row is locked and only a PENDING payment transitions;
// replays and events for terminal payments are acknowledged as no-ops.
// Only the payment id from the metadata is trusted to address state.
func (s PaymentService) HandleEvent(c context.Context, event processor.Event) error {
	c, span := inOtel.Tracer.Start(c, "PaymentService HandleEvent")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "PaymentService HandleEvent").
		Str(constants.KEY_EVENT_TYPE, event.Type).
		Str(constants.KEY_INTENT_ID, event.IntentID).
		Logger()

	var paymentStatus repository.PaymentStatus
	var orderStatus repository.OrderStatus
	switch event.Type {
	case processor.EventPaymentSucceeded:
		paymentStatus = repository.PaymentStatusSucceeded
		orderStatus = repository.OrderStatusCompleted
	case processor.EventPaymentFailed:
		paymentStatus = repository.PaymentStatusFailed
		orderStatus = repository.OrderStatusFailed
	default:
		logger.Info().Msg("ignoring unrecognized event type")
		return nil
	}

	paymentId, err := uuid.Parse(event.Metadata[processor.MetadataPaymentId])
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("event carries no usable payment id metadata, acknowledging without effect")
		return nil
	}
	logger = logger.With().Str(constants.KEY_PAYMENT_ID, paymentId.String()).Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "initializing transaction").Logger()
	logger.Info().Msg("initializing transaction")
	tx, err := s.pool.BeginTx(c, pgx.TxOptions{})
	if err != nil {
		err = fmt.Errorf("failed initializing transaction with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	defer func() {
		if err := tx.Rollback(c); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			err = fmt.Errorf("failed rolling back transaction with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
		}
	}()
	logger.Info().Msg("initialized transaction")
	qtx := s.queries.WithTx(tx)

	logger = logger.With().Str(constants.KEY_PROCESS, "locking payment").Logger()
	logger.Info().Msg("locking payment")
	payment, err := qtx.FindPaymentByIdForUpdate(c, paymentId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.Warn().Msg("event references unknown payment, acknowledging without effect")
			return nil
		}
		err = fmt.Errorf("failed locking payment with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger = logger.With().Str(constants.KEY_ORDER_ID, payment.OrderID.String()).Logger()
	logger.Info().Msg("locked payment")

	if payment.Status != repository.PaymentStatusPending {
		logger.Info().
			Str("paymentStatus", string(payment.Status)).
			Msg("payment already terminal, acknowledging replay without effect")
		return nil
	}

	if orderId := event.Metadata[processor.MetadataOrderId]; orderId != "" &&
		orderId != payment.OrderID.String() {
		logger.Warn().
			Str("metadataOrderId", orderId).
			Msg("event metadata order id disagrees with payment record")
	}

	logger = logger.With().Str(constants.KEY_PROCESS, "updating payment status").Logger()
	logger.Info().Str("paymentStatus", string(paymentStatus)).Msg("updating payment status")
	if _, err = qtx.UpdatePaymentStatus(c, repository.UpdatePaymentStatusParams{
		ID:       payment.ID,
		Status:   paymentStatus,
		IntentID: pgtype.Text{String: event.IntentID, Valid: event.IntentID != ""},
	}); err != nil {
		err = fmt.Errorf("failed updating payment status with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("updated payment status")

	logger = logger.With().Str(constants.KEY_PROCESS, "updating order status").Logger()
	logger.Info().Str("orderStatus", string(orderStatus)).Msg("updating order status")
	if _, err = qtx.UpdateOrderStatus(c, repository.UpdateOrderStatusParams{
		ID:     payment.OrderID,
		Status: orderStatus,
	}); err != nil {
		err = fmt.Errorf("failed updating order status with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("updated order status")

	logger = logger.With().Str(constants.KEY_PROCESS, "committing transaction").Logger()
	logger.Info().Msg("committing transaction")
	if err = tx.Commit(c); err != nil {
		err = fmt.Errorf("failed committing transaction with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("committed transaction")

	return nil
}
