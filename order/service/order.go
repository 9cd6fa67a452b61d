package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/database"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/repository"
	"github.com/Alturino/storefront/order/pkg/response"
)

type OrderService struct {
	pool    database.Pool
	queries *repository.Queries
}

func NewOrderService(pool database.Pool, queries *repository.Queries) *OrderService {
	return &OrderService{pool: pool, queries: queries}
}

// PlaceOrder converts the caller's cart into a pending order in one
// transaction. Unit prices are read under lock, frozen onto the order
// lines, and the cart lines are cleared before commit; the cart row
// itself survives empty. No partial outcome is observable.
func (s OrderService) PlaceOrder(c context.Context, userId uuid.UUID) (response.Order, error) {
	c, span := inOtel.Tracer.Start(c, "OrderService PlaceOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "OrderService PlaceOrder").
		Str(constants.KEY_USER_ID, userId.String()).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "initializing transaction").Logger()
	logger.Info().Msg("initializing transaction")
	tx, err := s.pool.BeginTx(c, pgx.TxOptions{})
	if err != nil {
		err = fmt.Errorf("failed initializing transaction with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
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

	logger = logger.With().Str(constants.KEY_PROCESS, "upserting cart").Logger()
	logger.Info().Msg("upserting cart")
	cart, err := qtx.UpsertCart(c, userId)
	if err != nil {
		err = fmt.Errorf("failed upserting cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger = logger.With().Str(constants.KEY_CART_ID, cart.ID.String()).Logger()
	logger.Info().Msg("upserted cart")

	logger = logger.With().Str(constants.KEY_PROCESS, "locking cart items").Logger()
	logger.Info().Msg("locking cart items")
	items, err := qtx.FindCartItemsWithProductForUpdate(c, cart.ID)
	if err != nil {
		err = fmt.Errorf("failed locking cart items with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	if len(items) == 0 {
		err = fmt.Errorf("%w: cart id=%s", inErrors.ErrEmptyCart, cart.ID)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger.Info().Int("count", len(items)).Msg("locked cart items")

	totalPrice := decimal.Zero
	for _, item := range items {
		unitPrice := repository.DecimalFromNumeric(item.Price)
		totalPrice = totalPrice.Add(unitPrice.Mul(decimal.NewFromInt32(item.Quantity)))
	}

	logger = logger.With().
		Str(constants.KEY_PROCESS, "inserting order").
		Str(constants.KEY_TOTAL_PRICE, totalPrice.String()).
		Logger()
	logger.Info().Msg("inserting order")
	order, err := qtx.InsertOrder(c, repository.InsertOrderParams{
		UserID:     userId,
		TotalPrice: repository.NumericFromDecimal(totalPrice),
	})
	if err != nil {
		err = fmt.Errorf("failed inserting order with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger = logger.With().Str(constants.KEY_ORDER_ID, order.ID.String()).Logger()
	logger.Info().Msg("inserted order")

	logger = logger.With().Str(constants.KEY_PROCESS, "inserting order items").Logger()
	logger.Info().Msg("inserting order items")
	orderItems := []repository.OrderItem{}
	for _, item := range items {
		orderItem, err := qtx.InsertOrderItem(c, repository.InsertOrderItemParams{
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
		if err != nil {
			err = fmt.Errorf("failed inserting order item with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return response.Order{}, err
		}
		orderItems = append(orderItems, orderItem)
	}
	logger.Info().Int("count", len(orderItems)).Msg("inserted order items")

	logger = logger.With().Str(constants.KEY_PROCESS, "clearing cart items").Logger()
	logger.Info().Msg("clearing cart items")
	if err = qtx.DeleteCartItemsByCartId(c, cart.ID); err != nil {
		err = fmt.Errorf("failed clearing cart items with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger.Info().Msg("cleared cart items")

	logger = logger.With().Str(constants.KEY_PROCESS, "committing transaction").Logger()
	logger.Info().Msg("committing transaction")
	if err = tx.Commit(c); err != nil {
		err = fmt.Errorf("failed committing transaction with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger.Info().Msg("committed transaction")

	return order.Response(orderItems), nil
}

// FindOrderById is scoped to the caller. An order owned by another
// user is reported as missing rather than forbidden so order ids leak
// nothing about their existence.
func (s OrderService) FindOrderById(
	c context.Context,
	userId uuid.UUID,
	orderId uuid.UUID,
) (response.Order, error) {
	c, span := inOtel.Tracer.Start(c, "OrderService FindOrderById")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "OrderService FindOrderById").
		Str(constants.KEY_USER_ID, userId.String()).
		Str(constants.KEY_ORDER_ID, orderId.String()).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "finding order by id").Logger()
	logger.Info().Msg("finding order by id")
	order, err := s.queries.FindOrderByIdAndUserId(c, repository.FindOrderByIdAndUserIdParams{
		ID:     orderId,
		UserID: userId,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = fmt.Errorf("%w: order id=%s", inErrors.ErrNotFound, orderId)
		} else {
			err = fmt.Errorf("failed finding order by id with error=%w", err)
		}
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger.Info().Msg("found order by id")

	logger = logger.With().Str(constants.KEY_PROCESS, "finding order items").Logger()
	logger.Info().Msg("finding order items")
	items, err := s.queries.FindOrderItemsByOrderId(c, order.ID)
	if err != nil {
		err = fmt.Errorf("failed finding order items with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger.Info().Int("count", len(items)).Msg("found order items")

	return order.Response(items), nil
}

func (s OrderService) FindOrders(c context.Context, userId uuid.UUID) ([]response.Order, error) {
	c, span := inOtel.Tracer.Start(c, "OrderService FindOrders")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "OrderService FindOrders").
		Str(constants.KEY_USER_ID, userId.String()).
		Str(constants.KEY_PROCESS, "finding orders").
		Logger()

	logger.Info().Msg("finding orders")
	orders, err := s.queries.FindOrdersByUserId(c, userId)
	if err != nil {
		err = fmt.Errorf("failed finding orders with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Int("count", len(orders)).Msg("found orders")

	resp := []response.Order{}
	for _, order := range orders {
		items, err := s.queries.FindOrderItemsByOrderId(c, order.ID)
		if err != nil {
			err = fmt.Errorf("failed finding order items with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return nil, err
		}
		resp = append(resp, order.Response(items))
	}
	return resp, nil
}
