package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/pkg/request"
	"github.com/Alturino/storefront/cart/pkg/response"
	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/database"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/repository"
)

type CartService struct {
	pool    database.Pool
	queries *repository.Queries
}

func NewCartService(pool database.Pool, queries *repository.Queries) *CartService {
	return &CartService{pool: pool, queries: queries}
}

// UpsertCart returns the caller's cart, creating it on first access.
// A user owns exactly one cart for their whole lifetime.
func (s CartService) UpsertCart(c context.Context, userId uuid.UUID) (response.Cart, error) {
	c, span := inOtel.Tracer.Start(c, "CartService UpsertCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "CartService UpsertCart").
		Str(constants.KEY_USER_ID, userId.String()).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "upserting cart").Logger()
	logger.Info().Msg("upserting cart")
	cart, err := s.queries.UpsertCart(c, userId)
	if err != nil {
		err = fmt.Errorf("failed upserting cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger = logger.With().Str(constants.KEY_CART_ID, cart.ID.String()).Logger()
	logger.Info().Msg("upserted cart")

	logger = logger.With().Str(constants.KEY_PROCESS, "finding cart items").Logger()
	logger.Info().Msg("finding cart items")
	items, err := s.queries.FindCartItemsWithProduct(c, cart.ID)
	if err != nil {
		err = fmt.Errorf("failed finding cart items with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Int("count", len(items)).Msg("found cart items")

	return cart.Response(items), nil
}

// FindCartById returns a cart snapshot with live totals. Carts are
// private: reading another user's cart is forbidden even when the cart
// id is known.
func (s CartService) FindCartById(
	c context.Context,
	userId uuid.UUID,
	cartId uuid.UUID,
) (response.Cart, error) {
	c, span := inOtel.Tracer.Start(c, "CartService FindCartById")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "CartService FindCartById").
		Str(constants.KEY_USER_ID, userId.String()).
		Str(constants.KEY_CART_ID, cartId.String()).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "finding cart by id").Logger()
	logger.Info().Msg("finding cart by id")
	cart, err := s.queries.FindCartById(c, cartId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = fmt.Errorf("%w: cart id=%s", inErrors.ErrNotFound, cartId)
		} else {
			err = fmt.Errorf("failed finding cart by id with error=%w", err)
		}
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	if cart.UserID != userId {
		err = fmt.Errorf("%w: cart id=%s", inErrors.ErrForbidden, cartId)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("found cart by id")

	logger = logger.With().Str(constants.KEY_PROCESS, "finding cart items").Logger()
	logger.Info().Msg("finding cart items")
	items, err := s.queries.FindCartItemsWithProduct(c, cart.ID)
	if err != nil {
		err = fmt.Errorf("failed finding cart items with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Int("count", len(items)).Msg("found cart items")

	return cart.Response(items), nil
}

// AddItem adds a product to the caller's cart. A line for the same
// product already in the cart absorbs the quantity instead of creating
// a duplicate; the row lock makes concurrent adds merge
// deterministically. The second return reports whether a new line was
// created.
func (s CartService) AddItem(
	c context.Context,
	userId uuid.UUID,
	param request.AddItem,
) (response.CartItem, bool, error) {
	c, span := inOtel.Tracer.Start(c, "CartService AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "CartService AddItem").
		Str(constants.KEY_USER_ID, userId.String()).
		Str(constants.KEY_PRODUCT_ID, param.ProductId.String()).
		Int32(constants.KEY_QUANTITY, param.Quantity).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "finding product by id").Logger()
	logger.Info().Msg("finding product by id")
	product, err := s.queries.FindProductById(c, param.ProductId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = fmt.Errorf("%w: product id=%s", inErrors.ErrNotFound, param.ProductId)
		} else {
			err = fmt.Errorf("failed finding product by id with error=%w", err)
		}
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.CartItem{}, false, err
	}
	logger.Info().Msg("found product by id")

	logger = logger.With().Str(constants.KEY_PROCESS, "initializing transaction").Logger()
	logger.Info().Msg("initializing transaction")
	tx, err := s.pool.BeginTx(c, pgx.TxOptions{})
	if err != nil {
		err = fmt.Errorf("failed initializing transaction with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.CartItem{}, false, err
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
		return response.CartItem{}, false, err
	}
	logger = logger.With().Str(constants.KEY_CART_ID, cart.ID.String()).Logger()
	logger.Info().Msg("upserted cart")

	logger = logger.With().Str(constants.KEY_PROCESS, "locking cart item").Logger()
	logger.Info().Msg("locking cart item")
	existing, err := qtx.FindCartItemForUpdate(c, repository.FindCartItemForUpdateParams{
		CartID:    cart.ID,
		ProductID: param.ProductId,
	})
	created := false
	var item repository.CartItem
	switch {
	case err == nil:
		logger = logger.With().Str(constants.KEY_PROCESS, "merging cart item quantity").Logger()
		logger.Info().Int32("existingQuantity", existing.Quantity).Msg("merging cart item quantity")
		item, err = qtx.UpdateCartItemQuantity(c, repository.UpdateCartItemQuantityParams{
			ID:       existing.ID,
			Quantity: existing.Quantity + param.Quantity,
		})
		if err != nil {
			err = fmt.Errorf("failed merging cart item quantity with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return response.CartItem{}, false, err
		}
		logger.Info().Int32(constants.KEY_QUANTITY, item.Quantity).Msg("merged cart item quantity")
	case errors.Is(err, pgx.ErrNoRows):
		logger = logger.With().Str(constants.KEY_PROCESS, "inserting cart item").Logger()
		logger.Info().Msg("inserting cart item")
		item, err = qtx.InsertCartItem(c, repository.InsertCartItemParams{
			CartID:    cart.ID,
			ProductID: param.ProductId,
			Quantity:  param.Quantity,
		})
		if err != nil {
			err = fmt.Errorf("failed inserting cart item with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return response.CartItem{}, false, err
		}
		created = true
		logger.Info().Str(constants.KEY_CART_ITEM_ID, item.ID.String()).Msg("inserted cart item")
	default:
		err = fmt.Errorf("failed locking cart item with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.CartItem{}, false, err
	}

	logger = logger.With().Str(constants.KEY_PROCESS, "committing transaction").Logger()
	logger.Info().Msg("committing transaction")
	if err = tx.Commit(c); err != nil {
		err = fmt.Errorf("failed committing transaction with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.CartItem{}, false, err
	}
	logger.Info().Msg("committed transaction")

	row := repository.CartItemWithProductRow{
		ID:          item.ID,
		CartID:      item.CartID,
		ProductID:   item.ProductID,
		Quantity:    item.Quantity,
		AddedAt:     item.AddedAt,
		ProductName: product.Name,
		Price:       product.Price,
	}
	return row.Response(), created, nil
}

// UpdateItemQuantity sets an absolute quantity on a cart line. Zero
// removes the line; the second return reports removal.
func (s CartService) UpdateItemQuantity(
	c context.Context,
	userId uuid.UUID,
	cartId uuid.UUID,
	itemId uuid.UUID,
	param request.UpdateItem,
) (response.CartItem, bool, error) {
	c, span := inOtel.Tracer.Start(c, "CartService UpdateItemQuantity")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "CartService UpdateItemQuantity").
		Str(constants.KEY_USER_ID, userId.String()).
		Str(constants.KEY_CART_ID, cartId.String()).
		Str(constants.KEY_CART_ITEM_ID, itemId.String()).
		Int32(constants.KEY_QUANTITY, param.Quantity).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "authorizing cart item").Logger()
	logger.Info().Msg("authorizing cart item")
	item, err := s.authorizeItem(c, userId, cartId, itemId)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.CartItem{}, false, err
	}
	logger.Info().Msg("authorized cart item")

	if param.Quantity == 0 {
		logger = logger.With().Str(constants.KEY_PROCESS, "deleting cart item").Logger()
		logger.Info().Msg("deleting cart item")
		if err := s.queries.DeleteCartItem(c, item.ID); err != nil {
			err = fmt.Errorf("failed deleting cart item with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return response.CartItem{}, false, err
		}
		logger.Info().Msg("deleted cart item")
		return response.CartItem{}, true, nil
	}

	logger = logger.With().Str(constants.KEY_PROCESS, "updating cart item quantity").Logger()
	logger.Info().Msg("updating cart item quantity")
	updated, err := s.queries.UpdateCartItemQuantity(c, repository.UpdateCartItemQuantityParams{
		ID:       item.ID,
		Quantity: param.Quantity,
	})
	if err != nil {
		err = fmt.Errorf("failed updating cart item quantity with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.CartItem{}, false, err
	}
	logger.Info().Msg("updated cart item quantity")

	logger = logger.With().Str(constants.KEY_PROCESS, "finding product by id").Logger()
	logger.Info().Msg("finding product by id")
	product, err := s.queries.FindProductById(c, updated.ProductID)
	if err != nil {
		err = fmt.Errorf("failed finding product by id with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.CartItem{}, false, err
	}
	logger.Info().Msg("found product by id")

	row := repository.CartItemWithProductRow{
		ID:          updated.ID,
		CartID:      updated.CartID,
		ProductID:   updated.ProductID,
		Quantity:    updated.Quantity,
		AddedAt:     updated.AddedAt,
		ProductName: product.Name,
		Price:       product.Price,
	}
	return row.Response(), false, nil
}

func (s CartService) RemoveItem(
	c context.Context,
	userId uuid.UUID,
	cartId uuid.UUID,
	itemId uuid.UUID,
) error {
	c, span := inOtel.Tracer.Start(c, "CartService RemoveItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "CartService RemoveItem").
		Str(constants.KEY_USER_ID, userId.String()).
		Str(constants.KEY_CART_ID, cartId.String()).
		Str(constants.KEY_CART_ITEM_ID, itemId.String()).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "authorizing cart item").Logger()
	logger.Info().Msg("authorizing cart item")
	item, err := s.authorizeItem(c, userId, cartId, itemId)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("authorized cart item")

	logger = logger.With().Str(constants.KEY_PROCESS, "deleting cart item").Logger()
	logger.Info().Msg("deleting cart item")
	if err := s.queries.DeleteCartItem(c, item.ID); err != nil {
		err = fmt.Errorf("failed deleting cart item with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("deleted cart item")

	return nil
}

// authorizeItem resolves a cart line against the addressed cart. A
// missing cart or line is NotFound; a cart owned by someone else is
// Forbidden, and the item is never resolved through it. The check
// always runs before any mutation.
func (s CartService) authorizeItem(
	c context.Context,
	userId uuid.UUID,
	cartId uuid.UUID,
	itemId uuid.UUID,
) (repository.CartItem, error) {
	cart, err := s.queries.FindCartById(c, cartId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.CartItem{}, fmt.Errorf(
				"%w: cart id=%s",
				inErrors.ErrNotFound,
				cartId,
			)
		}
		return repository.CartItem{}, fmt.Errorf("failed finding cart by id with error=%w", err)
	}
	if cart.UserID != userId {
		return repository.CartItem{}, fmt.Errorf(
			"%w: cart id=%s",
			inErrors.ErrForbidden,
			cartId,
		)
	}
	item, err := s.queries.FindCartItemById(c, itemId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.CartItem{}, fmt.Errorf(
				"%w: cart item id=%s",
				inErrors.ErrNotFound,
				itemId,
			)
		}
		return repository.CartItem{}, fmt.Errorf(
			"failed finding cart item by id with error=%w",
			err,
		)
	}
	if item.CartID != cart.ID {
		return repository.CartItem{}, fmt.Errorf(
			"%w: cart item id=%s",
			inErrors.ErrNotFound,
			itemId,
		)
	}
	return item, nil
}
