package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/repository"
	"github.com/Alturino/storefront/product/pkg/request"
	"github.com/Alturino/storefront/product/pkg/response"
)

const (
	cacheKeyProduct = "storefront:products:%s"
	cacheTtlProduct = 5 * time.Minute
)

type ProductService struct {
	queries *repository.Queries
	cache   *redis.Client
}

func NewProductService(queries *repository.Queries, cache *redis.Client) *ProductService {
	return &ProductService{queries: queries, cache: cache}
}

func (s ProductService) InsertProduct(
	c context.Context,
	param request.Product,
) (response.Product, error) {
	c, span := inOtel.Tracer.Start(c, "ProductService InsertProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "ProductService InsertProduct").
		Str(constants.KEY_PROCESS, "inserting product").
		Logger()

	logger.Info().Msg("inserting product")
	product, err := s.queries.InsertProduct(c, repository.InsertProductParams{
		Name:        param.Name,
		Description: param.Description,
		Price:       repository.NumericFromDecimal(param.Price),
		Stock:       param.Stock,
	})
	if err != nil {
		err = fmt.Errorf("failed inserting product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}
	logger.Info().Str(constants.KEY_PRODUCT_ID, product.ID.String()).Msg("inserted product")

	return product.Response(), nil
}

func (s ProductService) UpdateProduct(
	c context.Context,
	id uuid.UUID,
	param request.Product,
) (response.Product, error) {
	c, span := inOtel.Tracer.Start(c, "ProductService UpdateProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "ProductService UpdateProduct").
		Str(constants.KEY_PRODUCT_ID, id.String()).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "updating product").Logger()
	logger.Info().Msg("updating product")
	product, err := s.queries.UpdateProduct(c, repository.UpdateProductParams{
		ID:          id,
		Name:        param.Name,
		Description: param.Description,
		Price:       repository.NumericFromDecimal(param.Price),
		Stock:       param.Stock,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = fmt.Errorf("%w: product id=%s", inErrors.ErrNotFound, id)
		} else {
			err = fmt.Errorf("failed updating product with error=%w", err)
		}
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}
	logger.Info().Msg("updated product")

	// Stale cached prices only affect catalog reads; cart totals and
	// order placement always price against the database.
	logger = logger.With().Str(constants.KEY_PROCESS, "invalidating product cache").Logger()
	logger.Info().Msg("invalidating product cache")
	cacheKey := fmt.Sprintf(cacheKeyProduct, id)
	if err := s.cache.Del(c, cacheKey).Err(); err != nil {
		err = fmt.Errorf("failed invalidating product cache with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
	} else {
		logger.Info().Str(constants.KEY_CACHE_KEY, cacheKey).Msg("invalidated product cache")
	}

	return product.Response(), nil
}

func (s ProductService) FindProductById(
	c context.Context,
	id uuid.UUID,
) (response.Product, error) {
	c, span := inOtel.Tracer.Start(c, "ProductService FindProductById")
	defer span.End()

	cacheKey := fmt.Sprintf(cacheKeyProduct, id)
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "ProductService FindProductById").
		Str(constants.KEY_PRODUCT_ID, id.String()).
		Str(constants.KEY_CACHE_KEY, cacheKey).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "finding product in cache").Logger()
	logger.Info().Msg("finding product in cache")
	cached, err := s.cache.Get(c, cacheKey).Result()
	if err == nil {
		product := response.Product{}
		if err := json.Unmarshal([]byte(cached), &product); err == nil {
			logger.Info().Msg("found product in cache")
			return product, nil
		}
		logger.Info().Msg("found undecodable product in cache, falling back to database")
	} else if !errors.Is(err, redis.Nil) {
		err = fmt.Errorf("failed finding product in cache with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
	}

	logger = logger.With().Str(constants.KEY_PROCESS, "finding product by id").Logger()
	logger.Info().Msg("finding product by id")
	product, err := s.queries.FindProductById(c, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = fmt.Errorf("%w: product id=%s", inErrors.ErrNotFound, id)
		} else {
			err = fmt.Errorf("failed finding product by id with error=%w", err)
		}
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}
	logger.Info().Msg("found product by id")

	resp := product.Response()

	logger = logger.With().Str(constants.KEY_PROCESS, "inserting product to cache").Logger()
	logger.Info().Msg("inserting product to cache")
	encoded, err := json.Marshal(resp)
	if err != nil {
		err = fmt.Errorf("failed marshalling product for cache with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return resp, nil
	}
	if err := s.cache.Set(c, cacheKey, encoded, cacheTtlProduct).Err(); err != nil {
		err = fmt.Errorf("failed inserting product to cache with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return resp, nil
	}
	logger.Info().Msg("inserted product to cache")

	return resp, nil
}

func (s ProductService) FindProducts(c context.Context) ([]response.Product, error) {
	c, span := inOtel.Tracer.Start(c, "ProductService FindProducts")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "ProductService FindProducts").
		Str(constants.KEY_PROCESS, "finding products").
		Logger()

	logger.Info().Msg("finding products")
	products, err := s.queries.FindProducts(c)
	if err != nil {
		err = fmt.Errorf("failed finding products with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Int("count", len(products)).Msg("found products")

	resp := []response.Product{}
	for _, product := range products {
		resp = append(resp, product.Response())
	}
	return resp, nil
}
