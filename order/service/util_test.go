package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	pgxuuid "github.com/vgarvardt/pgx-google-uuid/v5"

	"github.com/Alturino/storefront/internal/repository"
)

var (
	laptopId = uuid.MustParse("0f0c43a2-6b5b-4a6e-9f6b-0a4f2c1d9e01")
	mouseId  = uuid.MustParse("2b1d54b3-7c6c-4b7f-8a7c-1b5a3d2e0f12")
)

type (
	setupFunc    func(context.Context) (*pgxpool.Pool, *postgres.PostgresContainer, *repository.Queries, *OrderService)
	teardownFunc func(*pgxpool.Pool, *postgres.PostgresContainer)
)

func setup(t *testing.T) setupFunc {
	return func(c context.Context) (*pgxpool.Pool, *postgres.PostgresContainer, *repository.Queries, *OrderService) {
		migrations := filepath.Join("..", "..", "..", "db", "migrations")
		seed := filepath.Join("..", "..", "..", "db", "seed")
		pgContainer, err := postgres.Run(
			c,
			"postgres:16.6-alpine3.21",
			testcontainers.WithEnv(map[string]string{
				"POSTGRES_DB":       "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_USER":     "postgres",
			}),
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
			postgres.WithDatabase("postgres"),
			postgres.BasicWaitStrategies(),
			postgres.WithInitScripts(
				filepath.Join(migrations, "20250114093012_create_table_products.up.sql"),
				filepath.Join(migrations, "20250114093545_create_table_carts.up.sql"),
				filepath.Join(migrations, "20250114094102_create_table_orders.up.sql"),
				filepath.Join(migrations, "20250114094818_create_table_payments.up.sql"),
				filepath.Join(seed, "products.seed.sql"),
			),
		)
		if err != nil {
			t.Fatalf("failed running postgres container with error: %s", err)
		}

		pgConnStr, err := pgContainer.ConnectionString(c, "sslmode=disable")
		if err != nil {
			t.Fatalf("failed getting postgres connection string with error: %s", err)
		}

		pgConfig, err := pgxpool.ParseConfig(pgConnStr)
		if err != nil {
			t.Fatalf("failed parsing pgx config with error: %s", err)
		}
		pgConfig.AfterConnect = func(c context.Context, conn *pgx.Conn) error {
			pgxuuid.Register(conn.TypeMap())
			return nil
		}

		pool, err := pgxpool.NewWithConfig(c, pgConfig)
		if err != nil {
			t.Fatalf("failed creating postgres pool with error: %s", err)
		}
		if err = pool.Ping(c); err != nil {
			t.Fatalf("failed ping postgres pool with error: %s", err)
		}

		queries := repository.New(pool)
		service := NewOrderService(pool, queries)
		return pool, pgContainer, queries, service
	}
}

func teardown(t *testing.T) teardownFunc {
	return func(pool *pgxpool.Pool, pgContainer *postgres.PostgresContainer) {
		pool.Close()
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Fatalf("failed terminating postgres container with error: %s", err)
		}
	}
}

func addCartItem(
	t *testing.T,
	c context.Context,
	queries *repository.Queries,
	userId uuid.UUID,
	productId uuid.UUID,
	quantity int32,
) repository.Cart {
	cart, err := queries.UpsertCart(c, userId)
	if err != nil {
		t.Fatalf("failed upserting cart with error: %s", err)
	}
	_, err = queries.InsertCartItem(c, repository.InsertCartItemParams{
		CartID:    cart.ID,
		ProductID: productId,
		Quantity:  quantity,
	})
	if err != nil {
		t.Fatalf("failed inserting cart item with error: %s", err)
	}
	return cart
}
