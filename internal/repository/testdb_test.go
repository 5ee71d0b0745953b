package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"storefront/internal/database"
	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL testcontainer with the application schema
// applied and returns a connection pool.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, database.Migrate(ctx, pool, zerolog.Nop()))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// seedProduct inserts a product row without variants.
func seedProduct(t *testing.T, pool *pgxpool.Pool, name string, price int64, stockCount int, sizeStock string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	var doc interface{}
	if sizeStock != "" {
		doc = []byte(sizeStock)
	}

	_, err := pool.Exec(context.Background(), `
		INSERT INTO products (id, name, slug, price, stock, size_stock, in_stock)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $5 > 0)
	`, id, name, id.String(), decimal.NewFromInt(price), stockCount, doc)
	require.NoError(t, err)

	return id
}

// seedVariant inserts a variant row for productID.
func seedVariant(t *testing.T, pool *pgxpool.Pool, productID uuid.UUID, size, color string, stockCount int) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO product_variants (id, product_id, size, color, stock)
		VALUES ($1, $2, $3, $4, $5)
	`, id, productID, size, color, stockCount)
	require.NoError(t, err)

	return id
}

// seedAddress inserts an address owned by userID.
func seedAddress(t *testing.T, pool *pgxpool.Pool, userID string) uuid.UUID {
	t.Helper()

	repo := NewAddressRepository(pool, zerolog.Nop())
	address := &model.Address{UserID: userID, FullName: "Sara Ahmadi", Phone: "09120000000", City: "Tehran"}
	require.NoError(t, repo.Create(context.Background(), address))

	return address.ID
}

func productStock(t *testing.T, pool *pgxpool.Pool, id uuid.UUID) (int, bool, map[string]any) {
	t.Helper()

	var count int
	var inStock bool
	var raw []byte
	err := pool.QueryRow(context.Background(),
		`SELECT stock, in_stock, size_stock FROM products WHERE id = $1`, id).Scan(&count, &inStock, &raw)
	require.NoError(t, err)

	var doc map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &doc))
	}
	return count, inStock, doc
}

func variantStock(t *testing.T, pool *pgxpool.Pool, id uuid.UUID) int {
	t.Helper()

	var count int
	err := pool.QueryRow(context.Background(),
		`SELECT stock FROM product_variants WHERE id = $1`, id).Scan(&count)
	require.NoError(t, err)
	return count
}
