package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/auth"
	"storefront/internal/database"
	"storefront/internal/handler"
	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// APIKey guards the admin routes of the test server.
	APIKey = "test-api-key"

	jwtSecret = "test-jwt-secret"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container with the application schema.
func SetupTestDB(t testing.TB) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}
	poolConfig.MaxConns = 10

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	if err := database.Migrate(ctx, pool, zerolog.Nop()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// CleanupDB removes all rows from every table.
func CleanupDB(t testing.TB, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `
		TRUNCATE order_items, orders, cart_items, carts, addresses, coupons,
			product_variants, products CASCADE
	`)
	if err != nil {
		t.Fatalf("failed to clean tables: %v", err)
	}
}

// App is the full HTTP stack wired against a test database.
type App struct {
	DB         *TestDB
	Handler    http.Handler
	Verifier   *auth.Verifier
	Products   repository.ProductRepository
	Carts      repository.CartRepository
	Coupons    repository.CouponRepository
	Addresses  repository.AddressRepository
	Orders     service.OrderService
	Dispatcher *notify.Dispatcher
}

// NewApp wires repositories, services, handlers and the router the same way
// cmd/api does. reservationTTL is passed to the cart and stock services.
func NewApp(t testing.TB, db *TestDB, reservationTTL time.Duration) *App {
	t.Helper()

	logger := zerolog.Nop()

	productRepo := repository.NewProductRepository(db.Pool, logger)
	cartRepo := repository.NewCartRepository(db.Pool, logger)
	orderRepo := repository.NewOrderRepository(db.Pool, logger)
	addressRepo := repository.NewAddressRepository(db.Pool, logger)
	couponRepo := repository.NewCouponRepository(db.Pool, logger)

	dispatcher := notify.NewDispatcher(notify.NewLogNotifier(logger), 5*time.Second, logger)
	t.Cleanup(dispatcher.Wait)

	productService := service.NewProductService(productRepo, logger)
	stockService := service.NewStockService(productRepo, cartRepo, reservationTTL, logger)
	cartService := service.NewCartService(cartRepo, productRepo, reservationTTL, logger)
	orderService := service.NewOrderService(orderRepo, cartRepo, productRepo, addressRepo, couponRepo, dispatcher, logger)

	opts := handler.Options{ExposeErrorDetail: true}
	handlers := router.Handlers{
		Product: handler.NewProductHandler(productService, stockService, opts, logger),
		Cart:    handler.NewCartHandler(cartService, opts, logger),
		Order:   handler.NewOrderHandler(orderService, opts, logger),
	}
	verifier := auth.NewVerifier(jwtSecret)

	return &App{
		DB:         db,
		Handler:    router.New(handlers, verifier, APIKey, logger),
		Verifier:   verifier,
		Products:   productRepo,
		Carts:      cartRepo,
		Coupons:    couponRepo,
		Addresses:  addressRepo,
		Orders:     orderService,
		Dispatcher: dispatcher,
	}
}

// Token issues a session token for userID.
func (a *App) Token(t testing.TB, userID string) string {
	t.Helper()

	token, err := a.Verifier.Issue(auth.Session{UserID: userID, Phone: "09120000000"}, time.Hour)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return token
}

// Do sends a request through the router. body is JSON-encoded when non-nil;
// token is sent as a bearer token when set.
func (a *App) Do(t testing.TB, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.Handler.ServeHTTP(w, req)
	return w
}

// SeedProduct inserts a product without variants. sizeStock is stored as
// the product's legacy stock document when non-empty.
func SeedProduct(t testing.TB, pool *pgxpool.Pool, name string, price int64, stockCount int, sizeStock string) uuid.UUID {
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
	if err != nil {
		t.Fatalf("failed to seed product %s: %v", name, err)
	}
	return id
}

// SeedVariant inserts a variant of productID.
func SeedVariant(t testing.TB, pool *pgxpool.Pool, productID uuid.UUID, size, color string, stockCount int) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO product_variants (id, product_id, size, color, stock)
		VALUES ($1, $2, $3, $4, $5)
	`, id, productID, size, color, stockCount)
	if err != nil {
		t.Fatalf("failed to seed variant: %v", err)
	}
	return id
}

// SeedAddress inserts an address owned by userID.
func (a *App) SeedAddress(t testing.TB, userID string) uuid.UUID {
	t.Helper()

	address := &model.Address{UserID: userID, FullName: "Test Customer", City: "Tehran"}
	if err := a.Addresses.Create(context.Background(), address); err != nil {
		t.Fatalf("failed to seed address: %v", err)
	}
	return address.ID
}

// SeedCoupon upserts c and returns its ID.
func (a *App) SeedCoupon(t testing.TB, c model.Coupon) uuid.UUID {
	t.Helper()

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if err := a.Coupons.Upsert(context.Background(), []model.Coupon{c}); err != nil {
		t.Fatalf("failed to seed coupon: %v", err)
	}
	return c.ID
}

// VariantStock reads a variant's stock column.
func VariantStock(t testing.TB, pool *pgxpool.Pool, id uuid.UUID) int {
	t.Helper()

	var n int
	if err := pool.QueryRow(context.Background(), `SELECT stock FROM product_variants WHERE id = $1`, id).Scan(&n); err != nil {
		t.Fatalf("failed to read variant stock: %v", err)
	}
	return n
}

// ProductStock reads a product's aggregate stock column.
func ProductStock(t testing.TB, pool *pgxpool.Pool, id uuid.UUID) int {
	t.Helper()

	var n int
	if err := pool.QueryRow(context.Background(), `SELECT stock FROM products WHERE id = $1`, id).Scan(&n); err != nil {
		t.Fatalf("failed to read product stock: %v", err)
	}
	return n
}

// CountRows returns the number of rows in table.
func CountRows(t testing.TB, pool *pgxpool.Pool, table string) int {
	t.Helper()

	var n int
	if err := pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	return n
}
