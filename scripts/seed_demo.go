//go:build ignore

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

// Seeds a product of each stock shape plus an address for a demo user, and
// prints a session token for that user.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg.Logger)
	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return err
	}

	flat, legacy, varied := uuid.New(), uuid.New(), uuid.New()
	suffix := flat.String()[:8]
	products := []struct {
		id        uuid.UUID
		name      string
		price     int
		stock     int
		sizeStock *string
	}{
		{flat, "ماگ سرامیکی", 180000, 5, nil},
		{legacy, "شلوار جین", 950000, 12, ptr(`{"30":{"Blue":4,"Black":2},"32":{"Blue":6}}`)},
		{varied, "هودی", 1200000, 9, nil},
	}
	for _, p := range products {
		if _, err := pool.Exec(ctx,
			`INSERT INTO products (id, name, slug, price, stock, size_stock, in_stock)
			 VALUES ($1, $2, $3, $4, $5, $6::jsonb, $5 > 0)`,
			p.id, p.name, "demo-"+suffix+"-"+p.id.String()[:4], p.price, p.stock, p.sizeStock); err != nil {
			return fmt.Errorf("failed to insert product: %w", err)
		}
	}

	for _, v := range []struct {
		size, color string
		stock       int
	}{{"M", "Red", 3}, {"M", "Blue", 2}, {"L", "Red", 4}} {
		if _, err := pool.Exec(ctx,
			`INSERT INTO product_variants (id, product_id, size, color, stock) VALUES ($1, $2, $3, $4, $5)`,
			uuid.New(), varied, v.size, v.color, v.stock); err != nil {
			return fmt.Errorf("failed to insert variant: %w", err)
		}
	}

	session := auth.Session{UserID: "demo-" + suffix, Phone: "09120000000"}
	address := &model.Address{UserID: session.UserID, FullName: "Demo User", Phone: session.Phone, City: "Tehran", Line: "Valiasr St."}
	if err := repository.NewAddressRepository(pool, logger).Create(ctx, address); err != nil {
		return err
	}

	token, err := auth.NewVerifier(cfg.Auth.JWTSecret).Issue(session, 24*time.Hour)
	if err != nil {
		return err
	}

	fmt.Printf("products: flat=%s legacy=%s variants=%s\n", flat, legacy, varied)
	fmt.Printf("address:  %s\n", address.ID)
	fmt.Printf("token:    %s\n", token)
	return nil
}

func ptr(s string) *string { return &s }
