// Package stockclient is a Go client for the storefront's stock endpoints,
// for product pages and other consumers that show availability. Results are
// cached and are never authoritative: the server re-validates every cart
// mutation and checkout on its own.
package stockclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"storefront/internal/model"
	"storefront/internal/stock"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog"
)

const defaultCacheSize = 128

// Client reports stock for a single product. The product record backs the
// static helpers; FetchRealTimeStock asks the server, which also subtracts
// what shoppers hold in their carts.
type Client struct {
	baseURL    string
	productID  uuid.UUID
	httpClient *http.Client
	cache      *lru.Cache
	logger     zerolog.Logger

	mu     sync.RWMutex
	loaded bool
	source stock.Source
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	cacheSize  int
	logger     zerolog.Logger
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// WithCacheSize bounds the number of cached lookups.
func WithCacheSize(n int) Option {
	return func(o *clientOptions) { o.cacheSize = n }
}

// WithLogger sets the client's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// New creates a client for productID against the API at baseURL.
func New(baseURL string, productID uuid.UUID, opts ...Option) (*Client, error) {
	o := clientOptions{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cacheSize:  defaultCacheSize,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	cache, err := lru.New(o.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create stock cache: %w", err)
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		productID:  productID,
		httpClient: o.httpClient,
		cache:      cache,
		logger:     o.logger.With().Str("component", "stock-client").Str("product_id", productID.String()).Logger(),
	}, nil
}

// Load fetches the product record that backs the static helpers.
func (c *Client) Load(ctx context.Context) error {
	var product model.Product
	if err := c.get(ctx, "/api/products/"+c.productID.String(), nil, &product); err != nil {
		return err
	}
	c.SetProduct(&product)
	return nil
}

// SetProduct replaces the product record without a request.
func (c *Client) SetProduct(p *model.Product) {
	src := stock.NewSource(p)

	c.mu.Lock()
	c.source = src
	c.loaded = true
	c.mu.Unlock()

	c.logger.Debug().Str("kind", src.Kind().String()).Msg("product stock loaded")
}

// cacheKey is the variant ID when known, otherwise "size-color".
func cacheKey(size, color string, variantID *uuid.UUID) string {
	if variantID != nil {
		return variantID.String()
	}
	return size + "-" + color
}

// FetchRealTimeStock returns what can still be added to a cart for the
// selection, reading through the cache.
func (c *Client) FetchRealTimeStock(ctx context.Context, size, color string, variantID *uuid.UUID) (int, error) {
	key := cacheKey(size, color, variantID)
	if v, ok := c.cache.Get(key); ok {
		return v.(int), nil
	}

	query := url.Values{}
	if variantID != nil {
		query.Set("variantId", variantID.String())
	} else {
		query.Set("productId", c.productID.String())
		if size != "" {
			query.Set("size", size)
		}
		if color != "" {
			query.Set("color", color)
		}
	}

	var resp model.StockLookupResponse
	if err := c.get(ctx, "/api/products/stock", query, &resp); err != nil {
		return 0, err
	}

	c.cache.Add(key, resp.AvailableStock)
	c.logger.Debug().Str("key", key).Int("available", resp.AvailableStock).Msg("stock fetched")
	return resp.AvailableStock, nil
}

// Invalidate drops every cached lookup. Call it after each successful cart
// mutation.
func (c *Client) Invalidate() {
	c.cache.Purge()
}

// GetAvailableStockForSizeColor returns the stock of one size and color.
// Before Load or SetProduct every helper reports zero.
func (c *Client) GetAvailableStockForSizeColor(size, color string) int {
	src, ok := c.current()
	if !ok {
		return 0
	}
	return src.Base(nil, size, color)
}

// GetAvailableStockForSize returns the stock of a size across all colors.
func (c *Client) GetAvailableStockForSize(size string) int {
	src, ok := c.current()
	if !ok {
		return 0
	}
	return src.ForSize(size)
}

// GetAvailableStockForColor returns the stock of a color across all sizes.
func (c *Client) GetAvailableStockForColor(color string) int {
	src, ok := c.current()
	if !ok {
		return 0
	}
	return src.ForColor(color)
}

// GetTotalAvailableStock returns the product's overall stock.
func (c *Client) GetTotalAvailableStock() int {
	src, ok := c.current()
	if !ok {
		return 0
	}
	return src.Total()
}

// CheckCompletelyOutOfStock reports whether nothing of the product is left.
func (c *Client) CheckCompletelyOutOfStock() bool {
	return c.GetTotalAvailableStock() <= 0
}

func (c *Client) current() (stock.Source, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.source, c.loaded
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dst any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body model.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
			return fmt.Errorf("%s returned status %d", path, resp.StatusCode)
		}
		c.logger.Debug().Str("path", path).Str("error", body.Error).Msg("stock request rejected")
		return &model.DomainError{Code: body.Error, Message: body.Message, ProductID: body.ProductID, Available: body.AvailableStock}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
