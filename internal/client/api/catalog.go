package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/techstore/internal/client/models"
	"github.com/dmitrijs2005/techstore/internal/logging"
	"github.com/sethvargo/go-retry"
)

// CatalogAPI lists products of one category.
type CatalogAPI interface {
	Products(ctx context.Context, category models.Category) ([]models.Product, error)
}

// CatalogClient fetches listings with a per-attempt timeout and a constant
// backoff between attempts. An ErrInvalidPayload reply is never retried.
type CatalogClient struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	retries uint64
	backoff time.Duration
	log     logging.Logger
}

type CatalogOption func(*CatalogClient)

func WithCatalogHTTPClient(c *http.Client) CatalogOption {
	return func(cc *CatalogClient) { cc.http = c }
}

// WithRetryPolicy sets the per-attempt timeout, the number of retries after
// the first attempt and the pause between attempts.
func WithRetryPolicy(timeout time.Duration, retries int, backoff time.Duration) CatalogOption {
	return func(cc *CatalogClient) {
		cc.timeout = timeout
		if retries < 0 {
			retries = 0
		}
		cc.retries = uint64(retries)
		cc.backoff = backoff
	}
}

func WithCatalogLogger(l logging.Logger) CatalogOption {
	return func(cc *CatalogClient) { cc.log = l }
}

func NewCatalogClient(baseURL string, opts ...CatalogOption) *CatalogClient {
	c := &CatalogClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		timeout: 10 * time.Second,
		retries: 2,
		backoff: 2 * time.Second,
		log:     logging.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.backoff <= 0 {
		c.backoff = time.Millisecond
	}
	c.log = c.log.With("component", "catalog_api")
	return c
}

func (c *CatalogClient) Products(ctx context.Context, category models.Category) ([]models.Product, error) {
	b := retry.WithMaxRetries(c.retries, retry.NewConstant(c.backoff))

	var (
		products []models.Product
		attempt  int
	)
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		c.log.Debug(ctx, "fetching products", "category", category, "attempt", attempt)

		p, err := c.fetch(ctx, category)
		if err == nil {
			products = p
			return nil
		}
		if errors.Is(err, ErrInvalidPayload) {
			return err
		}
		c.log.Warn(ctx, "product fetch failed", "category", category, "attempt", attempt, "error", err)
		return retry.RetryableError(err)
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", category, err)
	}

	c.log.Info(ctx, "products loaded", "category", category, "count", len(products))
	return products, nil
}

func (c *CatalogClient) fetch(ctx context.Context, category models.Category) ([]models.Product, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+string(category), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode}
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrNetwork, err)
	}
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		return nil, ErrInvalidPayload
	}

	var products []models.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return products, nil
}
