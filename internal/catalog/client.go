// Package catalog fetches product metadata from an external product API and
// joins it onto sales records.
package catalog

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sales-analytics-service/internal/models"
	"sales-analytics-service/pkg/errors"
	"sales-analytics-service/pkg/logger"

	"github.com/spf13/cast"
)

// Config holds product catalog client configuration
type Config struct {
	BaseURL   string        `mapstructure:"url"`
	Limit     int           `mapstructure:"limit"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// DefaultConfig returns the default catalog configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL:   "https://dummyjson.com",
		Limit:     100,
		Timeout:   10 * time.Second,
		UserAgent: "salesreport/1.0",
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("catalog url cannot be empty")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("catalog url must be absolute, got %q", c.BaseURL)
	}
	if c.Limit <= 0 {
		return fmt.Errorf("catalog limit must be positive, got %d", c.Limit)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("catalog timeout must be positive, got %v", c.Timeout)
	}
	return nil
}

// productsResponse is the JSON body of the product listing endpoint. Entries
// stay raw so ids and numbers sent as strings are still accepted.
type productsResponse struct {
	Products []map[string]interface{} `json:"products"`
	Total    int                      `json:"total"`
}

// toProduct converts one raw catalog entry
func toProduct(raw map[string]interface{}) (models.Product, error) {
	value, ok := raw["id"]
	if !ok || value == nil {
		return models.Product{}, fmt.Errorf("product has no id")
	}
	id, err := cast.ToIntE(value)
	if err != nil {
		return models.Product{}, fmt.Errorf("invalid product id %v: %w", value, err)
	}

	return models.Product{
		ID:       id,
		Title:    cast.ToString(raw["title"]),
		Category: cast.ToString(raw["category"]),
		Brand:    cast.ToString(raw["brand"]),
		Price:    cast.ToFloat64(raw["price"]),
		Rating:   cast.ToFloat64(raw["rating"]),
	}, nil
}

// Client talks to the product catalog API
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient creates a new catalog client
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "catalog", config.BaseURL, err)
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger.WithComponent("catalog"),
	}, nil
}

// Endpoint returns the URL of the product listing
func (c *Client) Endpoint() string {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(c.config.Limit))
	return fmt.Sprintf("%s/products?%s", strings.TrimSuffix(c.config.BaseURL, "/"), params.Encode())
}

// FetchAll retrieves the product listing
func (c *Client) FetchAll(ctx context.Context) ([]models.Product, error) {
	endpoint := c.Endpoint()
	start := time.Now()

	c.logger.WithField("endpoint", endpoint).Info("Fetching product catalog")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.NetworkError(errors.CodeConnectionFailed, endpoint, err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("endpoint", endpoint).Warn("Catalog request failed")
		return nil, classify(endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		code := errors.CodeBadResponse
		if resp.StatusCode >= http.StatusInternalServerError {
			code = errors.CodeServiceUnavailable
		}
		return nil, errors.NetworkError(code, endpoint,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))).
			WithContext("status", resp.StatusCode)
	}

	var payload productsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.NetworkError(errors.CodeBadResponse, endpoint, fmt.Errorf("failed to decode response: %w", err))
	}

	products := make([]models.Product, 0, len(payload.Products))
	skipped := 0
	for _, raw := range payload.Products {
		product, err := toProduct(raw)
		if err != nil {
			c.logger.WithError(err).Debug("Skipping catalog entry")
			skipped++
			continue
		}
		products = append(products, product)
	}

	c.logger.WithFields(logger.Fields{
		"products": len(products),
		"skipped":  skipped,
		"duration": time.Since(start).String(),
	}).Info("Product catalog fetched")

	return products, nil
}

func classify(endpoint string, err error) error {
	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
		return errors.NetworkError(errors.CodeTimeout, endpoint, err)
	}
	if stderrors.Is(err, context.Canceled) {
		return errors.InternalError(errors.CodeCancelled, "catalog fetch", err)
	}
	return errors.NetworkError(errors.CodeConnectionFailed, endpoint, err)
}
