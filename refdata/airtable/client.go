// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/poiesic/recallit/refdata"
	"github.com/poiesic/recallit/storage"
)

const (
	// DefaultBaseURL is the Airtable REST endpoint.
	DefaultBaseURL = "https://api.airtable.com/v0"

	// DefaultRateLimit is Airtable's per-base request limit.
	DefaultRateLimit = 5

	pageSize = 100
)

var (
	// ErrBaseIDRequired is returned when no base ID is configured.
	ErrBaseIDRequired = errors.New("airtable base ID required")

	// ErrAPIKeyRequired is returned when no API key is configured.
	ErrAPIKeyRequired = errors.New("airtable API key required")
)

// APIError is a non-2xx response from Airtable.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("airtable API error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("airtable API error: status %d: %s: %s", e.StatusCode, e.Type, e.Message)
}

// Client is a refdata.Source backed by the Airtable REST API.
type Client struct {
	baseURL    string
	baseID     string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

var _ refdata.Source = (*Client)(nil)

// Option configures a Client.
type Option func(*Client) error

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) error {
		if _, err := url.Parse(baseURL); err != nil {
			return fmt.Errorf("invalid base URL: %w", err)
		}
		c.baseURL = strings.TrimRight(baseURL, "/")
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) error {
		if client == nil {
			return errors.New("http client required")
		}
		c.httpClient = client
		return nil
	}
}

// WithRateLimit sets the maximum requests per second. Zero disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) error {
		if perSecond < 0 {
			return fmt.Errorf("rate limit must not be negative, got %v", perSecond)
		}
		if perSecond == 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return nil
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger.With("component", "airtable")
		return nil
	}
}

// NewClient creates an Airtable client for the base in config.
func NewClient(config *refdata.Config, opts ...Option) (*Client, error) {
	if config == nil || config.BaseID == "" {
		return nil, ErrBaseIDRequired
	}
	if config.APIKey == "" {
		return nil, ErrAPIKeyRequired
	}
	c := &Client{
		baseURL:    DefaultBaseURL,
		baseID:     config.BaseID,
		apiKey:     config.APIKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		logger:     slog.Default().With("component", "airtable"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

type listResponse struct {
	Records []refdata.Record `json:"records"`
	Offset  string           `json:"offset"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) tableURL(table string) string {
	return c.baseURL + "/" + url.PathEscape(c.baseID) + "/" + url.PathEscape(table)
}

// ListRecords pages through table until every matching record is read or
// q.MaxRecords is reached.
func (c *Client) ListRecords(ctx context.Context, table string, q refdata.Query) ([]refdata.Record, error) {
	records := []refdata.Record{}
	offset := ""
	for {
		params := url.Values{}
		params.Set("pageSize", strconv.Itoa(pageSize))
		if q.FilterByFormula != "" {
			params.Set("filterByFormula", q.FilterByFormula)
		}
		if q.MaxRecords > 0 {
			params.Set("maxRecords", strconv.Itoa(q.MaxRecords))
		}
		if offset != "" {
			params.Set("offset", offset)
		}

		var page listResponse
		if err := c.do(ctx, http.MethodGet, c.tableURL(table)+"?"+params.Encode(), nil, &page); err != nil {
			return nil, err
		}
		records = append(records, page.Records...)
		c.logger.Debug("fetched page", "table", table, "records", len(page.Records), "total", len(records))

		if q.MaxRecords > 0 && len(records) >= q.MaxRecords {
			return records[:q.MaxRecords], nil
		}
		if page.Offset == "" {
			return records, nil
		}
		offset = page.Offset
	}
}

// GetRecord fetches one record by ID.
func (c *Client) GetRecord(ctx context.Context, table, id string) (*refdata.Record, error) {
	var record refdata.Record
	if err := c.do(ctx, http.MethodGet, c.tableURL(table)+"/"+url.PathEscape(id), nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateRecord patches fields of one record.
func (c *Client) UpdateRecord(ctx context.Context, table, id string, fields map[string]any) (*refdata.Record, error) {
	body, err := json.Marshal(map[string]any{"fields": fields})
	if err != nil {
		return nil, fmt.Errorf("failed to encode update: %w", err)
	}
	var record refdata.Record
	if err := c.do(ctx, http.MethodPatch, c.tableURL(table)+"/"+url.PathEscape(id), body, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// do sends one rate-limited request and decodes a JSON response into out.
// A 404 is reported as storage.ErrNotFound.
func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("airtable request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return storage.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var parsed errorResponse
		if json.Unmarshal(data, &parsed) == nil {
			apiErr.Type = parsed.Error.Type
			apiErr.Message = parsed.Error.Message
		}
		c.logger.Warn("airtable request rejected", "method", method, "status", resp.StatusCode)
		return apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
