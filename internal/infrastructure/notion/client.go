// Package notion is the Tracker client: a thin wrapper over the Notion REST API
// that reads and writes Dev Tasks pages as tracking.Task values.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/felixgeelhaar/tasksync/pkg/domain/tracking"
)

const (
	APIVersion     = "2022-06-28"
	DefaultBaseURL = "https://api.notion.com/v1"

	// maxPageSize is the largest page_size the query endpoint accepts.
	maxPageSize = 100
)

// Client talks to one Notion database.
type Client struct {
	token      string
	databaseID string
	baseURL    string
	http       *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client for databaseID authenticated with token.
func NewClient(token, databaseID string, opts ...Option) *Client {
	c := &Client{
		token:      token,
		databaseID: databaseID,
		baseURL:    DefaultBaseURL,
		http:       http.DefaultClient,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ tracking.TaskStore = (*Client)(nil)

// queryResult is the response from querying a database.
type queryResult struct {
	Results    []Page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, body any) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", APIVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("notion %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &tracking.ExternalAPIError{
			System:     tracking.SystemTracker,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	return respBody, nil
}

// Query returns at most pageSize tasks matching filter. A single page is
// requested; pageSize is the caller's cap on work per run.
func (c *Client) Query(ctx context.Context, filter tracking.Filter, pageSize int) ([]tracking.Task, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("query filter: %w", err)
	}
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	body := map[string]any{
		"filter":    encodeFilter(filter),
		"page_size": pageSize,
	}

	respBody, err := c.doRequest(ctx, http.MethodPost, "/databases/"+c.databaseID+"/query", body)
	if err != nil {
		return nil, err
	}

	var result queryResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decode query result: %w", err)
	}

	tasks := make([]tracking.Task, 0, len(result.Results))
	for _, page := range result.Results {
		tasks = append(tasks, page.Task())
		if len(tasks) == pageSize {
			break
		}
	}

	c.logger.Debug("notion query", "database", c.databaseID, "results", len(tasks), "has_more", result.HasMore)
	return tasks, nil
}

// Create adds a page to the database.
func (c *Client) Create(ctx context.Context, fields tracking.TaskFields) (tracking.Task, error) {
	body := map[string]any{
		"parent": map[string]string{
			"database_id": c.databaseID,
		},
		"properties": encodeProperties(fields),
	}

	respBody, err := c.doRequest(ctx, http.MethodPost, "/pages", body)
	if err != nil {
		return tracking.Task{}, err
	}

	var page Page
	if err := json.Unmarshal(respBody, &page); err != nil {
		return tracking.Task{}, fmt.Errorf("decode page: %w", err)
	}

	c.logger.Debug("notion page created", "page", shortenID(page.ID))
	return page.Task(), nil
}

// Update patches the properties of page id.
func (c *Client) Update(ctx context.Context, id string, fields tracking.TaskFields) (tracking.Task, error) {
	body := map[string]any{
		"properties": encodeProperties(fields),
	}

	respBody, err := c.doRequest(ctx, http.MethodPatch, "/pages/"+id, body)
	if err != nil {
		return tracking.Task{}, err
	}

	var page Page
	if err := json.Unmarshal(respBody, &page); err != nil {
		return tracking.Task{}, fmt.Errorf("decode page: %w", err)
	}

	c.logger.Debug("notion page updated", "page", shortenID(id))
	return page.Task(), nil
}

func shortenID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
