package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fieldreport/internal/model"
	"fieldreport/internal/report"
)

// Client talks to the delivery backend.
type Client struct {
	baseURL       string
	token         string
	httpClient    *http.Client
	submitTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithToken sends a bearer token with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSubmitTimeout bounds report submissions. Zero waits indefinitely.
func WithSubmitTimeout(d time.Duration) Option {
	return func(c *Client) { c.submitTimeout = d }
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("API error: status %d", e.Code)
	}
	return fmt.Sprintf("API error: status %d: %s", e.Code, e.Body)
}

const maxErrorBody = 2048

// ListDeliveries fetches the courier's ongoing deliveries.
func (c *Client) ListDeliveries(ctx context.Context) ([]model.Delivery, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/deliveries", nil)
	if err != nil {
		return nil, fmt.Errorf("request creation failed: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var deliveries []model.Delivery
	if err := json.NewDecoder(resp.Body).Decode(&deliveries); err != nil {
		return nil, fmt.Errorf("JSON decode error: %w", err)
	}
	return deliveries, nil
}

// UpdateDelivery posts a damage report as multipart/form-data to
// /api/update-delivery/{delivery_id}. Any 2xx response is a success.
func (c *Client) UpdateDelivery(ctx context.Context, p report.Payload) error {
	if c.submitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.submitTimeout)
		defer cancel()
	}

	body, contentType, err := encodeMultipart(p)
	if err != nil {
		return err
	}

	reqURL := fmt.Sprintf("%s/api/update-delivery/%s", c.baseURL, url.PathEscape(string(p.DeliveryID)))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, body)
	if err != nil {
		return fmt.Errorf("request creation failed: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
}
