// Package apper talks to the hosted backend-as-a-service that owns the
// destination, booking, passenger and trip plan tables.
package apper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/drstein77/shopsphere/internal/records"
)

const (
	headerProjectID = "X-Apper-Project-Id"
	headerPublicKey = "X-Apper-Public-Key"

	defaultTimeout = 10 * time.Second
)

var ErrMissingCredentials = errors.New("apper project id or public key is empty")

// response is the envelope every endpoint answers with
type response struct {
	Success *bool           `json:"success,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data"`
}

type Client struct {
	baseURL   string
	projectID string
	publicKey string
	http      *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

func NewClient(baseURL, projectID, publicKey string, opts ...Option) (*Client, error) {
	if projectID == "" || publicKey == "" {
		return nil, ErrMissingCredentials
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}

	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		projectID: projectID,
		publicKey: publicKey,
		http:      &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) FetchRecords(ctx context.Context, table string, opts records.QueryOptions) ([]json.RawMessage, error) {
	data, err := c.do(ctx, http.MethodPost, c.recordsURL(table)+"/query", opts)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	var result []json.RawMessage
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode %s records: %w", table, err)
	}
	return result, nil
}

func (c *Client) GetRecordByID(ctx context.Context, table string, id int64) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, c.recordsURL(table)+"/"+strconv.FormatInt(id, 10), nil)
}

func (c *Client) CreateRecord(ctx context.Context, table string, record any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, c.recordsURL(table), map[string]any{"record": record})
}

func (c *Client) UpdateRecord(ctx context.Context, table string, id int64, record any) (json.RawMessage, error) {
	fields := map[string]any{}
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("record is not an object: %w", err)
	}
	fields["Id"] = id

	return c.do(ctx, http.MethodPut, c.recordsURL(table), map[string]any{"record": fields})
}

func (c *Client) DeleteRecord(ctx context.Context, table string, ids []int64) error {
	_, err := c.do(ctx, http.MethodDelete, c.recordsURL(table), map[string]any{"RecordIds": ids})
	return err
}

func (c *Client) recordsURL(table string) string {
	return c.baseURL + "/api/v1/tables/" + url.PathEscape(table) + "/records"
}

func (c *Client) do(ctx context.Context, method, target string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("http.NewRequest: %w", err)
	}
	req.Header.Set(headerProjectID, c.projectID)
	req.Header.Set(headerPublicKey, c.publicKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && method == http.MethodGet {
		return nil, nil
	}
	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	var env response
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if env.Success != nil && !*env.Success {
		return nil, fmt.Errorf("backend rejected request: %s", env.Message)
	}

	return env.Data, nil
}

// StatusError is returned for non-2xx answers
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}
