// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package client is a small HTTP client for the account API, used by accountctl.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIError is a non-2xx response from the service.
type APIError struct {
	Message string `json:"error"`
	Kind    string `json:"kind"`
	Status  int    `json:"-"`
}

func (e *APIError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("%d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Kind, e.Message)
}

// Client calls the account API with an application key.
type Client struct {
	http     *http.Client
	endpoint string
	keyName  string
	secret   string
}

// New creates a client. auth is the application key as name:secret.
func New(endpoint, auth string, timeout time.Duration) (*Client, error) {
	name, secret, ok := strings.Cut(auth, ":")
	if !ok {
		return nil, fmt.Errorf("auth must have the form name:secret")
	}
	return &Client{
		http:     &http.Client{Timeout: timeout},
		endpoint: strings.TrimSuffix(endpoint, "/"),
		keyName:  name,
		secret:   secret,
	}, nil
}

// CreateUser posts a signup document and returns the created user as JSON.
func (c *Client) CreateUser(ctx context.Context, body []byte) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/users", nil, "", body)
}

// GetUser fetches a user.
func (c *Client) GetUser(ctx context.Context, email, password string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/users", url.Values{"email": {email}}, password, nil)
}

// DeleteUser deletes a user and returns the deleted record.
func (c *Client) DeleteUser(ctx context.Context, email, password string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, "/users", url.Values{"email": {email}}, password, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, password string, body []byte) (json.RawMessage, error) {
	target := c.endpoint + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.SetBasicAuth(c.keyName, c.secret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if password != "" {
		req.Header.Set("password", password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		if jsonErr := json.Unmarshal(data, apiErr); jsonErr != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return nil, apiErr
	}
	return json.RawMessage(data), nil
}
