/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package client is a typed HTTP client for rucat-server, the
// counterpart to internal/httpapi. Grounded on
// original_source/rucat_client's resource_client.rs for the method set
// and credential handling, generalized from a single create_engine call
// to the full engine CRUD surface the way
// r3e-network-service_layer/sdk/go/client builds its typed SDK: one
// low-level request helper plus thin, typed methods over it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"rucat.dev/rucat/internal/auth"
	"rucat.dev/rucat/internal/engine"
)

// Config holds client configuration.
type Config struct {
	// BaseURL is the root URL of the rucat-server instance, e.g.
	// "http://localhost:3000".
	BaseURL string
	// Credentials authenticates every request when non-nil. Nil means
	// no Authorization header is sent, mirroring the original's
	// Option<Credentials>.
	Credentials *auth.Credentials
	Timeout     time.Duration
}

// Client is the rucat-server HTTP client.
type Client struct {
	config     Config
	httpClient *http.Client
}

// Error represents a non-2xx response from rucat-server, decoded from
// the {"error": "..."} body internal/httpapi's writeError produces.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("rucat-server returned %d: %s", e.StatusCode, e.Message)
}

// New creates a new rucat-server client.
func New(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

func (c *Client) request(ctx context.Context, method, path string, body, result any) error {
	fullURL := strings.TrimRight(c.config.BaseURL, "/") + path

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authenticate(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		var parsed struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(respBody, &parsed)
		msg := parsed.Error
		if msg == "" {
			msg = strings.TrimSpace(string(respBody))
		}
		return &Error{StatusCode: resp.StatusCode, Message: msg}
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// authenticate sets the Authorization header the same way the
// original's enable_auth_for_request matches on Credentials.
func (c *Client) authenticate(req *http.Request) {
	if c.config.Credentials == nil {
		return
	}
	switch c.config.Credentials.Scheme {
	case auth.SchemeBasic:
		req.SetBasicAuth(c.config.Credentials.Username, c.config.Credentials.Password)
	case auth.SchemeBearer:
		req.Header.Set("Authorization", "Bearer "+c.config.Credentials.Token)
	}
}

type createEngineResponse struct {
	Id string `json:"id"`
}

// CreateEngine submits a new engine and returns its assigned id.
func (c *Client) CreateEngine(ctx context.Context, req engine.CreateRequest) (engine.Id, error) {
	var result createEngineResponse
	if err := c.request(ctx, http.MethodPost, "/engine", req, &result); err != nil {
		return engine.Id{}, err
	}
	return engine.NewId(result.Id)
}

// GetEngine fetches the current record for id.
func (c *Client) GetEngine(ctx context.Context, id engine.Id) (*engine.Info, error) {
	var result engine.Info
	if err := c.request(ctx, http.MethodGet, "/engine/"+id.String(), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListEngines returns every known engine id.
func (c *Client) ListEngines(ctx context.Context) ([]engine.Id, error) {
	var raw []string
	if err := c.request(ctx, http.MethodGet, "/engine", nil, &raw); err != nil {
		return nil, err
	}
	ids := make([]engine.Id, 0, len(raw))
	for _, s := range raw {
		id, err := engine.NewId(s)
		if err != nil {
			return nil, fmt.Errorf("parse engine id %q: %w", s, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// DeleteEngine removes an engine's record. The server rejects this
// unless the engine has reached a stable terminal state.
func (c *Client) DeleteEngine(ctx context.Context, id engine.Id) error {
	return c.request(ctx, http.MethodDelete, "/engine/"+id.String(), nil, nil)
}

// StopEngine requests termination of a running engine.
func (c *Client) StopEngine(ctx context.Context, id engine.Id) error {
	return c.request(ctx, http.MethodPost, "/engine/"+id.String()+"/stop", nil, nil)
}

// RestartEngine requests a terminated engine be started again.
func (c *Client) RestartEngine(ctx context.Context, id engine.Id) error {
	return c.request(ctx, http.MethodPost, "/engine/"+id.String()+"/restart", nil, nil)
}
