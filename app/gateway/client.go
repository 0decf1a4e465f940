package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	testBaseURL = "https://stage-api.stage-easymerchant.io/api/v1"
	liveBaseURL = "https://api.easymerchant.io/api/v1"

	defaultHTTPTimeout = 30 * time.Second
)

type ClientConfig struct {
	APIKey      string
	APISecret   string
	Environment Environment
	HTTPTimeout time.Duration

	// BaseURL overrides the environment-selected URL. Tests only.
	BaseURL string
}

// Client performs one authenticated JSON call per invocation. The base URL
// is fixed at construction from the environment flag; credentials ride in
// the X-Api-Key / X-Api-Secret headers and are never logged.
type Client struct {
	cfg     ClientConfig
	baseURL string
	client  *http.Client
}

func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		if cfg.Environment == EnvironmentLive {
			baseURL = liveBaseURL
		} else {
			baseURL = testBaseURL
		}
	}

	return &Client{
		cfg:     cfg,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// do issues a single request and returns the raw response body. A failure to
// reach the vendor, and a non-2xx reply whose body is not JSON, both surface
// as a TransportError; a parseable body is returned as-is so the caller can
// read the vendor's own status field.
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &TransportError{Op: op, Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("X-Api-Key", c.cfg.APIKey)
	req.Header.Set("X-Api-Secret", c.cfg.APISecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode >= 400 && !json.Valid(responseBody) {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("vendor returned status=%d with unparseable body", resp.StatusCode)}
	}

	return responseBody, nil
}

func decodeResponse(op string, body []byte, v any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &DecodeError{Op: op, Err: err}
	}
	return nil
}
