//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

const defaultDonationsHTTPBase = "http://localhost:48080"

func donationsHTTPBase() string {
	if v := os.Getenv("E2E_DONATIONS_HTTP_BASE"); v != "" {
		return v
	}
	return defaultDonationsHTTPBase
}

func donationsAPIKey() string {
	return os.Getenv("E2E_DONATIONS_API_KEY")
}

type httpClient struct {
	baseURL string
	client  *http.Client
}

func newHTTPClient(baseURL string) *httpClient {
	return &httpClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *httpClient) doJSON(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal failed: %v", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		t.Fatalf("new request failed: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", fmt.Sprintf("e2e-http-%d", time.Now().UnixNano()))
	if key := donationsAPIKey(); key != "" {
		req.Header.Set("X-Api-Key", key)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("http request failed: %v", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response failed: %v", err)
	}

	return resp, bodyBytes
}

func waitForHTTP(baseURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 2 * time.Second}
	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("service at %s did not become healthy within %s", baseURL, timeout)
}

func TestMain(m *testing.M) {
	if err := waitForHTTP(donationsHTTPBase(), 30*time.Second); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func TestHealth(t *testing.T) {
	c := newHTTPClient(donationsHTTPBase())
	resp, body := c.doJSON(t, http.MethodGet, "/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", resp.StatusCode, body)
	}
}

func TestCreateDonationValidation(t *testing.T) {
	c := newHTTPClient(donationsHTTPBase())
	resp, body := c.doJSON(t, http.MethodPost, "/donations", map[string]any{
		"caller_service": "e2e",
		"email":          "e2e@example.com",
		"amount":         "0",
		"currency":       "USD",
		"payment_method": "card",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", resp.StatusCode, body)
	}
}

func TestWebhookUnknownListenerRejected(t *testing.T) {
	c := newHTTPClient(donationsHTTPBase())
	resp, body := c.doJSON(t, http.MethodPost, "/?give-listener=paypal", map[string]any{
		"status": "Paid",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", resp.StatusCode, body)
	}
}

func TestGetDonationMissingIsNotFound(t *testing.T) {
	c := newHTTPClient(donationsHTTPBase())
	resp, body := c.doJSON(t, http.MethodGet, "/donations/999999999", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", resp.StatusCode, body)
	}
}
