// Package client provides a typed HTTP client for the mock webhook service.
//
// It is the programmatic face of the test harness: suites construct payloads,
// post them through this client, and assert on the returned receipts plus the
// files the service leaves in its payload store.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/frappe-dwf/mock-webhook/internal/common/constants"
)

// Receipt is the response body the service returns for every stored payload.
type Receipt struct {
	Status    string `json:"status"`
	Saved     string `json:"saved"`
	RequestID string `json:"request_id"`
}

// StatusError is returned when the service answers with a non-success status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client communicates with a running mock webhook service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for the service at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Health checks the service health endpoint. It returns an error when the
// service is unreachable or reports anything but ok.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var status struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &status); err != nil {
		return fmt.Errorf("invalid health response: %w", err)
	}
	if status.Status != "ok" {
		return fmt.Errorf("service not ready: %q", status.Status)
	}
	return nil
}

// WaitReady polls the health endpoint until it succeeds or the context is done.
func (c *Client) WaitReady(ctx context.Context) error {
	var lastErr error
	for {
		if lastErr = c.Health(ctx); lastErr == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("service never became ready: %w", lastErr)
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// ReceiveIAN posts an Instance Availability Notification payload.
func (c *Client) ReceiveIAN(ctx context.Context, payload any) (Receipt, error) {
	return c.post(ctx, constants.ReceiveIANMethod, payload)
}

// CreatePPS posts a Performed Procedure Step payload.
func (c *Client) CreatePPS(ctx context.Context, payload any) (Receipt, error) {
	return c.post(ctx, constants.CreatePPSMethod, payload)
}

// CreateUPS posts a Unified Procedure Step payload.
func (c *Client) CreateUPS(ctx context.Context, payload any) (Receipt, error) {
	return c.post(ctx, constants.CreateUPSMethod, payload)
}

// PostRaw posts raw bytes to a webhook method without marshaling them first.
// Tests use it to exercise the malformed-payload paths.
func (c *Client) PostRaw(ctx context.Context, method string, body []byte) (Receipt, error) {
	return c.doPost(ctx, method, body)
}

func (c *Client) post(ctx context.Context, method string, payload any) (Receipt, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Receipt{}, fmt.Errorf("could not marshal payload: %w", err)
	}
	return c.doPost(ctx, method, body)
}

func (c *Client) doPost(ctx context.Context, method string, body []byte) (Receipt, error) {
	url := c.baseURL + constants.APIPrefix + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Receipt{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("posting to %s: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Receipt{}, fmt.Errorf("reading response from %s: %w", method, err)
	}

	if resp.StatusCode != http.StatusCreated {
		return Receipt{}, &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var r Receipt
	if err := json.Unmarshal(respBody, &r); err != nil {
		return Receipt{}, fmt.Errorf("invalid receipt from %s: %w", method, err)
	}
	return r, nil
}
