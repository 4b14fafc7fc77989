// Package oracle provides the outbound HTTP client for the randomness
// oracle service.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// requestBody mirrors the oracle's randomness request JSON.
type requestBody struct {
	KeyID string `json:"key_id"`
	Fee   int64  `json:"fee"`
}

// requestResponse mirrors the oracle's randomness request acknowledgement.
type requestResponse struct {
	RequestID string `json:"request_id"`
}

// Client submits randomness requests to a remote oracle over HTTP. The
// oracle acknowledges each request with an identifier and later delivers
// the randomness through the callback endpoint.
type Client struct {
	url    string
	client *http.Client
}

// NewClient creates an oracle client that POSTs to the given URL.
func NewClient(url string, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{url: url, client: client}
}

// Request submits a randomness request and returns the oracle-assigned
// request identifier.
func (c *Client) Request(ctx context.Context, keyID string, fee int64) (string, error) {
	if c == nil || strings.TrimSpace(c.url) == "" {
		return "", fmt.Errorf("oracle url is required")
	}

	payload, err := json.Marshal(requestBody{KeyID: keyID, Fee: fee})
	if err != nil {
		return "", fmt.Errorf("encode oracle request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build oracle request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("oracle request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("oracle returned %s", resp.Status)
	}

	var result requestResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode oracle response: %w", err)
	}
	if strings.TrimSpace(result.RequestID) == "" {
		return "", fmt.Errorf("oracle response is missing a request id")
	}
	return result.RequestID, nil
}
