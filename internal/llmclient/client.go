// File: internal/llmclient/client.go
// Description: Shared HTTP plumbing for the provider clients. One HTTPS
// POST per completion attempt; no retries, no streaming. The API key goes
// into a header and nowhere else — in particular, never into a log field.

package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxResponseBytes caps how much of a provider response we are willing to
// read; completions here are a few hundred tokens at most.
const maxResponseBytes = 1 << 20

func newHTTPClient() *http.Client {
	return &http.Client{
		// Generous transport-level bound; the planner enforces the real
		// per-call timeout through its context.
		Timeout: 60 * time.Second,
	}
}

// postJSON marshals body, POSTs it with the given headers, and decodes the
// 2xx JSON response into out. Any non-2xx status is an error carrying the
// status code but not the response body (which may echo request content).
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("transport error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("malformed provider payload: %w", err)
	}
	return nil
}
