package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/medsouq/marketplace/pkg/metrics"
)

// providerClient wraps outbound HTTPS calls to a payment provider.
// Every call is bounded by the client timeout so hung providers
// surface as timeout errors instead of stuck requests.
type providerClient struct {
	provider string
	baseURL  string
	apiKey   string
	client   *http.Client
}

func newProviderClient(provider, baseURL, apiKey string, timeout time.Duration) *providerClient {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &providerClient{
		provider: provider,
		baseURL:  baseURL,
		apiKey:   apiKey,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// post sends a JSON payload and decodes the JSON response into out.
func (c *providerClient) post(ctx context.Context, operation, endpoint string, payload, out any) error {
	return c.do(ctx, http.MethodPost, operation, endpoint, payload, out)
}

// get fetches and decodes a JSON response into out.
func (c *providerClient) get(ctx context.Context, operation, endpoint string, out any) error {
	return c.do(ctx, http.MethodGet, operation, endpoint, nil, out)
}

func (c *providerClient) do(ctx context.Context, method, operation, endpoint string, payload, out any) error {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		bodyReader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.GatewayLatency.WithLabelValues(c.provider, operation).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode gateway response: %w", err)
		}
	}
	return nil
}
