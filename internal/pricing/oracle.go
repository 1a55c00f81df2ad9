package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/medsouq/marketplace/internal/pricing/domain"
)

// AdviceRequest carries everything the advisory oracle needs to
// recommend a price.
type AdviceRequest struct {
	ServiceName     string
	Description     string
	ICD11Code       string
	Complexity      float64
	Market          domain.MarketData
	Quantity        int
	DiscountPercent float64
	Region          string
	Currency        string
}

// Advisor recommends a price for a service. Implementations may fail;
// the engine falls back to a deterministic rule when they do.
type Advisor interface {
	Advise(ctx context.Context, req AdviceRequest) (*domain.Advice, error)
}

// HTTPAdvisor calls an LLM completion endpoint and parses a
// structured JSON recommendation out of the response.
type HTTPAdvisor struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

func NewHTTPAdvisor(endpoint, apiKey, model string) *HTTPAdvisor {
	return &HTTPAdvisor{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		client: &http.Client{
			Timeout:   20 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type completionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

func (a *HTTPAdvisor) Advise(ctx context.Context, req AdviceRequest) (*domain.Advice, error) {
	prompt := fmt.Sprintf(
		"Recommend a price for the healthcare service %q (diagnosis code %s, complexity %.1f) "+
			"in region %s. Market average %.2f %s, range %.2f-%.2f, trend %s. "+
			"Quantity %d with %.0f%% bulk discount already granted. "+
			`Respond with JSON only: {"suggestedPrice": <number>, "minPrice": <number>, "reasoning": "<short text>"}`,
		req.ServiceName, req.ICD11Code, req.Complexity,
		req.Region, req.Market.Average, req.Currency, req.Market.Min, req.Market.Max, req.Market.Trend,
		req.Quantity, req.DiscountPercent)

	payload, err := json.Marshal(completionRequest{
		Model:       a.model,
		Prompt:      prompt,
		MaxTokens:   300,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("oracle request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("oracle returned status %d: %s", resp.StatusCode, string(body))
	}

	var completion completionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, fmt.Errorf("failed to decode oracle response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("oracle returned no choices")
	}

	return parseAdvice(completion.Choices[0].Text)
}

// parseAdvice extracts the JSON recommendation from the completion
// text, tolerating surrounding prose.
func parseAdvice(text string) (*domain.Advice, error) {
	start := bytes.IndexByte([]byte(text), '{')
	end := bytes.LastIndexByte([]byte(text), '}')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("oracle response contains no JSON object")
	}

	var raw struct {
		SuggestedPrice float64 `json:"suggestedPrice"`
		MinPrice       float64 `json:"minPrice"`
		Reasoning      string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse oracle advice: %w", err)
	}
	if raw.SuggestedPrice <= 0 || raw.MinPrice <= 0 {
		return nil, fmt.Errorf("oracle advice has non-positive prices")
	}

	return &domain.Advice{
		SuggestedPrice: raw.SuggestedPrice,
		MinPrice:       raw.MinPrice,
		Reasoning:      raw.Reasoning,
	}, nil
}
