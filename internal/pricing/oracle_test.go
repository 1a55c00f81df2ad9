package pricing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAdviceToleratesProse(t *testing.T) {
	advice, err := parseAdvice(`Here is my recommendation:
{"suggestedPrice": 420.5, "minPrice": 300, "reasoning": "regional demand"}
Let me know if you need more detail.`)
	require.NoError(t, err)

	assert.Equal(t, 420.5, advice.SuggestedPrice)
	assert.Equal(t, 300.0, advice.MinPrice)
	assert.Equal(t, "regional demand", advice.Reasoning)
}

func TestParseAdviceRejectsBadPayloads(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no json", "I cannot help with that."},
		{"broken json", `{"suggestedPrice": oops}`},
		{"non-positive prices", `{"suggestedPrice": 0, "minPrice": -5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseAdvice(tt.text)
			assert.Error(t, err)
		})
	}
}

func TestHTTPAdvisor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		var req completionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Prompt, "MRI scan")

		json.NewEncoder(w).Encode(completionResponse{
			Choices: []struct {
				Text string `json:"text"`
			}{
				{Text: `{"suggestedPrice": 500, "minPrice": 350, "reasoning": "imaging baseline"}`},
			},
		})
	}))
	defer server.Close()

	advisor := NewHTTPAdvisor(server.URL, "key", "pricing-1")
	advice, err := advisor.Advise(context.Background(), AdviceRequest{ServiceName: "MRI scan", Currency: "LYD"})
	require.NoError(t, err)

	assert.Equal(t, 500.0, advice.SuggestedPrice)
	assert.Equal(t, 350.0, advice.MinPrice)
}

func TestHTTPAdvisorServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	advisor := NewHTTPAdvisor(server.URL, "", "pricing-1")
	_, err := advisor.Advise(context.Background(), AdviceRequest{ServiceName: "MRI scan"})
	assert.Error(t, err)
}
