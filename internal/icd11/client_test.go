package icd11

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchCodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "malaria", r.URL.Query().Get("q"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"entities": []Code{
				{Code: "1F40", Title: "Malaria", Category: "Parasitic diseases"},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	codes, err := client.SearchCodes(context.Background(), "malaria", 10)
	require.NoError(t, err)
	require.Len(t, codes, 1)
	assert.Equal(t, "1F40", codes[0].Code)
}

func TestValidateCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/icd/entity/1F40" {
			json.NewEncoder(w).Encode(Code{Code: "1F40", Title: "Malaria"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	ctx := context.Background()

	valid, err := client.ValidateCode(ctx, "1F40")
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = client.ValidateCode(ctx, "ZZZZ")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestValidateCodeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	_, err := client.ValidateCode(context.Background(), "1F40")
	assert.Error(t, err)
}
