// Package icd11 talks to the ICD-11 terminology service used to
// validate diagnosis codes on service listings.
package icd11

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultTimeout = 10 * time.Second

// Code is one terminology entry.
type Code struct {
	Code     string `json:"code"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Chapter  string `json:"chapter"`
}

// Client wraps the terminology HTTP API.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// SearchCodes returns terminology entries matching the free-text
// query.
func (c *Client) SearchCodes(ctx context.Context, query string, limit int) ([]Code, error) {
	if limit <= 0 {
		limit = 20
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	var result struct {
		Entities []Code `json:"entities"`
	}
	if err := c.get(ctx, "/icd/entity/search?"+params.Encode(), &result); err != nil {
		return nil, fmt.Errorf("failed to search ICD-11 codes: %w", err)
	}
	return result.Entities, nil
}

// CategoryByCode resolves a single code to its category entry.
func (c *Client) CategoryByCode(ctx context.Context, code string) (*Code, error) {
	var result Code
	if err := c.get(ctx, "/icd/entity/"+url.PathEscape(code), &result); err != nil {
		return nil, fmt.Errorf("failed to fetch ICD-11 code %s: %w", code, err)
	}
	return &result, nil
}

// ValidateCode reports whether the code exists in the terminology. A
// 404 means invalid; transport failures are returned as errors so the
// caller can distinguish unknown from unreachable.
func (c *Client) ValidateCode(ctx context.Context, code string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/icd/entity/"+url.PathEscape(code), nil)
	if err != nil {
		return false, err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to reach ICD-11 service: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("ICD-11 service returned status %d", resp.StatusCode)
	}
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, out)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en")
	req.Header.Set("API-Version", "v2")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
