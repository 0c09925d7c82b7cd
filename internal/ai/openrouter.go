package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const defaultOpenRouterURL = "https://openrouter.ai/api/v1"

// Client talks to the OpenRouter chat completions endpoint.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	retry      RetryPolicy
}

// NewOpenRouterClient returns a client with default timeouts and retry strategy.
func NewOpenRouterClient(apiKey string) *Client {
	return NewClient(apiKey, 60*time.Second, 3, 500*time.Millisecond, 4*time.Second)
}

// NewClient allows customizing HTTP timeout and retry/backoff behavior.
func NewClient(apiKey string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *Client {
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: httpTimeout},
		apiKey:     apiKey,
		baseURL:    defaultOpenRouterURL,
		retry: RetryPolicy{MaxAttempts: retryMax, BaseDelay: baseDelay, MaxDelay: maxDelay}.
			withDefaults(3, 500*time.Millisecond, 4*time.Second),
	}
}

// NewClientWithBaseURL allows injecting a custom base URL (used in tests).
func NewClientWithBaseURL(apiKey string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration, baseURL string) *Client {
	c := NewClient(apiKey, httpTimeout, retryMax, baseDelay, maxDelay)
	if baseURL != "" {
		c.baseURL = baseURL
	}
	return c
}

func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY: %w", ErrMissingAPIKey)
	}
	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	endpoint := c.baseURL + "/chat/completions"

	var out GenerateResponse
	err = c.retry.do(ctx, func(ctx context.Context) (bool, time.Duration, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return false, 0, fmt.Errorf("build request: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("HTTP-Referer", "https://github.com/KaramelBytes/datachat-cli")
		httpReq.Header.Set("X-Title", "DataChat CLI")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return isRetryableNetErr(err), 0, fmt.Errorf("http request: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := readAPIError(resp)
			typed := classifyAPIError(apiErr, resp)
			if !isRetryableStatus(resp.StatusCode) {
				return false, 0, typed
			}
			return true, retryAfter(resp.Header.Get("Retry-After")), typed
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return false, 0, fmt.Errorf("decode response: %w", err)
		}
		out.RequestID = extractRequestID(resp)
		return false, 0, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
