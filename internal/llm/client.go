package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"deepcli/internal/errors"
	"deepcli/internal/logging"
)

// Default connection settings for the DeepSeek-compatible API.
const (
	DefaultBaseURL     = "https://api.deepseek.com"
	DefaultModel       = "deepseek-chat"
	DefaultFIMModel    = "deepseek-coder"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
	DefaultFIMTokens   = 1024
	defaultTimeout     = 120 * time.Second
)

// Config holds connection settings for an OpenAI-compatible chat API.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
}

// Client talks to an OpenAI-compatible chat completions API over HTTP.
type Client struct {
	config Config
	http   *http.Client
	logger logging.Logger
}

// NewClient builds a Client, filling unset config fields with the DeepSeek
// defaults.
func NewClient(config Config, logger logging.Logger) *Client {
	config.applyDefaults()
	return &Client{
		config: config,
		http:   &http.Client{Timeout: config.Timeout},
		logger: logging.OrNop(logger),
	}
}

// Config returns the effective configuration after defaults were applied.
func (c *Client) Config() Config { return c.config }

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	Stream         bool            `json:"stream"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

// Complete performs a single chat completion call. HTTP failures are
// classified so callers can distinguish retryable from terminal errors.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	body := chatRequest{
		Model:       firstNonEmpty(req.Model, c.config.Model),
		Messages:    req.messages(),
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	}
	if req.Temperature != nil {
		body.Temperature = *req.Temperature
	}
	if req.MaxTokens != 0 {
		body.MaxTokens = req.MaxTokens
	}
	if req.ResponseFormat != "" {
		body.ResponseFormat = &responseFormat{Type: req.ResponseFormat}
	}

	raw, err := c.post(ctx, "/chat/completions", body)
	if err != nil {
		return nil, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.NewPermanentError(fmt.Errorf("decode chat response: %w", err), "invalid API response")
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.NewTransientError(fmt.Errorf("empty choices in chat response"), "empty response from API")
	}
	return &Response{
		Content: parsed.Choices[0].Message.Content,
		Model:   parsed.Model,
		Usage:   parsed.Usage,
		Raw:     raw,
	}, nil
}

type fimRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Suffix      string  `json:"suffix,omitempty"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

type fimResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

// FIMComplete performs a fill-in-middle completion via the beta completions
// endpoint.
func (c *Client) FIMComplete(ctx context.Context, req FIMRequest) (*Response, error) {
	body := fimRequest{
		Model:       firstNonEmpty(req.Model, DefaultFIMModel),
		Prompt:      req.Prompt,
		Suffix:      req.Suffix,
		Temperature: 0.3,
		MaxTokens:   DefaultFIMTokens,
	}
	if req.Temperature != nil {
		body.Temperature = *req.Temperature
	}
	if req.MaxTokens != 0 {
		body.MaxTokens = req.MaxTokens
	}

	raw, err := c.post(ctx, "/beta/completions", body)
	if err != nil {
		return nil, err
	}

	var parsed fimResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.NewPermanentError(fmt.Errorf("decode FIM response: %w", err), "invalid API response")
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.NewTransientError(fmt.Errorf("empty choices in FIM response"), "empty response from API")
	}
	return &Response{
		Content: parsed.Choices[0].Text,
		Model:   parsed.Model,
		Usage:   parsed.Usage,
		Raw:     raw,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.NewTransientError(fmt.Errorf("request %s: %w", path, err), "network error talking to API")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewTransientError(fmt.Errorf("read response body: %w", err), "network error reading API response")
	}

	c.logger.Debug("POST %s status=%d elapsed=%s", path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode != http.StatusOK {
		return nil, c.mapHTTPError(resp, body)
	}
	return body, nil
}

// mapHTTPError classifies a non-200 response. 429 carries the Retry-After
// hint when the server provides one.
func (c *Client) mapHTTPError(resp *http.Response, body []byte) error {
	base := errors.NewHTTPStatusError(resp.StatusCode, resp.Status, truncate(string(body), 512))
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &errors.TransientError{
			Err:        base,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			StatusCode: resp.StatusCode,
			Message:    "rate limited by API",
		}
	case resp.StatusCode >= 500:
		return &errors.TransientError{
			Err:        base,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("API server error (status %d)", resp.StatusCode),
		}
	default:
		return &errors.PermanentError{
			Err:        base,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("API request failed with status %d", resp.StatusCode),
		}
	}
}

// parseRetryAfter returns the server's Retry-After hint in whole seconds.
func parseRetryAfter(value string) int {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return secs
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return int(d.Round(time.Second) / time.Second)
		}
	}
	return 0
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
