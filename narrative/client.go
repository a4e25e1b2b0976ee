package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Generator produces narrative text for a question about a table. The
// summary is the output of Summarize.
type Generator interface {
	Generate(ctx context.Context, summary, question string) (string, error)
}

// ErrMissingAPIKey is returned by hosted providers when no key is set.
var ErrMissingAPIKey = errors.New("missing API key")

// ErrEmptyResponse is returned when the service answers without any text.
var ErrEmptyResponse = errors.New("empty response")

// Client calls one text-generation provider over HTTP.
type Client struct {
	config Config
	http   *http.Client
	logger *zap.Logger
}

// New creates a client for cfg. A nil logger disables logging.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		config: cfg,
		http: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.With(zap.String("provider", cfg.Provider), zap.String("model", cfg.Model)),
	}, nil
}

// Config returns the effective configuration, defaults applied.
func (c *Client) Config() Config {
	return c.config
}

// Generate sends the analyst prompt for summary and question to the
// configured provider and returns its text.
func (c *Client) Generate(ctx context.Context, summary, question string) (string, error) {
	prompt := Prompt(summary, question)

	start := time.Now()
	var (
		text string
		err  error
	)
	switch c.config.Provider {
	case ProviderGemini:
		text, err = c.callGemini(ctx, prompt)
	case ProviderOllama:
		text, err = c.callOllama(ctx, prompt)
	default:
		text, err = c.callOpenAI(ctx, prompt)
	}

	if err != nil {
		c.logger.Warn("narrative request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return "", fmt.Errorf("%s: %w", c.config.Provider, err)
	}

	c.logger.Debug("narrative generated",
		zap.Int("prompt_bytes", len(prompt)),
		zap.Int("response_bytes", len(text)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return text, nil
}

// postJSON sends body as JSON and decodes a 200 response into out.
func (c *Client) postJSON(ctx context.Context, url string, headers map[string]string, body, out interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service returned %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
