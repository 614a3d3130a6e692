// Package genai wraps external text-generation services behind a single
// logical "generate" call, hiding credential rotation and pacing from
// callers.
package genai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

// Request carries one generation call. Each field is exactly what the
// providers read; there is no loose context bag.
type Request struct {
	Prompt      string
	System      string
	Temperature float64
	MaxTokens   int
}

// Provider performs a raw generation call with an explicit credential.
// The credential is a parameter, not provider state, so the pool can swap
// it between attempts.
type Provider interface {
	Name() string
	Generate(ctx context.Context, secret string, req Request) (string, error)
}

// ProviderConfig selects and parameterizes a provider implementation.
type ProviderConfig struct {
	Provider string `yaml:"name"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"baseUrl,omitempty"`
}

// NewProvider creates a provider based on config.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "gemini":
		return NewGeminiProvider(cfg.Model), nil
	case "openai":
		return NewOpenAIProvider(cfg.Model, cfg.BaseURL), nil
	case "openrouter":
		baseURL := "https://openrouter.ai/api/v1"
		if cfg.BaseURL != "" {
			baseURL = cfg.BaseURL
		}
		return NewOpenAIProvider(cfg.Model, baseURL), nil
	case "deepseek":
		return NewOpenAIProvider(cfg.Model, "https://api.deepseek.com/v1"), nil
	default:
		return nil, fmt.Errorf("genai: unknown provider: %s", cfg.Provider)
	}
}

// httpClient is shared across providers with a long timeout for model
// requests.
var httpClient = &http.Client{
	Timeout: 10 * time.Minute,
	Transport: &http.Transport{
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

// doRequest performs an HTTP request, retrying network flakes and 5xx
// responses with exponential backoff. 4xx responses are returned to the
// caller untouched so quota classification can see them.
func doRequest(ctx context.Context, method, url string, headers map[string]string, body []byte) (*http.Response, error) {
	retryDelay := 1 * time.Second
	const maxRetries = 3

	for i := 0; ; i++ {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := httpClient.Do(req)
		if err != nil {
			if i < maxRetries && ctx.Err() == nil {
				slog.Warn("request failed, retrying", "err", err, "delay", retryDelay)
				time.Sleep(retryDelay)
				retryDelay *= 2
				continue
			}
			return nil, err
		}

		if resp.StatusCode >= 500 && i < maxRetries {
			slog.Warn("upstream returned server error, retrying", "status", resp.StatusCode, "delay", retryDelay)
			resp.Body.Close()
			time.Sleep(retryDelay)
			retryDelay *= 2
			continue
		}

		return resp, nil
	}
}
