// Package provider implements the synthesis gateway: a thin client for
// the external text-to-speech provider. One call, one attempt; retry
// policy belongs to callers.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/voicestudio/voicestudio/internal/config"
	"github.com/voicestudio/voicestudio/internal/schema"
)

// Client defines the interface for communicating with the provider.
type Client interface {
	Health(ctx context.Context) error
	Synthesize(ctx context.Context, req *schema.SynthesisRequest) ([]byte, error)
}

// HTTPClient talks to the provider over HTTP with msgpack payloads.
type HTTPClient struct {
	httpClient *http.Client
	endpoint   string
	timeout    time.Duration
}

// NewHTTPClient creates a provider client with connection pooling.
func NewHTTPClient(cfg *config.ProviderConfig) *HTTPClient {
	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxConnections,
		MaxIdleConnsPerHost: cfg.MaxConnections,
		IdleConnTimeout:     90 * time.Second,
		DisableCompression:  true,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}

	return &HTTPClient{
		httpClient: client,
		endpoint:   cfg.URL,
		timeout:    cfg.Timeout,
	}
}

// Health checks if the provider is reachable.
func (c *HTTPClient) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/v1/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider unhealthy: status %d", resp.StatusCode)
	}

	return nil
}

// Synthesize sends one synthesis request and returns the complete audio
// response. The call is never retried here.
func (c *HTTPClient) Synthesize(ctx context.Context, req *schema.SynthesisRequest) ([]byte, error) {
	body, err := EncodeSynthesisRequest(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/tts", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/msgpack")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: %v", ErrProviderTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, &ProviderError{StatusCode: resp.StatusCode, Message: providerMessage(bodyBytes)}
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return audioData, nil
}

// providerMessage extracts the provider's error text. Structured detail
// payloads are unwrapped; anything else passes through verbatim.
func providerMessage(body []byte) string {
	var er schema.ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Detail != "" {
		return er.Detail
	}
	if len(body) == 0 {
		return "synthesis failed"
	}
	return string(body)
}

// Ensure HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
