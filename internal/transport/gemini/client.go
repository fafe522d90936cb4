// Package gemini adapts the Google Gen AI SDK to the generation and embedding contracts.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// ClientConfig holds the connection settings shared by the generator and embedder.
type ClientConfig struct {
	APIKey  string
	BaseURL string // overrides the public endpoint, mostly for tests and proxies
	// HTTPClient is optional.
	HTTPClient *http.Client
}

func newClient(ctx context.Context, cfg ClientConfig) (*genai.Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return client, nil
}

// wrapAPIError keeps the SDK's status detail and attaches sentinel.
func wrapAPIError(kind string, err error, sentinel error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s API error %d: %s: %w", kind, apiErr.Code, apiErr.Message, sentinel)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return fmt.Errorf("%s API error %d: %s: %w", kind, apiErrPtr.Code, apiErrPtr.Message, sentinel)
	}
	return fmt.Errorf("%s request failed: %v: %w", kind, err, sentinel)
}

func orNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
