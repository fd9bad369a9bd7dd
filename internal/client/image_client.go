package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/makeasinger/scenegen/internal/config"
	"github.com/makeasinger/scenegen/internal/model"
	"github.com/makeasinger/scenegen/internal/service"
)

// ImageAPIClient calls a remote /api/generate-image endpoint. It satisfies
// service.ImageGenerator.
type ImageAPIClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewImageAPIClient creates a new image API client
func NewImageAPIClient(cfg *config.ImageGenConfig) *ImageAPIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &ImageAPIClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: cfg.RemoteURL,
	}
}

// Generate requests one image for prompt
func (c *ImageAPIClient) Generate(ctx context.Context, prompt string) (*model.ImageResult, error) {
	bodyBytes, err := json.Marshal(model.GenerateImageRequest{Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate-image", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", service.ErrGenerationFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to send request: %v", service.ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", service.ErrGenerationFailed, err)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %s", service.ErrInvalidInput, string(respBody))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: image API error (status %d): %s", service.ErrGenerationFailed, resp.StatusCode, string(respBody))
	}

	var result model.ImageResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal response: %v", service.ErrGenerationFailed, err)
	}
	if result.ImageURL == "" {
		return nil, fmt.Errorf("%w: empty imageUrl in response", service.ErrGenerationFailed)
	}

	return &result, nil
}

// IsConfigured returns true if the client has a remote endpoint
func (c *ImageAPIClient) IsConfigured() bool {
	return c.baseURL != ""
}
