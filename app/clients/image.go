package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const imageTimeout = 60 * time.Second

// ImageClient calls the image generation service.
type ImageClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewImageClient(httpClient *http.Client, baseURL, apiKey string) *ImageClient {
	return &ImageClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

type imageRequest struct {
	Prompt string `json:"prompt"`
	Style  string `json:"style,omitempty"`
}

type imageResponse struct {
	MediaURL string `json:"media_url"`
	Error    string `json:"error,omitempty"`
}

func (c *ImageClient) Generate(ctx context.Context, prompt string, style string) (string, error) {
	if c.baseURL == "" {
		return "", fmt.Errorf("image generation is not configured")
	}

	body, err := json.Marshal(imageRequest{Prompt: prompt, Style: style})
	if err != nil {
		return "", fmt.Errorf("failed to encode image request: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, imageTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "POST", c.baseURL+"/v1/images", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create image request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("image request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image service HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	var decoded imageResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode image response: %w", err)
	}

	if decoded.Error != "" {
		return "", fmt.Errorf("image service error: %s", decoded.Error)
	}
	if decoded.MediaURL == "" {
		return "", fmt.Errorf("image service returned no media url")
	}

	return decoded.MediaURL, nil
}
