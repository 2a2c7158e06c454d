package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const publishTimeout = 60 * time.Second

// PublishClient calls the social publishing service.
type PublishClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewPublishClient(httpClient *http.Client, baseURL, apiKey string) *PublishClient {
	return &PublishClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

type PublishRequest struct {
	Platform    string   `json:"platform"`
	AccessToken string   `json:"access_token"`
	Text        string   `json:"text"`
	MediaURLs   []string `json:"media_urls,omitempty"`
}

// PublishResult is the service's stated outcome. A confirmed publish
// requires Success AND a non-empty ExternalID; interpreting that is the
// orchestrator's job, not the client's.
type PublishResult struct {
	Success    bool   `json:"success"`
	ExternalID string `json:"external_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (c *PublishClient) Publish(ctx context.Context, request PublishRequest) (PublishResult, error) {
	if c.baseURL == "" {
		return PublishResult{}, fmt.Errorf("publishing is not configured")
	}

	body, err := json.Marshal(request)
	if err != nil {
		return PublishResult{}, fmt.Errorf("failed to encode publish request: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "POST", c.baseURL+"/v1/posts", bytes.NewReader(body))
	if err != nil {
		return PublishResult{}, fmt.Errorf("failed to create publish request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return PublishResult{}, fmt.Errorf("publish request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return PublishResult{}, fmt.Errorf("publish service HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	var result PublishResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return PublishResult{}, fmt.Errorf("failed to decode publish response: %w", err)
	}

	return result, nil
}
