package prompts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Store is the remote prompt template store. Network, auth and not-found
// failures are all one unified "unavailable" condition to the resolver.
type Store interface {
	Fetch(ctx context.Context, name string) (string, error)
}

// HTTPStore fetches prompt templates from a template-store HTTP endpoint.
// The response body is the raw template text.
type HTTPStore struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewHTTPStore(endpoint, apiKey string) *HTTPStore {
	return &HTTPStore{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *HTTPStore) Fetch(ctx context.Context, name string) (string, error) {
	if s.endpoint == "" {
		return "", fmt.Errorf("prompt store endpoint not configured")
	}

	u, err := url.JoinPath(s.endpoint, "prompts", name)
	if err != nil {
		return "", fmt.Errorf("build prompt url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("build prompt request: %w", err)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch prompt %q: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch prompt %q: status %d", name, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read prompt %q: %w", name, err)
	}
	return string(body), nil
}
