package authsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultProtectedPath is the proxy mount point unless the gateway is
// configured otherwise.
const DefaultProtectedPath = "/ows"

// SDKClient talks to one gateway instance.
type SDKClient struct {
	BaseURL       string
	ProtectedPath string
	HTTPClient    *http.Client
}

// NewSDKClient creates a client with a 30 second request timeout.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL:       strings.TrimSuffix(baseURL, "/"),
		ProtectedPath: DefaultProtectedPath,
		HTTPClient:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *SDKClient) url(path string) string {
	return c.BaseURL + path
}

type requestOption func(*http.Request)

func withBasicAuth(user, password string) requestOption {
	return func(r *http.Request) { r.SetBasicAuth(user, password) }
}

func withBearer(token string) requestOption {
	return func(r *http.Request) {
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

func withHeader(k, v string) requestOption {
	return func(r *http.Request) { r.Header.Set(k, v) }
}

func (c *SDKClient) do(ctx context.Context, method, path string, body io.Reader, opts ...requestOption) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

// doJSON sends v as JSON (if non-nil) and decodes a response with the
// expected status into out (if non-nil).
func (c *SDKClient) doJSON(ctx context.Context, method, path string, v, out any, expected int, opts ...requestOption) error {
	var body io.Reader
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = strings.NewReader(string(b))
		opts = append(opts, withHeader("Content-Type", "application/json"))
	}

	resp, err := c.do(ctx, method, path, body, opts...)
	if err != nil {
		return err
	}
	return decodeJSON(resp, out, expected)
}

// decodeJSON reads resp and either decodes it into target or returns the
// typed error it carries.
func decodeJSON(resp *http.Response, target any, expected int) error {
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != expected {
		if err := parseErrorResponse(resp, b); err != nil {
			return err
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if target == nil || len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
