package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Layr-Labs/merkle-distributor-go/pkg/types"
)

// ClientConfig holds the configuration for the lookup client
type ClientConfig struct {
	BaseURL string
	Logger  *zap.Logger
	// HTTPClient defaults to a client with a 30 second timeout
	HTTPClient *http.Client
}

// Client fetches claims from a lookup server
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// StatusError is returned when the server answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("lookup server returned %d: %s (request %s)", e.StatusCode, e.Message, e.RequestID)
}

// NewClient creates a new lookup client
func NewClient(config *ClientConfig) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.ParseRequestURI(config.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", config.BaseURL, err)
	}
	if config.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpClient,
		logger:     config.Logger,
	}, nil
}

// GetClaims returns every claim the server holds for address on network.
func (c *Client) GetClaims(ctx context.Context, network, address string) ([]*types.Claim, error) {
	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, url.PathEscape(network), url.PathEscape(address))

	var claims []*types.Claim
	if err := c.get(ctx, endpoint, &claims); err != nil {
		return nil, err
	}

	c.logger.Sugar().Debugw("Fetched claims", "network", network, "address", address, "claims", len(claims))
	return claims, nil
}

// Health checks the server's /health endpoint.
func (c *Client) Health(ctx context.Context) error {
	var resp HealthResponse
	return c.get(ctx, c.baseURL+"/health", &resp)
}

func (c *Client) get(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to contact lookup server: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var msg errorResponse
		if err := json.Unmarshal(body, &msg); err != nil || msg.Error == "" {
			msg.Error = strings.TrimSpace(string(body))
		}
		return &StatusError{
			StatusCode: resp.StatusCode,
			Message:    msg.Error,
			RequestID:  resp.Header.Get(HeaderRequestID),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
