package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"social-client/internal/config"
	"social-client/internal/observability"
)

// Client is the shared HTTP layer under every per-domain service wrapper.
// Requests carry the bearer token from the token source; there is no client
// side timeout and no retry, errors surface directly to the caller.
type Client struct {
	http     *http.Client
	services config.Services
	logger   *zap.Logger
}

// NewClient builds the base client.
func NewClient(services config.Services, token observability.TokenSource, logger *zap.Logger) *Client {
	return &Client{
		http:     &http.Client{Transport: observability.NewTransport(token)},
		services: services,
		logger:   logger,
	}
}

// Pagination is the cursor metadata returned alongside paginated payloads.
type Pagination struct {
	NextCursor string `json:"nextCursor"`
	HasMore    bool   `json:"hasMore"`
}

type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	Pagination *Pagination     `json:"pagination"`
}

// Error is a non-success response from a backend service.
type Error struct {
	Service string
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Service, e.Message)
}

// do issues one request and decodes the response envelope into out (when out
// is non-nil). Returned pagination is nil unless the service sent one.
func (c *Client) do(ctx context.Context, service, method, url string, body, out any) (*Pagination, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", service, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", service, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observability.ObserveAPIRequest(service, method, 0, time.Since(start))
		return nil, fmt.Errorf("%s: %w", service, err)
	}
	defer resp.Body.Close()
	observability.ObserveAPIRequest(service, method, resp.StatusCode, time.Since(start))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", service, err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			if resp.StatusCode >= 300 {
				return nil, &Error{Service: service, Status: resp.StatusCode}
			}
			return nil, fmt.Errorf("%s: malformed response: %w", service, err)
		}
	}

	if resp.StatusCode >= 300 {
		c.logger.Debug("api request failed",
			zap.String("service", service),
			zap.String("method", method),
			zap.Int("status", resp.StatusCode),
			zap.String("error", env.Error))
		return nil, &Error{Service: service, Status: resp.StatusCode, Message: env.Error}
	}

	if out != nil {
		if len(env.Data) == 0 {
			return env.Pagination, fmt.Errorf("%s: malformed response: missing data", service)
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("%s: malformed response: %w", service, err)
		}
	}
	return env.Pagination, nil
}
