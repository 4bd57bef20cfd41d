package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"social-client/internal/observability"
)

// Media wraps the media-service upload endpoint.
type Media struct {
	client *Client
}

// NewMedia constructs the wrapper.
func NewMedia(client *Client) *Media {
	return &Media{client: client}
}

// Upload sends a binary attachment and returns its hosted URL.
func (m *Media) Upload(ctx context.Context, filename string, content io.Reader) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("media: build form: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("media: read attachment: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("media: build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.client.services.Media+"/upload", &buf)
	if err != nil {
		return "", fmt.Errorf("media: build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := m.client.http.Do(req)
	if err != nil {
		observability.ObserveAPIRequest("media", http.MethodPost, 0, time.Since(start))
		return "", fmt.Errorf("media: %w", err)
	}
	defer resp.Body.Close()
	observability.ObserveAPIRequest("media", http.MethodPost, resp.StatusCode, time.Since(start))

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", fmt.Errorf("media: malformed response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", &Error{Service: "media", Status: resp.StatusCode, Message: env.Error}
	}

	var uploaded struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(env.Data, &uploaded); err != nil {
		return "", fmt.Errorf("media: malformed response: %w", err)
	}
	return uploaded.URL, nil
}
