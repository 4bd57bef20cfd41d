package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/google/uuid"
)

// pollTransport is the request-based fallback used when the streaming
// transport cannot be established. Incoming frames are long-polled from
// GET {base}/poll, outgoing frames are posted to POST {base}/emit.
type pollTransport struct {
	base     string
	token    string
	clientID string
	http     *http.Client

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	pending   []frame
	closeOnce sync.Once
}

func dialPolling(ctx context.Context, base, token string) (*pollTransport, error) {
	pollCtx, cancel := context.WithCancel(context.Background())
	t := &pollTransport{
		base:     base,
		token:    token,
		clientID: uuid.NewString(),
		http:     &http.Client{},
		ctx:      pollCtx,
		cancel:   cancel,
	}

	// The first poll registers the client server-side and validates the
	// endpoint before the manager commits to this transport.
	frames, err := t.poll(ctx, true)
	if err != nil {
		cancel()
		return nil, err
	}
	t.pending = frames
	return t, nil
}

func (t *pollTransport) send(f frame) error {
	body, err := json.Marshal(f)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(t.ctx, http.MethodPost, t.base+"/emit?client="+t.clientID, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.token)

	resp, err := t.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("poll emit: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (t *pollTransport) receive() (frame, error) {
	for {
		t.mu.Lock()
		if len(t.pending) > 0 {
			next := t.pending[0]
			t.pending = t.pending[1:]
			t.mu.Unlock()
			return next, nil
		}
		t.mu.Unlock()

		frames, err := t.poll(t.ctx, false)
		if err != nil {
			return frame{}, err
		}

		t.mu.Lock()
		t.pending = append(t.pending, frames...)
		t.mu.Unlock()
	}
}

func (t *pollTransport) poll(ctx context.Context, register bool) ([]frame, error) {
	url := t.base + "/poll?client=" + t.clientID
	if register {
		url += "&register=1"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+t.token)

	resp, err := t.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("poll: unexpected status %d", resp.StatusCode)
	}

	var frames []frame
	if err := json.NewDecoder(resp.Body).Decode(&frames); err != nil {
		return nil, fmt.Errorf("poll: decode frames: %w", err)
	}
	return frames, nil
}

func (t *pollTransport) close() error {
	t.closeOnce.Do(t.cancel)
	return nil
}

func (t *pollTransport) name() string { return "polling" }
