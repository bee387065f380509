package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"punchgate/internal/clock"
)

const defaultHTTPTimeout = 10 * time.Second

// HTTP posts each committed event as JSON to the attendance backend.
type HTTP struct {
	url    string
	client *http.Client
}

type HTTPOption func(*HTTP)

// WithHTTPClient overrides the underlying client, for tests and custom
// transports.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(h *HTTP) {
		h.client = client
	}
}

// WithHTTPTimeout overrides the per-request timeout.
func WithHTTPTimeout(timeout time.Duration) HTTPOption {
	return func(h *HTTP) {
		if timeout > 0 {
			h.client.Timeout = timeout
		}
	}
}

func NewHTTP(url string, opts ...HTTPOption) (*HTTP, error) {
	if url == "" {
		return nil, fmt.Errorf("submit: url is required")
	}
	h := &HTTP{
		url:    url,
		client: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

func (h *HTTP) Submit(ctx context.Context, event clock.Event) error {
	body, err := json.Marshal(toPayload(event))
	if err != nil {
		return fmt.Errorf("submit: encode event %s: %w", event.ID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("submit: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("submit: post event %s: %w", event.ID, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("submit: backend returned %d for event %s", resp.StatusCode, event.ID)
	}
	return nil
}
