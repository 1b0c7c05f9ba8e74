// Package notify delivers formatted messages to the downstream webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"citynews/internal/news"
)

// sendPath is the fixed sub-path on the notification service.
const sendPath = "/notify"

type Notifier struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string, timeout time.Duration) *Notifier {
	return &Notifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Send posts the message to the webhook. Delivery is fire-and-forget from the
// pipeline's perspective: a failure is returned for logging but never retried.
func (n *Notifier) Send(ctx context.Context, content string, category news.Category) error {
	body, err := json.Marshal(map[string]string{
		"content":  content,
		"category": string(category),
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+sendPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notification endpoint status %d", resp.StatusCode)
	}
	return nil
}
