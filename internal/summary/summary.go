// Package summary shortens article text that exceeds the display budget.
package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"citynews/internal/gemini"
)

// Result carries the possibly shortened text.
type Result struct {
	Text      string
	Shortened bool
}

// Service tries the configured backends in order: the plain HTTP endpoint,
// then Gemini. Any failure falls back to rune-exact truncation so that
// summarization can never block ingestion.
type Service struct {
	endpoint string
	gemini   *gemini.Client
	maxLen   int
	client   *http.Client
}

func NewService(endpoint string, geminiClient *gemini.Client, maxLen int, timeout time.Duration) *Service {
	return &Service{
		endpoint: endpoint,
		gemini:   geminiClient,
		maxLen:   maxLen,
		client:   &http.Client{Timeout: timeout},
	}
}

// Summarize returns text unchanged when it fits the budget. Over-budget text
// goes through a backend when one is configured; otherwise it is truncated to
// exactly the budget, ending with an ellipsis.
func (s *Service) Summarize(ctx context.Context, text string) Result {
	if utf8.RuneCountInString(text) <= s.maxLen {
		return Result{Text: text}
	}

	switch {
	case s.endpoint != "":
		sum, err := s.request(ctx, text)
		if err != nil {
			slog.Warn("summarizer endpoint failed, falling back to truncation", "err", err)
		} else if sum != "" {
			return Result{Text: sum, Shortened: true}
		}
	case s.gemini != nil:
		sum, err := s.gemini.Summarize(ctx, text)
		if err != nil {
			slog.Warn("gemini summarization failed, falling back to truncation", "err", err)
		} else if sum != "" {
			return Result{Text: sum, Shortened: true}
		}
	}

	return Result{Text: truncate(text, s.maxLen)}
}

func (s *Service) request(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", fmt.Errorf("marshal summarize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build summarize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("summarize request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("summarize endpoint status %d", resp.StatusCode)
	}

	var payload struct {
		Summary string `json:"summary"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode summarize response: %w", err)
	}
	return payload.Summary, nil
}

// truncate cuts on a rune boundary so the result is exactly limit runes long,
// the last one being the ellipsis.
func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	if limit < 1 {
		return ""
	}
	return string(runes[:limit-1]) + "…"
}
