// Package gemini wraps the Gemini API as an optional summarizer backend.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	modelName = "gemini-1.5-flash"

	// maxPromptRunes bounds the article text sent with the prompt.
	maxPromptRunes = 6000
)

type Client struct {
	client *genai.Client
}

func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{client: client}, nil
}

func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// Summarize asks the model for a short plain-text digest of the article.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r", ""))
	if utf8.RuneCountInString(text) > maxPromptRunes {
		runes := []rune(text)
		text = string(runes[:maxPromptRunes])
	}

	prompt := "Сократи текст новости до короткой заметки. " +
		"Сохрани все даты, адреса и сроки отключений. " +
		"Отвечай только текстом заметки, без вступлений.\n\n" + text

	model := c.client.GenerativeModel(modelName)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}

	summary := strings.TrimSpace(b.String())
	if summary == "" {
		return "", fmt.Errorf("gemini returned empty summary")
	}
	return summary, nil
}
