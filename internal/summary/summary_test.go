package summary

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_UnderBudgetUnchanged(t *testing.T) {
	s := NewService("", nil, 100, time.Second)

	res := s.Summarize(context.Background(), "короткий текст")
	assert.Equal(t, "короткий текст", res.Text)
	assert.False(t, res.Shortened)
}

func TestSummarize_ExactBudgetUnchanged(t *testing.T) {
	s := NewService("", nil, 10, time.Second)
	text := strings.Repeat("я", 10)

	res := s.Summarize(context.Background(), text)
	assert.Equal(t, text, res.Text)
	assert.False(t, res.Shortened)
}

func TestSummarize_NoEndpointTruncates(t *testing.T) {
	s := NewService("", nil, 50, time.Second)
	text := strings.Repeat("длинный текст ", 20)

	res := s.Summarize(context.Background(), text)
	assert.False(t, res.Shortened)
	assert.Equal(t, 50, utf8.RuneCountInString(res.Text), "truncation is rune-exact")
	assert.True(t, strings.HasSuffix(res.Text, "…"))
}

func TestSummarize_EndpointSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req struct {
			Text string `json:"text"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.Text)

		_ = json.NewEncoder(w).Encode(map[string]string{"summary": "краткое содержание"})
	}))
	defer srv.Close()

	s := NewService(srv.URL, nil, 10, time.Second)
	res := s.Summarize(context.Background(), strings.Repeat("о", 100))

	assert.Equal(t, "краткое содержание", res.Text)
	assert.True(t, res.Shortened)
}

func TestSummarize_EndpointErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewService(srv.URL, nil, 20, time.Second)
	res := s.Summarize(context.Background(), strings.Repeat("о", 100))

	assert.False(t, res.Shortened)
	assert.Equal(t, 20, utf8.RuneCountInString(res.Text))
	assert.True(t, strings.HasSuffix(res.Text, "…"))
}

func TestSummarize_MalformedResponseFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	s := NewService(srv.URL, nil, 20, time.Second)
	res := s.Summarize(context.Background(), strings.Repeat("о", 100))

	assert.False(t, res.Shortened)
	assert.True(t, strings.HasSuffix(res.Text, "…"))
}

func TestSummarize_EmptySummaryFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"summary": ""})
	}))
	defer srv.Close()

	s := NewService(srv.URL, nil, 20, time.Second)
	res := s.Summarize(context.Background(), strings.Repeat("о", 100))

	assert.False(t, res.Shortened)
	assert.True(t, strings.HasSuffix(res.Text, "…"))
}

func TestSummarize_UnreachableEndpointFallsBack(t *testing.T) {
	s := NewService("http://127.0.0.1:1/summarize", nil, 20, 500*time.Millisecond)
	res := s.Summarize(context.Background(), strings.Repeat("о", 100))

	assert.False(t, res.Shortened)
	assert.True(t, strings.HasSuffix(res.Text, "…"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "аб…", truncate("абвгд", 3))
	assert.Equal(t, "абв", truncate("абв", 3))
	assert.Equal(t, "", truncate("абв", 0))
}
