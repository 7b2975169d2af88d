package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func geminiReply(t *testing.T, text string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		cfg := body["generationConfig"].(map[string]interface{})
		assert.Equal(t, "application/json", cfg["responseMimeType"])
		assert.Equal(t, "k", r.URL.Query().Get("key"))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]string{{"text": text}},
				}},
			},
		})
	}
}

func TestGemini_ExtractItem(t *testing.T) {
	srv := httptest.NewServer(geminiReply(t, `{"type":"event","title":"Dentist appointment","urgency":"high","due_date":"2026-03-11T15:00:00Z","people_mentioned":[]}`))
	defer srv.Close()

	g := NewGeminiService("k", "").WithBaseURL(srv.URL)
	c, err := g.ExtractItem(context.Background(), "Dentist appointment tomorrow at 3pm, urgent", testNow)
	require.NoError(t, err)
	assert.Equal(t, "event", c.Type)
	assert.Equal(t, "Dentist appointment", c.Title)
	assert.Equal(t, "high", c.Urgency)
	assert.Equal(t, "2026-03-11T15:00:00Z", c.DueDate)
}

func TestGemini_Failures(t *testing.T) {
	t.Run("rate limited is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"status":"RESOURCE_EXHAUSTED"}}`))
		}))
		defer srv.Close()

		_, err := NewGeminiService("k", "").WithBaseURL(srv.URL).ExtractItem(context.Background(), "x", testNow)
		assert.ErrorIs(t, err, ErrUnavailable)
		assert.True(t, isQuotaError(err))
	})

	t.Run("missing key is unavailable", func(t *testing.T) {
		_, err := NewGeminiService("", "").ExtractItem(context.Background(), "x", testNow)
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("non json text is malformed", func(t *testing.T) {
		srv := httptest.NewServer(geminiReply(t, "I could not do that"))
		defer srv.Close()

		_, err := NewGeminiService("k", "").WithBaseURL(srv.URL).ExtractItem(context.Background(), "x", testNow)
		assert.ErrorIs(t, err, ErrMalformed)
		assert.False(t, errors.Is(err, ErrUnavailable))
	})

	t.Run("unreachable host is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := NewGeminiService("k", "").WithBaseURL(url).ExtractItem(context.Background(), "x", testNow)
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}

func TestOllama_ExtractEdit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "json", body["format"])
		assert.Equal(t, "mistral", body["model"])
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"response": "```json\n{\"status\": \"complete\"}\n```",
			"done":     true,
		})
	}))
	defer srv.Close()

	o := NewOllamaService(srv.URL, "mistral")
	set, err := o.ExtractEdit(context.Background(), EditRequest{ItemID: "1", Instruction: "done"}, testNow)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"status": "complete"}, set)
}

func TestOllama_EmptyBaseURLIsUnavailable(t *testing.T) {
	o := NewOllamaServiceWithGetters(func() string { return "" }, func() string { return "llama3" })
	_, err := o.ExtractItem(context.Background(), "x", testNow)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDecodeCandidate_LegacyKeys(t *testing.T) {
	c, err := decodeCandidate(`Here you go: {"item_type":"Task","title":"Renew registration","people":["Dad"]}`)
	require.NoError(t, err)
	assert.Equal(t, "Task", c.Type)
	assert.Equal(t, []string{"Dad"}, c.PeopleMentioned)
}

// stubExtractor returns canned results and counts calls
type stubExtractor struct {
	candidate *ItemCandidate
	edit      map[string]interface{}
	err       error
	calls     int
}

func (s *stubExtractor) ExtractItem(context.Context, string, time.Time) (*ItemCandidate, error) {
	s.calls++
	return s.candidate, s.err
}

func (s *stubExtractor) ExtractEdit(context.Context, EditRequest, time.Time) (map[string]interface{}, error) {
	s.calls++
	return s.edit, s.err
}

func TestFallbackService_Routing(t *testing.T) {
	ctx := context.Background()

	t.Run("unavailable primary falls through", func(t *testing.T) {
		primary := &stubExtractor{err: &apiError{Provider: "gemini", StatusCode: 503}}
		secondary := &stubExtractor{candidate: &ItemCandidate{Title: "ok"}}
		c, err := NewFallbackService(primary, secondary).ExtractItem(ctx, "x", testNow)
		require.NoError(t, err)
		assert.Equal(t, "ok", c.Title)
		assert.Equal(t, 1, secondary.calls)
	})

	t.Run("malformed primary does not fall through", func(t *testing.T) {
		primary := &stubExtractor{err: ErrMalformed}
		secondary := &stubExtractor{candidate: &ItemCandidate{Title: "ok"}}
		_, err := NewFallbackService(primary, secondary).ExtractItem(ctx, "x", testNow)
		assert.ErrorIs(t, err, ErrMalformed)
		assert.Zero(t, secondary.calls)
	})

	t.Run("all unavailable", func(t *testing.T) {
		primary := &stubExtractor{err: ErrUnavailable}
		secondary := &stubExtractor{err: ErrUnavailable}
		_, err := NewFallbackService(primary, secondary).ExtractEdit(ctx, EditRequest{}, testNow)
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("no providers", func(t *testing.T) {
		_, err := NewFallbackService(nil, nil).ExtractItem(ctx, "x", testNow)
		assert.ErrorIs(t, err, ErrNotConfigured)
	})
}

func TestNewExtractor(t *testing.T) {
	_, err := NewExtractor(Config{Provider: ProviderGemini}, nil)
	assert.Error(t, err)

	e, err := NewExtractor(Config{Provider: ProviderNone}, nil)
	require.NoError(t, err)
	_, err = e.ExtractItem(context.Background(), "x", testNow)
	assert.ErrorIs(t, err, ErrUnavailable)

	settings := NewRuntimeSettings("", "")
	e, err = NewExtractor(Config{Provider: ProviderAuto}, settings)
	require.NoError(t, err)
	_, err = e.ExtractItem(context.Background(), "x", testNow)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRuntimeSettings(t *testing.T) {
	s := NewRuntimeSettings("http://a", "")
	assert.Equal(t, DefaultOllamaModel, s.OllamaModel())

	s.Update("http://b", "")
	assert.Equal(t, "http://b", s.OllamaBaseURL())
	assert.Equal(t, DefaultOllamaModel, s.OllamaModel())

	s.Update("http://c", "phi3")
	assert.Equal(t, "phi3", s.OllamaModel())
}
