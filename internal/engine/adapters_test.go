package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/llm-matrix/internal/model"
	"github.com/daryltucker/llm-matrix/internal/provider"
)

func chatMessages() []model.Message {
	return []model.Message{
		{Role: "system", Content: "Be brief."},
		{Role: "user", Content: "Say hello"},
	}
}

func TestCallOpenAICompatible(t *testing.T) {
	fp := newFakeProvider(t, func(w http.ResponseWriter, _ map[string]any) {
		jsonReply(w, http.StatusOK, map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": "hello"}}},
			"usage":   map[string]any{"prompt_tokens": 12, "completion_tokens": 1},
		})
	})
	p := mockOpenAI("Mock", fp.URL())
	p.Headers = map[string]string{"Accept": "application/json"}
	e := newTestEngine(t, p)

	reply, err := e.Call(context.Background(), p, "sk-test", Request{
		Model:       "gpt-test",
		Messages:    chatMessages(),
		Temperature: 0.2,
		MaxTokens:   16,
	}, e.BenchmarkOptions())
	require.NoError(t, err)
	assert.Equal(t, "hello", reply.Text)
	require.NotNil(t, reply.InputTokens)
	require.NotNil(t, reply.OutputTokens)
	assert.Equal(t, 12, *reply.InputTokens)
	assert.Equal(t, 1, *reply.OutputTokens)

	reqs := fp.Requests()
	require.Len(t, reqs, 1)
	got := reqs[0]
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/v1/chat/completions", got.Path)
	assert.Equal(t, "Bearer sk-test", got.Header.Get("Authorization"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
	assert.Contains(t, got.Header.Get("Content-Type"), "application/json")
	assert.Equal(t, "gpt-test", got.Body["model"])
	assert.Equal(t, 0.2, got.Body["temperature"])
	assert.Equal(t, float64(16), got.Body["max_tokens"])
	assert.Equal(t, false, got.Body["stream"])
	require.Len(t, got.Body["messages"], 2)
}

func TestCallOpenAIWithoutKeyOmitsAuth(t *testing.T) {
	fp := newFakeProvider(t, func(w http.ResponseWriter, _ map[string]any) {
		jsonReply(w, http.StatusOK, map[string]any{"choices": []any{map[string]any{"message": map[string]any{"content": "local"}}}})
	})
	p := mockOpenAI("Local", fp.URL())
	p.NoAuth = true
	e := newTestEngine(t, p)

	reply, err := e.Call(context.Background(), p, "", Request{Model: "llama3.2", Messages: chatMessages()}, e.BenchmarkOptions())
	require.NoError(t, err)
	assert.Equal(t, "local", reply.Text)
	assert.Empty(t, fp.Requests()[0].Header.Get("Authorization"))
}

func TestCallStatusError(t *testing.T) {
	fp := newFakeProvider(t, func(w http.ResponseWriter, _ map[string]any) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limited"}`))
	})
	p := mockOpenAI("Mock", fp.URL())
	e := newTestEngine(t, p)

	_, err := e.Call(context.Background(), p, "k", Request{Model: "m", Messages: chatMessages()}, e.BenchmarkOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Equal(t, `Mock error 429: {"error":"rate limited"}`, err.Error())

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
}

func TestCallErrorBodyLimit(t *testing.T) {
	long := strings.Repeat("é", 500)
	fp := newFakeProvider(t, func(w http.ResponseWriter, _ map[string]any) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(long))
	})
	p := mockOpenAI("Mock", fp.URL())
	e := newTestEngine(t, p)
	req := Request{Model: "m", Messages: chatMessages()}

	_, err := e.Call(context.Background(), p, "k", req, e.PreflightOptions())
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, strings.Repeat("é", 200), se.Body)

	_, err = e.Call(context.Background(), p, "k", req, e.BenchmarkOptions())
	require.True(t, errors.As(err, &se))
	assert.Equal(t, long, se.Body)
}

func TestCallFallsBackToPrettyJSON(t *testing.T) {
	fp := newFakeProvider(t, func(w http.ResponseWriter, _ map[string]any) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
	})
	p := mockOpenAI("Mock", fp.URL())
	e := newTestEngine(t, p)

	reply, err := e.Call(context.Background(), p, "k", Request{Model: "m", Messages: chatMessages()}, e.BenchmarkOptions())
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "\n")
	assert.Contains(t, reply.Text, `"id": "x"`)
	assert.Nil(t, reply.InputTokens)
}

func TestCallInvalidJSON(t *testing.T) {
	fp := newFakeProvider(t, func(w http.ResponseWriter, _ map[string]any) {
		_, _ = w.Write([]byte("<html>gateway</html>"))
	})
	p := mockOpenAI("Mock", fp.URL())
	e := newTestEngine(t, p)

	_, err := e.Call(context.Background(), p, "k", Request{Model: "m", Messages: chatMessages()}, e.BenchmarkOptions())
	assert.ErrorContains(t, err, "invalid JSON response")
}

func TestCallMissingBaseURL(t *testing.T) {
	p := mockOpenAI("Gateway", "")
	e := newTestEngine(t, p)

	_, err := e.Call(context.Background(), p, "k", Request{Model: "m", Messages: chatMessages()}, e.BenchmarkOptions())
	assert.True(t, errors.Is(err, ErrMissingBaseURL))

	fp := newFakeProvider(t, func(w http.ResponseWriter, _ map[string]any) {
		jsonReply(w, http.StatusOK, map[string]any{"choices": []any{map[string]any{"message": map[string]any{"content": "via override"}}}})
	})
	reply, err := e.Call(context.Background(), p, "k", Request{Model: "m", Messages: chatMessages(), BaseURL: fp.URL() + "/"}, e.BenchmarkOptions())
	require.NoError(t, err)
	assert.Equal(t, "via override", reply.Text)
	assert.Equal(t, "/v1/chat/completions", fp.Requests()[0].Path)
}

func TestCallTimeout(t *testing.T) {
	fp := newFakeProvider(t, func(w http.ResponseWriter, _ map[string]any) {
		time.Sleep(300 * time.Millisecond)
		jsonReply(w, http.StatusOK, map[string]any{})
	})
	p := mockOpenAI("Slow", fp.URL())
	e := newTestEngine(t, p)

	start := time.Now()
	_, err := e.Call(context.Background(), p, "k", Request{Model: "m", Messages: chatMessages()}, CallOptions{Timeout: 30 * time.Millisecond})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 300*time.Millisecond)
}

func TestCallUnsupportedProtocol(t *testing.T) {
	p := mockOpenAI("Odd", "http://127.0.0.1:1")
	p.Protocol = provider.Protocol(99)
	e := newTestEngine(t, p)

	_, err := e.Call(context.Background(), p, "k", Request{Model: "m"}, e.BenchmarkOptions())
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func TestCallChatProtocol(t *testing.T) {
	fp := newFakeProvider(t, func(w http.ResponseWriter, _ map[string]any) {
		jsonReply(w, http.StatusOK, map[string]any{
			"text": "bonjour",
			"meta": map[string]any{"billed_units": map[string]any{"input_tokens": 7, "output_tokens": 2}},
		})
	})
	p := provider.Provider{Name: "Cohere (Chat)", Kind: provider.KindCustom, Protocol: provider.ProtocolChat, BaseURL: fp.URL()}
	e := newTestEngine(t, p)

	reply, err := e.Call(context.Background(), p, "co-key", Request{
		Model: "command",
		Messages: []model.Message{
			{Role: "system", Content: "sys"},
			{Role: "user", Content: "first"},
			{Role: "assistant", Content: "ignored"},
			{Role: "user", Content: "second"},
		},
		Temperature: 0.3,
		MaxTokens:   32,
	}, e.BenchmarkOptions())
	require.NoError(t, err)
	assert.Equal(t, "bonjour", reply.Text)
	assert.Equal(t, 7, *reply.InputTokens)
	assert.Equal(t, 2, *reply.OutputTokens)

	got := fp.Requests()[0]
	assert.Equal(t, "/v1/chat", got.Path)
	assert.Equal(t, "Bearer co-key", got.Header.Get("Authorization"))
	assert.Equal(t, "first\n\nsecond", got.Body["message"])
	assert.Equal(t, "command", got.Body["model"])
	assert.Equal(t, 0.3, got.Body["temperature"])
	assert.Equal(t, float64(32), got.Body["max_tokens"])
}

func TestChatPrompt(t *testing.T) {
	assert.Equal(t, "only system", chatPrompt([]model.Message{{Role: "system", Content: "only system"}}))
	assert.Equal(t, "", chatPrompt(nil))
}

func TestChatReplyFallbacks(t *testing.T) {
	reply, err := chatAdapter{}.parse([]byte(`{"message":{"content":"nested"}}`))
	require.NoError(t, err)
	assert.Equal(t, "nested", reply.Text)

	reply, err = chatAdapter{}.parse([]byte(`{"other":1}`))
	require.NoError(t, err)
	assert.Contains(t, reply.Text, `"other": 1`)
}

func TestCallGenerateProtocol(t *testing.T) {
	fp := newFakeProvider(t, func(w http.ResponseWriter, _ map[string]any) {
		jsonReply(w, http.StatusOK, map[string]any{
			"candidates":    []any{map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": "pong"}}}}},
			"usageMetadata": map[string]any{"promptTokenCount": 4, "candidatesTokenCount": 1},
		})
	})
	p := provider.Provider{Name: "Google AI Studio (Gemini)", Kind: provider.KindCustom, Protocol: provider.ProtocolGenerate, BaseURL: fp.URL()}
	e := newTestEngine(t, p)

	reply, err := e.Call(context.Background(), p, "g-key", Request{
		Model: "gemini-1.5-flash",
		Messages: []model.Message{
			{Role: "system", Content: "sys"},
			{Role: "user", Content: "ping"},
			{Role: "assistant", Content: "earlier"},
		},
		Temperature: 0,
		MaxTokens:   1,
	}, e.PreflightOptions())
	require.NoError(t, err)
	assert.Equal(t, "pong", reply.Text)
	assert.Equal(t, 4, *reply.InputTokens)

	got := fp.Requests()[0]
	assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", got.Path)
	assert.Equal(t, []string{"g-key"}, got.Query["key"])
	assert.Empty(t, got.Header.Get("Authorization"))

	contents, ok := got.Body["contents"].([]any)
	require.True(t, ok)
	require.Len(t, contents, 3)
	roles := make([]string, 0, len(contents))
	for _, c := range contents {
		roles = append(roles, c.(map[string]any)["role"].(string))
	}
	assert.Equal(t, []string{"user", "user", "model"}, roles)

	genCfg := got.Body["generationConfig"].(map[string]any)
	assert.Equal(t, float64(0), genCfg["temperature"])
	assert.Equal(t, float64(1), genCfg["maxOutputTokens"])
}

func TestCallTimeoutRedactsQueryKey(t *testing.T) {
	fp := newFakeProvider(t, func(w http.ResponseWriter, _ map[string]any) {
		time.Sleep(300 * time.Millisecond)
		jsonReply(w, http.StatusOK, map[string]any{})
	})
	p := provider.Provider{Name: "Gem", Kind: provider.KindCustom, Protocol: provider.ProtocolGenerate, BaseURL: fp.URL()}
	e := newTestEngine(t, p)

	_, err := e.Call(context.Background(), p, "SECRET-KEY-123", Request{Model: "g", Messages: chatMessages()}, CallOptions{Timeout: 30 * time.Millisecond})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRET-KEY-123")
	assert.Contains(t, err.Error(), "Gem request failed")
	assert.Contains(t, err.Error(), "REDACTED")
}

func TestRedactQuery(t *testing.T) {
	err := &url.Error{Op: "Post", URL: "http://h/v1beta/models/g:generateContent?key=s%2Bk", Err: context.DeadlineExceeded}
	got := redactQuery(fmt.Errorf("Gem request failed: %w", err), map[string]string{"key": "s+k"})
	assert.NotContains(t, got.Error(), "s%2Bk")
	assert.Contains(t, got.Error(), "key=REDACTED")
	assert.True(t, errors.Is(got, context.DeadlineExceeded))

	plain := errors.New("dial tcp: connection refused")
	assert.Same(t, plain, redactQuery(plain, map[string]string{"key": "k-1"}))
	assert.Same(t, plain, redactQuery(plain, nil))

	leaked := redactQuery(errors.New("bad URL ?key=k-1"), map[string]string{"key": "k-1"})
	assert.Equal(t, "bad URL ?key=REDACTED", leaked.Error())
}
