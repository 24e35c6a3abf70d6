package engine

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/daryltucker/llm-matrix/internal/config"
	"github.com/daryltucker/llm-matrix/internal/provider"
)

// captured is one request seen by a fake provider.
type captured struct {
	Method string
	Path   string
	Query  map[string][]string
	Header http.Header
	Body   map[string]any
}

// fakeProvider records requests and answers with handler.
type fakeProvider struct {
	mu       sync.Mutex
	requests []captured
	server   *httptest.Server
}

func newFakeProvider(t *testing.T, handler func(w http.ResponseWriter, body map[string]any)) *fakeProvider {
	t.Helper()
	fp := &fakeProvider{}
	fp.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)

		fp.mu.Lock()
		fp.requests = append(fp.requests, captured{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		fp.mu.Unlock()

		handler(w, body)
	}))
	t.Cleanup(fp.server.Close)
	return fp
}

func (fp *fakeProvider) URL() string { return fp.server.URL }

func (fp *fakeProvider) Requests() []captured {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return append([]captured(nil), fp.requests...)
}

func jsonReply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func mockOpenAI(name, baseURL string) provider.Provider {
	return provider.Provider{
		Name:         name,
		Kind:         provider.KindOpenAICompatible,
		Protocol:     provider.ProtocolOpenAI,
		BaseURL:      baseURL,
		AuthHeader:   "Authorization",
		BearerPrefix: "Bearer ",
	}
}

func newTestEngine(t *testing.T, providers ...provider.Provider) *Engine {
	t.Helper()
	e := New(config.DefaultConfig(), provider.NewRegistry(providers...))
	t.Cleanup(func() { require.NoError(t, e.Close()) })
	return e
}
