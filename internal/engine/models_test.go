package engine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/llm-matrix/internal/provider"
)

func TestListModels(t *testing.T) {
	var gotPath, gotAuth, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		jsonReply(w, http.StatusOK, map[string]any{
			"object": "list",
			"data": []any{
				map[string]any{"id": "zeta", "object": "model", "owned_by": "x"},
				map[string]any{"id": "alpha", "object": "model", "owned_by": "x"},
			},
		})
	}))
	defer srv.Close()

	p := mockOpenAI("Mock", srv.URL)
	p.Headers = map[string]string{"Accept": "application/json"}
	e := newTestEngine(t, p)

	names, err := e.ListModels(context.Background(), p, "sk-list", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)
	assert.Equal(t, "/v1/models", gotPath)
	assert.Equal(t, "Bearer sk-list", gotAuth)
	assert.Equal(t, "application/json", gotAccept)
}

func TestListModelsErrors(t *testing.T) {
	e := newTestEngine(t)

	chat := provider.Provider{Name: "Cohere (Chat)", Kind: provider.KindCustom, Protocol: provider.ProtocolChat, BaseURL: "http://127.0.0.1:1"}
	_, err := e.ListModels(context.Background(), chat, "k", "")
	assert.True(t, errors.Is(err, ErrUnsupported))

	_, err = e.ListModels(context.Background(), mockOpenAI("Gateway", ""), "k", "")
	assert.True(t, errors.Is(err, ErrMissingBaseURL))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()
	_, err = e.ListModels(context.Background(), mockOpenAI("Mock", srv.URL), "k", "")
	assert.ErrorContains(t, err, "failed to list models")
}
