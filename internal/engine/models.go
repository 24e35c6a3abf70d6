package engine

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/sashabaranov/go-openai"

	"github.com/daryltucker/llm-matrix/internal/provider"
)

// headerDoer adds a provider's fixed headers to every go-openai request.
type headerDoer struct {
	client  *http.Client
	headers map[string]string
}

func (d headerDoer) Do(req *http.Request) (*http.Response, error) {
	for k, v := range d.headers {
		req.Header.Set(k, v)
	}
	return d.client.Do(req)
}

// ListModels returns the model ids an OpenAI-compatible provider advertises.
// baseURL is only used when the provider has no endpoint of its own.
func (e *Engine) ListModels(ctx context.Context, p provider.Provider, key, baseURL string) ([]string, error) {
	if p.Protocol != provider.ProtocolOpenAI {
		return nil, fmt.Errorf("%s: listing models: %w", p.Name, ErrUnsupported)
	}
	base := p.Endpoint(baseURL)
	if base == "" {
		return nil, fmt.Errorf("%s: %w", p.Name, ErrMissingBaseURL)
	}

	cfg := openai.DefaultConfig(key)
	cfg.BaseURL = joinURL(base, "/v1")
	cfg.HTTPClient = headerDoer{
		client:  &http.Client{Timeout: e.Config.PreflightTimeout},
		headers: p.Headers,
	}
	client := openai.NewClientWithConfig(cfg)

	list, err := client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list models: %w", p.Name, err)
	}

	names := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		names = append(names, m.ID)
	}
	sort.Strings(names)
	return names, nil
}
