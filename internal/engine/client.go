/*
PURPOSE:
  Core engine for calling LLM chat APIs.
  Normalizes three incompatible provider wire formats behind one call
  signature: messages + generation parameters in, reply text out.

REQUIREMENTS:
  User-specified:
  - One call per (provider, model, messages, temperature, max_tokens).
  - HTTP status >= 400 fails the call with provider name, status and body.
  - A missing reply field falls back to the pretty-printed response.

  Implementation-discovered:
  - Needs a per-call timeout (25s probes, 60s benchmark calls).
  - Preflight errors show at most 200 chars of body; benchmark errors show all of it.
  - Usage counts are worth keeping when the provider reports them.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (preflight, runner), internal/server
  - Uses: internal/config, internal/model, internal/provider, internal/output

ERROR HANDLING:
  - No retries. A failed call is returned to the caller, which records it.
  - Timeouts and network errors are ordinary call failures.

IMPLEMENTATION RULES:
  - Use resty for transport; read the raw body so fallbacks see it verbatim.
  - Never log API keys. Gemini carries its key in the query string.

USAGE:
  e := engine.New(cfg, provider.Default())
  reply, err := e.Call(ctx, p, key, engine.Request{...}, e.BenchmarkOptions())

SELF-HEALING INSTRUCTIONS:
  - If a provider changes its response shape, update the gjson paths in adapters.go.

RELATED FILES:
  - internal/engine/adapters.go
  - internal/provider/registry.go

MAINTENANCE:
  - Update when adding a new wire protocol.
*/

package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"resty.dev/v3"

	"github.com/daryltucker/llm-matrix/internal/config"
	"github.com/daryltucker/llm-matrix/internal/model"
	"github.com/daryltucker/llm-matrix/internal/output"
	"github.com/daryltucker/llm-matrix/internal/provider"
)

var (
	// ErrMissingBaseURL means neither the provider nor the entry supplied an endpoint.
	ErrMissingBaseURL = errors.New("base URL is required for this provider")
	// ErrMissingKey means a key-requiring provider had no resolvable key.
	ErrMissingKey = errors.New("missing API key")
	// ErrUnsupported means the provider's protocol cannot serve the operation.
	ErrUnsupported = errors.New("unsupported provider configuration")
)

// StatusError is an HTTP response with status >= 400.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s error %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Request is a provider-agnostic chat call.
type Request struct {
	Model       string
	Messages    []model.Message
	Temperature float64
	MaxTokens   int
	// BaseURL is used when the provider has no endpoint of its own.
	BaseURL string
}

// Reply is the extracted response text plus any reported token usage.
type Reply struct {
	Text         string
	InputTokens  *int
	OutputTokens *int
}

// CallOptions bound a single call.
type CallOptions struct {
	Timeout time.Duration
	// ErrorBodyLimit truncates error bodies to this many characters; 0 keeps all.
	ErrorBodyLimit int
}

// Engine handles provider interactions.
type Engine struct {
	Config   *config.Config
	Registry *provider.Registry
	Client   *resty.Client
}

// New creates a new Engine.
func New(cfg *config.Config, reg *provider.Registry) *Engine {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if reg == nil {
		reg = provider.Default()
	}

	client := resty.New()
	client.AddResponseMiddleware(func(c *resty.Client, r *resty.Response) error {
		if r.Request == nil || r.Request.RawRequest == nil {
			return nil
		}
		// Path only: the query may carry an API key.
		output.Logger.Debug("HTTP client request",
			"method", r.Request.RawRequest.Method,
			"host", r.Request.RawRequest.URL.Host,
			"path", r.Request.RawRequest.URL.Path,
			"status", r.StatusCode(),
		)
		return nil
	})

	return &Engine{
		Config:   cfg,
		Registry: reg,
		Client:   client,
	}
}

// Close releases the underlying HTTP client.
func (e *Engine) Close() error {
	return e.Client.Close()
}

// PreflightOptions are the bounds used for probe calls.
func (e *Engine) PreflightOptions() CallOptions {
	return CallOptions{Timeout: e.Config.PreflightTimeout, ErrorBodyLimit: e.Config.PreflightErrorLimit}
}

// BenchmarkOptions are the bounds used for matrix calls.
func (e *Engine) BenchmarkOptions() CallOptions {
	return CallOptions{Timeout: e.Config.RequestTimeout}
}

// Call dispatches req to the adapter for p's protocol.
func (e *Engine) Call(ctx context.Context, p provider.Provider, key string, req Request, opts CallOptions) (Reply, error) {
	a, ok := adapters[p.Protocol]
	if !ok {
		return Reply{}, fmt.Errorf("%s: %w", p.Name, ErrUnsupported)
	}

	hc, err := a.build(p, key, req)
	if err != nil {
		return Reply{}, err
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	body, err := e.post(ctx, p, hc, opts.ErrorBodyLimit)
	if err != nil {
		return Reply{}, err
	}
	return a.parse(body)
}

// httpCall is a fully resolved POST produced by an adapter.
type httpCall struct {
	URL     string
	Headers map[string]string
	Query   map[string]string
	Body    any
}

func (e *Engine) post(ctx context.Context, p provider.Provider, hc httpCall, limit int) ([]byte, error) {
	req := e.Client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeaders(hc.Headers).
		SetBody(hc.Body).
		SetDoNotParseResponse(true)
	if len(hc.Query) > 0 {
		req.SetQueryParams(hc.Query)
	}

	resp, err := req.Post(hc.URL)
	if err != nil {
		return nil, redactQuery(fmt.Errorf("%s request failed: %w", p.Name, err), hc.Query)
	}
	if resp.RawResponse == nil || resp.RawResponse.Body == nil {
		return nil, fmt.Errorf("%s returned no response body", p.Name)
	}
	defer resp.RawResponse.Body.Close()

	body, err := io.ReadAll(resp.RawResponse.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response body: %w", p.Name, err)
	}

	if resp.StatusCode() >= 400 {
		return nil, &StatusError{
			Provider:   p.Name,
			StatusCode: resp.StatusCode(),
			Body:       truncate(string(body), limit),
		}
	}
	return body, nil
}

const redacted = "REDACTED"

// redactQuery masks query values (Gemini's key) in transport errors, which
// quote the full request URL.
func redactQuery(err error, query map[string]string) error {
	if len(query) == 0 {
		return err
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if u, perr := url.Parse(urlErr.URL); perr == nil {
			q := u.Query()
			for k := range query {
				if q.Has(k) {
					q.Set(k, redacted)
				}
			}
			u.RawQuery = q.Encode()
			urlErr.URL = u.String()
		}
	}

	msg := err.Error()
	clean := msg
	for _, v := range query {
		if v == "" {
			continue
		}
		clean = strings.ReplaceAll(clean, v, redacted)
		clean = strings.ReplaceAll(clean, url.QueryEscape(v), redacted)
	}
	if clean == msg {
		return err
	}
	// The value survived in some other wrapper; drop the chain rather than leak it.
	return errors.New(clean)
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}
