/*
PURPOSE:
  Static catalog of the LLM API endpoint families llm-matrix can talk to.
  Maps a provider's display name to its wire protocol and base endpoint.

REQUIREMENTS:
  User-specified:
  - Lookup by display name, exact match only.
  - The catalog is defined once and never mutated.

  Implementation-discovered:
  - Some providers need extra headers (GitHub Models wants Accept: application/json).
  - Some providers have no default endpoint; the entry must supply base_url.
  - The local Ollama provider accepts calls without a key.

ARCHITECTURE INTEGRATION:
  - Used by: internal/engine, internal/cli, internal/server
  - No dependencies.

ERROR HANDLING:
  - None. Lookup returns ok=false; callers raise ErrUnknownProvider.

IMPLEMENTATION RULES:
  - Protocol is chosen here, at definition time. The engine never inspects names.
  - Never expose the backing slice; hand out copies.

USAGE:
  p, ok := provider.Default().Lookup("Groq")

SELF-HEALING INSTRUCTIONS:
  - To add a provider, append to catalog(). If it speaks a new wire format,
    add a Protocol value and an adapter in internal/engine/adapters.go.

RELATED FILES:
  - internal/provider/credentials.go
  - internal/engine/adapters.go

MAINTENANCE:
  - Update when providers change their public endpoints.
*/

package provider

import (
	"errors"
	"maps"
)

// ErrUnknownProvider is returned when an entry names a provider not in the registry.
var ErrUnknownProvider = errors.New("unknown provider name")

// Kind is the coarse provider family used for key requirements.
type Kind string

const (
	KindOpenAICompatible Kind = "openai_compatible"
	KindCustom           Kind = "custom"
)

// Protocol selects the request adapter used for a provider.
type Protocol int

const (
	// ProtocolOpenAI is POST {base}/v1/chat/completions with a messages array.
	ProtocolOpenAI Protocol = iota
	// ProtocolChat is the single-message chat shape (Cohere).
	ProtocolChat
	// ProtocolGenerate is the contents/parts generation shape (Gemini).
	ProtocolGenerate
)

func (p Protocol) String() string {
	switch p {
	case ProtocolOpenAI:
		return "openai"
	case ProtocolChat:
		return "chat"
	case ProtocolGenerate:
		return "generate"
	default:
		return "unknown"
	}
}

// Provider is the identity of an API endpoint family.
type Provider struct {
	Name         string
	Kind         Kind
	Protocol     Protocol
	BaseURL      string
	AuthHeader   string
	BearerPrefix string
	Notes        string
	// Headers are sent on every call to this provider.
	Headers map[string]string
	// Path overrides the adapter's default request path.
	Path string
	// NoAuth marks a provider that is reachable without a key.
	NoAuth bool
}

// RequiresKey reports whether calls must carry a resolved key.
func (p Provider) RequiresKey() bool {
	return p.Kind != KindCustom && !p.NoAuth
}

// Endpoint returns the entry override when the provider has no base URL of its own.
func (p Provider) Endpoint(override string) string {
	if p.BaseURL != "" {
		return p.BaseURL
	}
	return override
}

func openAI(name, baseURL, notes string) Provider {
	return Provider{
		Name:         name,
		Kind:         KindOpenAICompatible,
		Protocol:     ProtocolOpenAI,
		BaseURL:      baseURL,
		AuthHeader:   "Authorization",
		BearerPrefix: "Bearer ",
		Notes:        notes,
	}
}

func custom(name string, proto Protocol, baseURL, notes string) Provider {
	p := openAI(name, baseURL, notes)
	p.Kind = KindCustom
	p.Protocol = proto
	return p
}

func catalog() []Provider {
	github := openAI("GitHub Models", "https://models.api.github.com", "Use GitHub token.")
	github.Headers = map[string]string{"Accept": "application/json"}

	ollama := openAI("Ollama (local)", "http://localhost:11434", "Local model via Ollama; e.g., 'llama3.2', 'mistral', etc.")
	ollama.NoAuth = true

	return []Provider{
		openAI("OpenRouter", "https://openrouter.ai/api", "Use 'openrouter/auto' or a specific route."),
		openAI("Groq", "https://api.groq.com/openai", "Common: 'llama-3.3-70b-versatile', etc."),
		openAI("Mistral (La Plateforme)", "https://api.mistral.ai", "E.g., 'mistral-small-latest'."),
		openAI("Cerebras", "https://api.cerebras.ai", "OpenAI-compatible chat completions."),
		openAI("NVIDIA NIM", "https://integrate.api.nvidia.com", "Model names vary by NIM."),
		github,
		openAI("Vercel AI Gateway (Custom)", "", "If used, set base_url in YAML."),
		openAI("Cloudflare Workers AI (Shim)", "https://api.cloudflare.com/client/v4", "Account ID required; uses /ai/v1 shim."),
		custom("Cohere (Chat)", ProtocolChat, "https://api.cohere.com", "E.g., 'command-a-03-2025'."),
		custom("Google AI Studio (Gemini)", ProtocolGenerate, "https://generativelanguage.googleapis.com", "E.g., 'gemini-1.5-flash'."),
		ollama,
	}
}

// Registry is a read-only name → Provider table.
type Registry struct {
	order  []string
	byName map[string]Provider
}

// NewRegistry builds a registry. Later duplicates of a name are ignored.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{byName: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if _, dup := r.byName[p.Name]; dup {
			continue
		}
		r.order = append(r.order, p.Name)
		r.byName[p.Name] = p
	}
	return r
}

var defaultRegistry = NewRegistry(catalog()...)

// Default returns the built-in provider catalog.
func Default() *Registry {
	return defaultRegistry
}

// Lookup finds a provider by exact display name.
func (r *Registry) Lookup(name string) (Provider, bool) {
	p, ok := r.byName[name]
	if !ok {
		return Provider{}, false
	}
	p.Headers = maps.Clone(p.Headers)
	return p, true
}

// Names lists provider names in catalog order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// All returns every provider in catalog order.
func (r *Registry) All() []Provider {
	out := make([]Provider, 0, len(r.order))
	for _, name := range r.order {
		p, _ := r.Lookup(name)
		out = append(out, p)
	}
	return out
}
