package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	reg := Default()
	names := reg.Names()
	require.Len(t, names, 11)
	assert.Equal(t, "OpenRouter", names[0])
	assert.Equal(t, "Ollama (local)", names[len(names)-1])

	gemini, ok := reg.Lookup("Google AI Studio (Gemini)")
	require.True(t, ok)
	assert.Equal(t, ProtocolGenerate, gemini.Protocol)
	assert.Equal(t, KindCustom, gemini.Kind)
	assert.False(t, gemini.RequiresKey())

	cohere, ok := reg.Lookup("Cohere (Chat)")
	require.True(t, ok)
	assert.Equal(t, ProtocolChat, cohere.Protocol)

	groq, ok := reg.Lookup("Groq")
	require.True(t, ok)
	assert.Equal(t, ProtocolOpenAI, groq.Protocol)
	assert.True(t, groq.RequiresKey())
	assert.Equal(t, "https://api.groq.com/openai", groq.BaseURL)

	ollama, ok := reg.Lookup("Ollama (local)")
	require.True(t, ok)
	assert.False(t, ollama.RequiresKey())

	_, ok = reg.Lookup("groq")
	assert.False(t, ok, "lookup is exact")
}

func TestLookupClonesHeaders(t *testing.T) {
	reg := Default()
	gh, ok := reg.Lookup("GitHub Models")
	require.True(t, ok)
	require.Equal(t, "application/json", gh.Headers["Accept"])

	gh.Headers["Accept"] = "text/plain"
	again, _ := reg.Lookup("GitHub Models")
	assert.Equal(t, "application/json", again.Headers["Accept"])
}

func TestNewRegistryIgnoresDuplicates(t *testing.T) {
	reg := NewRegistry(
		Provider{Name: "A", BaseURL: "http://first"},
		Provider{Name: "B"},
		Provider{Name: "A", BaseURL: "http://second"},
	)
	assert.Equal(t, []string{"A", "B"}, reg.Names())
	a, _ := reg.Lookup("A")
	assert.Equal(t, "http://first", a.BaseURL)
	assert.Len(t, reg.All(), 2)
}

func TestEndpoint(t *testing.T) {
	withBase := Provider{BaseURL: "https://api.example.com"}
	assert.Equal(t, "https://api.example.com", withBase.Endpoint("https://override"))

	vercel, ok := Default().Lookup("Vercel AI Gateway (Custom)")
	require.True(t, ok)
	assert.Equal(t, "", vercel.Endpoint(""))
	assert.Equal(t, "https://gw.example", vercel.Endpoint("https://gw.example"))
}

func TestProtocolString(t *testing.T) {
	assert.Equal(t, "openai", ProtocolOpenAI.String())
	assert.Equal(t, "chat", ProtocolChat.String())
	assert.Equal(t, "generate", ProtocolGenerate.String())
	assert.Equal(t, "unknown", Protocol(42).String())
}
