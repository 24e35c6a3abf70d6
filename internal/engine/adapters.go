/*
PURPOSE:
  The three provider wire formats: OpenAI-compatible, chat-style and
  generation-style. Each builds one POST and extracts the reply.

REQUIREMENTS:
  User-specified:
  - temperature is always sent, including 0.0.
  - A missing reply field falls back to the pretty-printed response.

  Implementation-discovered:
  - Usage counts live at different paths per format.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine/client.go (Call)

ERROR HANDLING:
  - Missing base URL fails before any network traffic.
  - A 2xx body that is not JSON is an error.

IMPLEMENTATION RULES:
  - The set is closed; add a provider.Protocol and an adapter together.

RELATED FILES:
  - internal/provider/registry.go
*/

package engine

import (
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/daryltucker/llm-matrix/internal/model"
	"github.com/daryltucker/llm-matrix/internal/provider"
)

// adapter turns a Request into one provider's wire shape and back.
// The set is closed: one implementation per provider.Protocol.
type adapter interface {
	build(p provider.Provider, key string, req Request) (httpCall, error)
	parse(body []byte) (Reply, error)
}

var adapters = map[provider.Protocol]adapter{
	provider.ProtocolOpenAI:   openAIAdapter{},
	provider.ProtocolChat:     chatAdapter{},
	provider.ProtocolGenerate: generateAdapter{},
}

// --- OpenAI-compatible: POST {base}/v1/chat/completions ---

type openAIAdapter struct{}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []model.Message `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens"`
	Stream      bool            `json:"stream"`
}

func (openAIAdapter) build(p provider.Provider, key string, req Request) (httpCall, error) {
	base := p.Endpoint(req.BaseURL)
	if base == "" {
		return httpCall{}, fmt.Errorf("%s: %w", p.Name, ErrMissingBaseURL)
	}
	path := p.Path
	if path == "" {
		path = "/v1/chat/completions"
	}

	headers := make(map[string]string, len(p.Headers)+1)
	if key != "" {
		headers[p.AuthHeader] = p.BearerPrefix + key
	}
	for k, v := range p.Headers {
		headers[k] = v
	}

	return httpCall{
		URL:     joinURL(base, path),
		Headers: headers,
		Body: openAIRequest{
			Model:       req.Model,
			Messages:    req.Messages,
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
			Stream:      false,
		},
	}, nil
}

func (openAIAdapter) parse(body []byte) (Reply, error) {
	if !gjson.ValidBytes(body) {
		return Reply{}, fmt.Errorf("invalid JSON response: %s", truncate(string(body), 200))
	}
	reply := Reply{
		InputTokens:  intAt(body, "usage.prompt_tokens"),
		OutputTokens: intAt(body, "usage.completion_tokens"),
	}
	if c := gjson.GetBytes(body, "choices.0.message.content"); c.Exists() && c.Type != gjson.Null {
		reply.Text = c.String()
		return reply, nil
	}
	reply.Text = prettyJSON(body)
	return reply, nil
}

// --- Chat-style (Cohere v1): single "message" string ---

type chatAdapter struct{}

type chatRequest struct {
	Model       string  `json:"model"`
	Message     string  `json:"message"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// chatPrompt joins all user turns with a blank line, or falls back to the
// final message when there are none.
func chatPrompt(msgs []model.Message) string {
	var turns []string
	for _, m := range msgs {
		if m.Role == openai.ChatMessageRoleUser {
			turns = append(turns, m.Content)
		}
	}
	if len(turns) > 0 {
		return strings.Join(turns, "\n\n")
	}
	if len(msgs) > 0 {
		return msgs[len(msgs)-1].Content
	}
	return ""
}

func (chatAdapter) build(p provider.Provider, key string, req Request) (httpCall, error) {
	base := p.Endpoint(req.BaseURL)
	if base == "" {
		return httpCall{}, fmt.Errorf("%s: %w", p.Name, ErrMissingBaseURL)
	}
	path := p.Path
	if path == "" {
		path = "/v1/chat"
	}

	headers := map[string]string{"Authorization": "Bearer " + key}
	for k, v := range p.Headers {
		headers[k] = v
	}

	return httpCall{
		URL:     joinURL(base, path),
		Headers: headers,
		Body: chatRequest{
			Model:       req.Model,
			Message:     chatPrompt(req.Messages),
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
		},
	}, nil
}

func (chatAdapter) parse(body []byte) (Reply, error) {
	if !gjson.ValidBytes(body) {
		return Reply{}, fmt.Errorf("invalid JSON response: %s", truncate(string(body), 200))
	}
	reply := Reply{
		InputTokens:  intAt(body, "meta.billed_units.input_tokens"),
		OutputTokens: intAt(body, "meta.billed_units.output_tokens"),
	}
	if t := gjson.GetBytes(body, "text").String(); t != "" {
		reply.Text = t
		return reply, nil
	}
	if c := gjson.GetBytes(body, "message.content"); c.Exists() {
		reply.Text = c.String()
		return reply, nil
	}
	reply.Text = prettyJSON(body)
	return reply, nil
}

// --- Generation-style (Gemini): contents/parts with the key in the query ---

type generateAdapter struct{}

type generatePart struct {
	Text string `json:"text"`
}

type generateContent struct {
	Role  string         `json:"role"`
	Parts []generatePart `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateRequest struct {
	Contents         []generateContent `json:"contents"`
	GenerationConfig generationConfig  `json:"generationConfig"`
}

// generateRole maps chat roles onto the two roles the generation API knows.
func generateRole(role string) string {
	if role == openai.ChatMessageRoleAssistant {
		return "model"
	}
	return "user"
}

func (generateAdapter) build(p provider.Provider, key string, req Request) (httpCall, error) {
	base := p.Endpoint(req.BaseURL)
	if base == "" {
		return httpCall{}, fmt.Errorf("%s: %w", p.Name, ErrMissingBaseURL)
	}
	path := p.Path
	if path == "" {
		path = "/v1beta/models/" + req.Model + ":generateContent"
	}

	contents := make([]generateContent, 0, len(req.Messages))
	for _, m := range req.Messages {
		contents = append(contents, generateContent{
			Role:  generateRole(m.Role),
			Parts: []generatePart{{Text: m.Content}},
		})
	}

	return httpCall{
		URL:     joinURL(base, path),
		Headers: p.Headers,
		Query:   map[string]string{"key": key},
		Body: generateRequest{
			Contents: contents,
			GenerationConfig: generationConfig{
				Temperature:     req.Temperature,
				MaxOutputTokens: req.MaxTokens,
			},
		},
	}, nil
}

func (generateAdapter) parse(body []byte) (Reply, error) {
	if !gjson.ValidBytes(body) {
		return Reply{}, fmt.Errorf("invalid JSON response: %s", truncate(string(body), 200))
	}
	reply := Reply{
		InputTokens:  intAt(body, "usageMetadata.promptTokenCount"),
		OutputTokens: intAt(body, "usageMetadata.candidatesTokenCount"),
	}
	if t := gjson.GetBytes(body, "candidates.0.content.parts.0.text"); t.Exists() && t.Type != gjson.Null {
		reply.Text = t.String()
		return reply, nil
	}
	reply.Text = prettyJSON(body)
	return reply, nil
}

// --- helpers ---

func intAt(body []byte, path string) *int {
	r := gjson.GetBytes(body, path)
	if r.Type != gjson.Number {
		return nil
	}
	n := int(r.Int())
	return &n
}

// prettyJSON is the fallback reply when the expected field is absent.
func prettyJSON(body []byte) string {
	out := pretty.PrettyOptions(body, &pretty.Options{Width: 80, Indent: "  "})
	return strings.TrimRight(string(out), "\n")
}
