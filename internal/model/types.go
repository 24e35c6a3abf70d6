/*
PURPOSE:
  Defines the core data structures shared across llm-matrix.
  These models represent the benchmark inputs (entries, questions),
  the chat messages sent to providers, and the exported outcomes.

REQUIREMENTS:
  User-specified:
  - Record provider, model, parameters, prompt hash, question, response,
    status, error and latency for every attempted call.
  - Preflight rows carry provider, model, parameters, status and detail.

  Implementation-discovered:
  - Entries need defaults (temperature 0.7, max_tokens 512) applied while
    decoding, since YAML rows routinely omit them.
  - Optional record fields must serialize as JSON null, not be omitted.

ARCHITECTURE INTEGRATION:
  - Used by: internal/config, internal/engine, internal/output, internal/server
  - Shared across boundaries.

ERROR HANDLING:
  - None (pure data structs).

IMPLEMENTATION RULES:
  - Keep structs simple and public.
  - Record field order is the JSONL column order. Do not reorder.

USAGE:
  rec := model.Record{Provider: "Groq", Model: "llama-3.3-70b-versatile", ...}

SELF-HEALING INSTRUCTIONS:
  - If new record fields are needed, add them at the end and update the
    JSONL writer tests.

RELATED FILES:
  - internal/output/json.go
  - internal/output/csv.go

MAINTENANCE:
  - Update when adding new metrics to capture.
*/

package model

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 512
)

// Call outcome values written to Record.Status.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Preflight outcome values written to PreflightRow.Status.
const (
	PreflightOK   = "ok"
	PreflightFail = "fail"
)

// Message is one provider-agnostic chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Entry is one benchmark participant: a provider, a model and its parameters.
type Entry struct {
	Name        string  `yaml:"name" json:"name"`
	Model       string  `yaml:"model" json:"model"`
	APIKey      string  `yaml:"api_key" json:"api_key"`
	Temperature float64 `yaml:"temperature" json:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens"`
	// BaseURL supplies an endpoint for providers registered without one.
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
}

// NewEntry returns an Entry with default generation parameters.
func NewEntry(name, modelName, apiKey string) Entry {
	return Entry{
		Name:        name,
		Model:       modelName,
		APIKey:      apiKey,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

// UnmarshalYAML applies defaults before decoding so absent keys keep them.
func (e *Entry) UnmarshalYAML(node *yaml.Node) error {
	type plain Entry
	out := plain(NewEntry("", "", ""))
	if err := node.Decode(&out); err != nil {
		return err
	}
	*e = Entry(out)
	return nil
}

// UnmarshalJSON mirrors UnmarshalYAML for the HTTP API.
func (e *Entry) UnmarshalJSON(data []byte) error {
	type plain Entry
	out := plain(NewEntry("", "", ""))
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*e = Entry(out)
	return nil
}

// Label is the human-readable "provider — model" identifier.
func (e Entry) Label() string {
	return e.Name + " — " + e.Model
}

// Question is one benchmark prompt. ID is nil when the source had none.
type Question struct {
	ID   *string `json:"id"`
	Text string  `json:"text"`
}

// IDOr returns the question id, or fallback when it has none.
func (q Question) IDOr(fallback string) string {
	if q.ID == nil || *q.ID == "" {
		return fallback
	}
	return *q.ID
}

// Record is the outcome of one (question, entry) call and the unit of export.
type Record struct {
	RunID              string   `json:"run_id"`
	Timestamp          string   `json:"timestamp_utc"`
	Provider           string   `json:"provider"`
	Model              string   `json:"model"`
	Temperature        float64  `json:"temperature"`
	MaxTokens          int      `json:"max_tokens"`
	SystemPromptSHA256 string   `json:"system_prompt_sha256"`
	SystemPrompt       string   `json:"system_prompt"`
	QuestionID         *string  `json:"question_id"`
	QuestionText       string   `json:"question_text"`
	ResponseText       string   `json:"response_text"`
	Status             string   `json:"status"`
	ErrorMessage       *string  `json:"error_message"`
	LatencyMS          *float64 `json:"latency_ms"`
	TokenInput         *int     `json:"token_input"`
	TokenOutput        *int     `json:"token_output"`
	ExperimentTag      *string  `json:"experiment_tag"`
}

// PreflightRow is the outcome of probing one entry.
type PreflightRow struct {
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Status      string  `json:"status"`
	Detail      string  `json:"detail"`
}

// OK reports whether the probe succeeded.
func (r PreflightRow) OK() bool { return r.Status == PreflightOK }
