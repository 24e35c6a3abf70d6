/*
PURPOSE:
  Preflight checker: one 1-token probe per provider entry.

REQUIREMENTS:
  User-specified:
  - Probe with system/user "ping", max_tokens=1, temperature=0.
  - Blank name/model, unknown provider and missing key fail without a call.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (preflight), internal/server
  - Uses: internal/engine (Call)

ERROR HANDLING:
  - Every failure becomes a row; nothing stops the remaining checks.

USAGE:
  rows := e.Preflight(ctx, entries)
*/

package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/daryltucker/llm-matrix/internal/model"
	"github.com/daryltucker/llm-matrix/internal/output"
	"github.com/daryltucker/llm-matrix/internal/provider"
)

// resolve finds the entry's provider and key. It fails without any network
// traffic when the provider is unknown or a required key is missing.
func (e *Engine) resolve(entry model.Entry) (provider.Provider, string, error) {
	p, ok := e.Registry.Lookup(entry.Name)
	if !ok {
		return provider.Provider{}, "", fmt.Errorf("%w: %s", provider.ErrUnknownProvider, entry.Name)
	}
	key, ok := provider.ResolveKey(entry.APIKey)
	if !ok && p.RequiresKey() {
		return p, "", ErrMissingKey
	}
	return p, key, nil
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func probeMessages() []model.Message {
	return []model.Message{
		{Role: openai.ChatMessageRoleSystem, Content: "ping"},
		{Role: openai.ChatMessageRoleUser, Content: "ping"},
	}
}

// Preflight issues one 1-token probe per entry and reports pass/fail.
// Entries are checked in order; a failure never stops the remaining checks.
func (e *Engine) Preflight(ctx context.Context, entries []model.Entry) []model.PreflightRow {
	ctx = context.WithoutCancel(ctx)
	rows := make([]model.PreflightRow, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, e.probe(ctx, entry))
	}
	return rows
}

func (e *Engine) probe(ctx context.Context, entry model.Entry) model.PreflightRow {
	row := model.PreflightRow{
		Provider:    entry.Name,
		Model:       entry.Model,
		Temperature: entry.Temperature,
		MaxTokens:   entry.MaxTokens,
		Status:      model.PreflightFail,
	}

	if blank(entry.Name) || blank(entry.Model) {
		if blank(entry.Name) {
			row.Provider = "<missing>"
		}
		if blank(entry.Model) {
			row.Model = "<missing>"
		}
		row.Detail = "name/model required"
		return row
	}

	p, key, err := e.resolve(entry)
	switch {
	case errors.Is(err, ErrMissingKey):
		row.Detail = "Missing API key"
		return row
	case err != nil:
		row.Detail = fmt.Sprintf("Unknown provider name: %s", entry.Name)
		return row
	}

	_, err = e.Call(ctx, p, key, Request{
		Model:       entry.Model,
		Messages:    probeMessages(),
		Temperature: 0.0,
		MaxTokens:   1,
		BaseURL:     entry.BaseURL,
	}, e.PreflightOptions())
	if err != nil {
		output.Logger.Warn("Preflight failed", "provider", entry.Name, "model", entry.Model, "error", err)
		row.Detail = err.Error()
		return row
	}

	output.Logger.Info("Preflight OK", "provider", entry.Name, "model", entry.Model)
	row.Status = model.PreflightOK
	return row
}
