/*
PURPOSE:
  High-level runner that orchestrates a benchmark matrix.
  Loops through Questions -> Entries and executes one call per cell.

REQUIREMENTS:
  User-specified:
  - Question-major order: every entry runs for question 1 before question 2.
  - One record per attempted cell, success or failure.
  - Report progress as completed / total selected cells.

  Implementation-discovered:
  - Blank, unknown or keyless entries are skipped without a record.
  - The sink owns file placement; the runner only builds records.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli, internal/server
  - Uses: internal/engine (Call), internal/output

ERROR HANDLING:
  - Logs errors but continues (resilience). Nothing escapes the cell loop.

IMPLEMENTATION RULES:
  - Strictly sequential. No goroutines, no retries.
  - Total is |questions| x |entries| from the selections, not reduced by skips.

USAGE:
  sum := e.RunMatrix(ctx, engine.Matrix{...}, writer, progress)

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/engine/client.go
  - internal/output/json.go

MAINTENANCE:
  - Update iteration logic if parallelism is ever introduced.
*/

package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/daryltucker/llm-matrix/internal/model"
	"github.com/daryltucker/llm-matrix/internal/output"
)

// Matrix is one run's selections.
type Matrix struct {
	Questions     []model.Question
	Entries       []model.Entry
	SystemPrompt  string
	ExperimentTag string
}

// Total is the number of cells in the selection.
func (m Matrix) Total() int {
	return len(m.Questions) * len(m.Entries)
}

// RecordSink persists one interaction record and reports where it went.
type RecordSink interface {
	Write(r *model.Record) (string, error)
}

// ProgressFunc observes the counter after every attempted call.
type ProgressFunc func(done, total int, label string)

// Summary describes a finished matrix run.
type Summary struct {
	Total     int      `json:"total"`
	Attempted int      `json:"attempted"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
	Files     []string `json:"files"`
}

// RunMatrix executes every (question, entry) cell in question-major order.
func (e *Engine) RunMatrix(ctx context.Context, m Matrix, sink RecordSink, progress ProgressFunc) Summary {
	// A run always completes its grid; ctx only contributes values.
	ctx = context.WithoutCancel(ctx)

	sum := Summary{Total: m.Total()}
	promptHash := output.HashText(m.SystemPrompt)
	seenFiles := make(map[string]struct{})

	var tag *string
	if m.ExperimentTag != "" {
		t := m.ExperimentTag
		tag = &t
	}

	output.Logger.Info("Running matrix",
		"questions", len(m.Questions),
		"entries", len(m.Entries),
		"calls", sum.Total,
	)

	for _, q := range m.Questions {
		text := strings.TrimSpace(q.Text)

		for _, entry := range m.Entries {
			if blank(entry.Name) || blank(entry.Model) {
				sum.Skipped++
				continue
			}

			p, key, err := e.resolve(entry)
			if err != nil {
				if errors.Is(err, ErrMissingKey) {
					output.Logger.Warn("Missing API key. Skipping.", "provider", entry.Name)
				} else {
					output.Logger.Warn("Unknown provider in YAML. Skipping.", "provider", entry.Name)
				}
				sum.Skipped++
				continue
			}

			messages := []model.Message{
				{Role: openai.ChatMessageRoleSystem, Content: m.SystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: text},
			}

			start := time.Now()
			reply, callErr := e.Call(ctx, p, key, Request{
				Model:       entry.Model,
				Messages:    messages,
				Temperature: entry.Temperature,
				MaxTokens:   entry.MaxTokens,
				BaseURL:     entry.BaseURL,
			}, e.BenchmarkOptions())
			latency := float64(time.Since(start).Microseconds()) / 1000.0

			rec := &model.Record{
				Provider:           entry.Name,
				Model:              entry.Model,
				Temperature:        entry.Temperature,
				MaxTokens:          entry.MaxTokens,
				SystemPromptSHA256: promptHash,
				SystemPrompt:       m.SystemPrompt,
				QuestionID:         q.ID,
				QuestionText:       text,
				Status:             model.StatusOK,
				LatencyMS:          &latency,
				ExperimentTag:      tag,
			}
			if callErr != nil {
				msg := callErr.Error()
				rec.Status = model.StatusError
				rec.ErrorMessage = &msg
				sum.Failed++
				output.Logger.Error("Call failed", "provider", entry.Name, "model", entry.Model, "question", q.IDOr("Q"), "error", callErr)
			} else {
				rec.ResponseText = reply.Text
				rec.TokenInput = reply.InputTokens
				rec.TokenOutput = reply.OutputTokens
				output.Logger.Info("Call succeeded", "provider", entry.Name, "model", entry.Model, "question", q.IDOr("Q"), "latency_ms", latency)
			}

			path, err := sink.Write(rec)
			if err != nil {
				output.Logger.Error("Failed to write record", "provider", entry.Name, "model", entry.Model, "error", err)
			} else if _, ok := seenFiles[path]; !ok {
				seenFiles[path] = struct{}{}
				sum.Files = append(sum.Files, path)
			}

			sum.Attempted++
			if progress != nil {
				progress(sum.Attempted, sum.Total, entry.Label())
			}
		}
	}

	output.Logger.Info("Finished matrix run",
		"attempted", sum.Attempted,
		"skipped", sum.Skipped,
		"failed", sum.Failed,
	)
	return sum
}
