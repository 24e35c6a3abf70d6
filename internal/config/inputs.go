/*
PURPOSE:
  Loads providers.yaml and questions.yaml, including pasted YAML wrapped in
  code fences or triple quotes.

REQUIREMENTS:
  User-specified:
  - `providers` must be a list.
  - Questions come from `questions` and every `sets[].questions`.
  - Duplicate (id, text) pairs collapse, first one wins.

  Implementation-discovered:
  - Numeric ids are kept as strings.
  - The CLI selects subsets by question id or entry position.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli, internal/server

ERROR HANDLING:
  - Parse errors abort only that load.

RELATED FILES:
  - internal/model/types.go
*/

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/daryltucker/llm-matrix/internal/model"
)

// SanitizeYAML strips the wrappers people paste around YAML: a leading
// ``` fence (and its closing fence) and leading/trailing """ lines.
func SanitizeYAML(raw string) string {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[0]), "```") {
		lines = lines[1:]
		if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
			lines = lines[:len(lines)-1]
		}
	}
	if len(lines) > 0 && strings.TrimSpace(lines[0]) == `"""` {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == `"""` {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// ParseEntries decodes a providers document: a top-level "providers" list.
func ParseEntries(raw []byte) ([]model.Entry, error) {
	var doc struct {
		Providers yaml.Node `yaml:"providers"`
	}
	clean := SanitizeYAML(string(raw))
	if strings.TrimSpace(clean) == "" {
		return nil, errors.New("providers document is empty")
	}
	if err := yaml.Unmarshal([]byte(clean), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse providers YAML: %w", err)
	}

	switch doc.Providers.Kind {
	case 0:
		return []model.Entry{}, nil
	case yaml.SequenceNode:
	default:
		return nil, errors.New("`providers` must be a list in the YAML")
	}

	var entries []model.Entry
	if err := doc.Providers.Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to parse providers YAML: %w", err)
	}
	return entries, nil
}

// LoadEntries reads and parses a providers file.
func LoadEntries(path string) ([]model.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read providers file: %w", err)
	}
	return ParseEntries(data)
}

// ParseQuestions collects questions from a top-level "questions" list and
// from every "sets[].questions" list. Items without text are ignored.
// The result is deduplicated by (id, text).
func ParseQuestions(raw []byte) ([]model.Question, error) {
	var doc any
	if err := yaml.Unmarshal([]byte(SanitizeYAML(string(raw))), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse questions YAML: %w", err)
	}

	root, ok := doc.(map[string]any)
	if !ok {
		return []model.Question{}, nil
	}

	var out []model.Question
	out = appendQuestions(out, root["questions"])
	if sets, ok := root["sets"].([]any); ok {
		for _, s := range sets {
			if set, ok := s.(map[string]any); ok {
				out = appendQuestions(out, set["questions"])
			}
		}
	}
	return DedupeQuestions(out), nil
}

func appendQuestions(out []model.Question, v any) []model.Question {
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		text, ok := m["text"]
		if !ok || text == nil {
			continue
		}
		q := model.Question{Text: scalarString(text)}
		if strings.TrimSpace(q.Text) == "" {
			continue
		}
		if id := strings.TrimSpace(scalarString(m["id"])); id != "" {
			q.ID = &id
		}
		out = append(out, q)
	}
	return out
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// LoadQuestions reads and parses a questions file.
func LoadQuestions(path string) ([]model.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read questions file: %w", err)
	}
	return ParseQuestions(data)
}

// DedupeQuestions drops repeated (id, text) pairs, keeping first-seen order.
func DedupeQuestions(qs []model.Question) []model.Question {
	type key struct {
		hasID bool
		id    string
		text  string
	}
	seen := make(map[key]struct{}, len(qs))
	uniq := make([]model.Question, 0, len(qs))
	for _, q := range qs {
		k := key{text: q.Text}
		if q.ID != nil {
			k.hasID, k.id = true, *q.ID
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		uniq = append(uniq, q)
	}
	return uniq
}

// SelectQuestions keeps the questions whose id (or 1-based position, for
// questions without an id) is listed. An empty selector keeps everything.
func SelectQuestions(all []model.Question, selectors []string) ([]model.Question, error) {
	if len(selectors) == 0 {
		return all, nil
	}
	out := make([]model.Question, 0, len(selectors))
	for _, sel := range selectors {
		sel = strings.TrimSpace(sel)
		idx := -1
		for i, q := range all {
			if q.IDOr(strconv.Itoa(i+1)) == sel {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("question %q not found", sel)
		}
		out = append(out, all[idx])
	}
	return out, nil
}

// SelectEntries keeps the entries at the given 1-based positions.
// An empty selector keeps everything.
func SelectEntries(all []model.Entry, positions []int) ([]model.Entry, error) {
	if len(positions) == 0 {
		return all, nil
	}
	out := make([]model.Entry, 0, len(positions))
	for _, p := range positions {
		if p < 1 || p > len(all) {
			return nil, fmt.Errorf("entry %d out of range (1-%d)", p, len(all))
		}
		out = append(out, all[p-1])
	}
	return out, nil
}
