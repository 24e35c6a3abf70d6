package output

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"gpt-4o-mini", "gpt-4o-mini"},
		{"openai/gpt-4o", "openai-gpt-4o"},
		{"  Llama 3.3 70B  ", "llama-3-3-70b"},
		{"models/gemini-1.5-flash", "models-gemini-1-5-flash"},
		{"--weird//name--", "weird-name"},
		{"", "model"},
		{"///", "model"},
		{"über-model", "ber-model"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestSlugifyProperties(t *testing.T) {
	valid := regexp.MustCompile(`^[a-z0-9-]+$`)
	inputs := []string{
		"gpt-4o",
		"A/B/C",
		strings.Repeat("x", 39) + "/tail",
		strings.Repeat("ab-", 30),
		"meta-llama/Llama-3.1-405B-Instruct-FP8:free",
		"\t",
	}
	for _, in := range inputs {
		s := Slugify(in)
		assert.Regexp(t, valid, s, "input %q", in)
		assert.LessOrEqual(t, len(s), 40, "input %q", in)
		assert.Equal(t, s, Slugify(s), "idempotent for %q", in)
	}
}

func TestHashText(t *testing.T) {
	// sha256("") = e3b0c44298fc1c149afbf4c8996fb924...
	assert.Equal(t, "e3b0c44298fc", HashText(""))
	assert.Len(t, HashText("You are a helpful assistant."), 12)
	assert.Equal(t, HashText("abc"), HashText("abc"))
	assert.NotEqual(t, HashText("abc"), HashText("abd"))
}

func TestNewRunID(t *testing.T) {
	t.Setenv("RUN_ID", "")
	a, b := NewRunID(), NewRunID()
	assert.Regexp(t, `^[0-9a-f]{32}$`, a)
	assert.NotEqual(t, a, b)

	t.Setenv("RUN_ID", "pinned")
	assert.Equal(t, "pinned", NewRunID())
}
