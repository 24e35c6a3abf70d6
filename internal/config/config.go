/*
PURPOSE:
  Defines the configuration structure and loading logic for llm-matrix.
  Adheres to "Config IS Code" philosophy.

REQUIREMENTS:
  User-specified:
  - Allow configuration of input files, system prompt, experiment tag,
    export directory and per-call timeouts.
  - An optional RUN_ID environment override for the run identifier.

  Implementation-discovered:
  - Needs to support YAML parsing.
  - Needs to support Environment variable overrides (LLM_MATRIX_...).
  - CLI flags are applied last, by internal/cli.

ARCHITECTURE INTEGRATION:
  - Used by: internal/cli, internal/engine, internal/server
  - Dependencies: gopkg.in/yaml.v3, github.com/caarlos0/env/v10

ERROR HANDLING:
  - Returns explicit error if config file is invalid.
  - A missing config file is not an error when no path was given (defaults apply).

IMPLEMENTATION RULES:
  - Config struct tags should support yaml and env.
  - Defaults mirror the probe/benchmark timeouts: 25s and 60s.

USAGE:
  cfg, err := config.Load("llm_matrix.yaml")

SELF-HEALING INSTRUCTIONS:
  - If new fields are needed, add to Config struct and update DefaultConfig().

RELATED FILES:
  - internal/config/inputs.go
  - internal/cli/root.go

MAINTENANCE:
  - Update when adding new tuning parameters.
*/

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the full configuration for llm-matrix.
type Config struct {
	ProvidersFile    string `yaml:"providers_file" env:"LLM_MATRIX_PROVIDERS_FILE"`
	QuestionsFile    string `yaml:"questions_file" env:"LLM_MATRIX_QUESTIONS_FILE"`
	SystemPrompt     string `yaml:"system_prompt" env:"LLM_MATRIX_SYSTEM_PROMPT"`
	SystemPromptFile string `yaml:"system_prompt_file" env:"LLM_MATRIX_SYSTEM_PROMPT_FILE"`
	ExperimentTag    string `yaml:"experiment_tag" env:"LLM_MATRIX_EXPERIMENT_TAG"`
	ExportDir        string `yaml:"export_dir" env:"LLM_MATRIX_EXPORT_DIR"`
	// RunID pins the run identifier; empty means generate one per session.
	RunID            string        `yaml:"run_id" env:"RUN_ID"`
	PreflightTimeout time.Duration `yaml:"preflight_timeout" env:"LLM_MATRIX_PREFLIGHT_TIMEOUT"`
	RequestTimeout   time.Duration `yaml:"request_timeout" env:"LLM_MATRIX_REQUEST_TIMEOUT"`
	// PreflightErrorLimit caps how much of an error body a preflight row shows.
	PreflightErrorLimit int `yaml:"preflight_error_limit" env:"LLM_MATRIX_PREFLIGHT_ERROR_LIMIT"`
	// EnvFiles are .env files loaded before ${NAME} keys are resolved.
	EnvFiles []string `yaml:"env_files" env:"LLM_MATRIX_ENV_FILES" envSeparator:","`
	Listen   string   `yaml:"listen" env:"LLM_MATRIX_LISTEN"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ProvidersFile:       "providers.yaml",
		QuestionsFile:       "questions.yaml",
		ExportDir:           "atl_data/exports",
		PreflightTimeout:    25 * time.Second,
		RequestTimeout:      60 * time.Second,
		PreflightErrorLimit: 200,
		Listen:              ":8080",
	}
}

// Load reads configuration from a file.
// If path is specified, it attempts to load that file.
// If path is empty, it searches for default files in order.
// If no file found, returns default config.
// Environment overrides are applied on top in every case.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	var data []byte
	var err error

	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
	} else {
		// Search for defaults
		defaults := []string{"llm_matrix.yaml", "llm_matrix.yml", "runner.yaml"}
		for _, name := range defaults {
			data, err = os.ReadFile(name)
			if err == nil {
				path = name // record which file we loaded
				break
			}
		}
	}

	if path != "" {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.PreflightTimeout <= 0 {
		return fmt.Errorf("preflight_timeout must be positive, got %s", c.PreflightTimeout)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.PreflightErrorLimit < 0 {
		return fmt.Errorf("preflight_error_limit must not be negative, got %d", c.PreflightErrorLimit)
	}
	return nil
}

// ResolveSystemPrompt returns the inline prompt, or the prompt file's
// contents when a file is configured.
func (c *Config) ResolveSystemPrompt() (string, error) {
	if c.SystemPromptFile == "" {
		return c.SystemPrompt, nil
	}
	data, err := os.ReadFile(c.SystemPromptFile)
	if err != nil {
		return "", fmt.Errorf("failed to read system prompt file: %w", err)
	}
	return string(data), nil
}
