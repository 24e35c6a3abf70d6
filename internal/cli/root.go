/*
PURPOSE:
  Defines the root Cobra command for the llm-matrix CLI.
  Handles global flags, config loading and .env files.

REQUIREMENTS:
  User-specified:
  - Provide a CLI interface.
  - Support global flags like --config and --env-file.

  Implementation-discovered:
  - Needs to expose an Execute() function for main.go.
  - .env files must load before any ${NAME} key is resolved.

ARCHITECTURE INTEGRATION:
  - Called by: cmd/llm-matrix/main.go
  - Calls: Child commands (providers, preflight, run, list-models, templates, serve)

ERROR HANDLING:
  - Returns error to main.go for exit code handling. Cobra itself prints nothing.

IMPLEMENTATION RULES:
  - Use `PersistentFlags()` for flags available to all subcommands.
  - The logger is configured in PersistentPreRunE, before any command logs.

USAGE:
  Called by main.go.

SELF-HEALING INSTRUCTIONS:
  - If adding new global flags, add them to init().

RELATED FILES:
  - cmd/llm-matrix/main.go
  - internal/config/config.go

MAINTENANCE:
  - Update when adding global configuration options.
*/

package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/daryltucker/llm-matrix/internal/config"
	"github.com/daryltucker/llm-matrix/internal/output"
	"github.com/daryltucker/llm-matrix/internal/provider"
)

var (
	// cfgFile stores the path to the config file (if specified via flag)
	cfgFile   string
	envFiles  []string
	logFormat string
	logLevel  string

	rootCmd = &cobra.Command{
		Use:   "llm-matrix",
		Short: "Benchmark a question bank across many LLM providers",
		Long: `Runs a matrix of benchmark questions against a set of LLM provider/model
entries and records every response as a JSON line. Use 'preflight' to check
credentials first and 'run --help' for matrix options.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return output.Configure(os.Stderr, logFormat, logLevel)
		},
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./llm_matrix.yaml)")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Comma-separated .env files loaded before ${VAR} keys are resolved")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

// loadConfig loads the config file and the env files it or the flags name.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	files := append(append([]string(nil), cfg.EnvFiles...), envFiles...)
	if err := provider.LoadEnvFiles(files...); err != nil {
		return nil, err
	}
	if len(files) > 0 {
		output.Logger.Debug("Loaded env files", "files", files)
	}
	return cfg, nil
}

// sessionRunID returns the configured run id or a fresh one.
func sessionRunID(cfg *config.Config) string {
	if cfg.RunID != "" {
		return cfg.RunID
	}
	return output.NewRunID()
}
