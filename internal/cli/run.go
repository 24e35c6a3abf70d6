/*
PURPOSE:
  Implements the 'run' command.
  Loads inputs, applies selections and drives the benchmark matrix.

REQUIREMENTS:
  User-specified:
  - Run every selected question against every selected entry.
  - Allow overriding config via flags.

  Implementation-discovered:
  - Flags are applied after config file and environment.
  - --system-prompt only overrides when given, so an empty prompt is possible.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli/root.go
  - Calls: internal/config (inputs), internal/engine (RunMatrix), internal/output

ERROR HANDLING:
  - Input and selection errors abort before any call.
  - Per-call failures become records; the command still exits 0.

IMPLEMENTATION RULES:
  - Keep the load -> override -> execute order.

USAGE:
  llm-matrix run -P providers.yaml -Q questions.yaml --tag baseline

SELF-HEALING INSTRUCTIONS:
  - If a flag is added, add it to init() and apply it in RunE.

RELATED FILES:
  - internal/cli/flags.go
  - internal/engine/runner.go

MAINTENANCE:
  - Update when matrix options change.
*/

package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/daryltucker/llm-matrix/internal/config"
	"github.com/daryltucker/llm-matrix/internal/engine"
	"github.com/daryltucker/llm-matrix/internal/output"
	"github.com/daryltucker/llm-matrix/internal/provider"
)

var (
	runInputs      inputFlags
	promptOverride string
	promptFile     string
	tagOverride    string
	runIDOverride  string
	questionSelect []string
	entrySelect    []int
	noProgress     bool
	requestTimeout time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the question x model benchmark matrix",
	Long: `Executes every selected question against every selected provider entry.
The process follows a strict protocol:
1. Load: Reads providers.yaml and questions.yaml (fenced or quoted YAML is accepted).
2. Select: Narrows the matrix with --questions / --entries (default: everything).
3. Execute: Calls run one at a time, question-major, each bounded by a timeout.

Every attempted call appends one JSON line to
  {export_dir}/{timestamp}-{model}-{question id}.jsonl
Entries with a blank name/model, an unknown provider or no resolvable key are
skipped with a warning and produce no record.`,
	Example: `  # Run with defaults (uses llm_matrix.yaml, providers.yaml, questions.yaml)
  llm-matrix run

  # Explicit inputs, a system prompt file and an experiment tag
  llm-matrix run -P providers.yaml -Q questions.yaml --system-prompt-file prompt.md --tag baseline

  # Only questions Q1 and Q3 against entries 1 and 2
  llm-matrix run --questions Q1,Q3 --entries 1,2

  # Resolve ${VAR} keys from a .env file
  llm-matrix run --env-file .env -o ./exports`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. Load Config
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// 2. Overrides
		runInputs.apply(cfg)
		if cmd.Flags().Changed("system-prompt") {
			cfg.SystemPrompt = promptOverride
			cfg.SystemPromptFile = ""
		}
		if promptFile != "" {
			cfg.SystemPromptFile = promptFile
		}
		if tagOverride != "" {
			cfg.ExperimentTag = tagOverride
		}
		if runIDOverride != "" {
			cfg.RunID = runIDOverride
		}
		if requestTimeout > 0 {
			cfg.RequestTimeout = requestTimeout
		}

		// 3. Inputs
		m, err := buildMatrix(cfg)
		if err != nil {
			return err
		}
		if len(m.Questions) == 0 {
			return fmt.Errorf("no questions selected (questions file: %s)", cfg.QuestionsFile)
		}
		if len(m.Entries) == 0 {
			return fmt.Errorf("no provider entries selected (providers file: %s)", cfg.ProvidersFile)
		}

		// 4. Execution
		e := engine.New(cfg, provider.Default())
		defer e.Close()

		writer := output.NewJSONWriter(cfg.ExportDir, sessionRunID(cfg))
		output.Logger.Info("Starting matrix",
			"run_id", writer.RunID(),
			"export_dir", writer.Dir(),
			"calls", m.Total(),
		)

		var progress engine.ProgressFunc
		if !noProgress {
			bar := output.NewProgress(os.Stderr, m.Total())
			defer bar.Finish()
			progress = bar.Update
		}

		sum := e.RunMatrix(context.Background(), m, writer, progress)

		fmt.Fprintf(cmd.OutOrStdout(), "Finished matrix run: %d calls (%d failed, %d skipped of %d cells).\n",
			sum.Attempted, sum.Failed, sum.Skipped, sum.Total)
		fmt.Fprintf(cmd.OutOrStdout(), "Run ID: %s\nJSONL files saved in: %s\n", writer.RunID(), writer.Dir())
		return nil
	},
}

// buildMatrix loads the configured inputs and applies the selections.
func buildMatrix(cfg *config.Config) (engine.Matrix, error) {
	entries, err := config.LoadEntries(cfg.ProvidersFile)
	if err != nil {
		return engine.Matrix{}, err
	}
	questions, err := config.LoadQuestions(cfg.QuestionsFile)
	if err != nil {
		return engine.Matrix{}, err
	}
	output.Logger.Info("Loaded inputs", "entries", len(entries), "questions", len(questions))

	if entries, err = config.SelectEntries(entries, entrySelect); err != nil {
		return engine.Matrix{}, err
	}
	if questions, err = config.SelectQuestions(questions, questionSelect); err != nil {
		return engine.Matrix{}, err
	}

	prompt, err := cfg.ResolveSystemPrompt()
	if err != nil {
		return engine.Matrix{}, err
	}

	return engine.Matrix{
		Questions:     questions,
		Entries:       entries,
		SystemPrompt:  prompt,
		ExperimentTag: cfg.ExperimentTag,
	}, nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	runInputs.bind(runCmd.Flags(), true)
	runCmd.Flags().StringVarP(&promptOverride, "system-prompt", "s", "", "System prompt shared by every call (overrides config)")
	runCmd.Flags().StringVar(&promptFile, "system-prompt-file", "", "Path to a file containing the system prompt")
	runCmd.Flags().StringVar(&tagOverride, "tag", "", "Experiment tag stamped on every record")
	runCmd.Flags().StringVar(&runIDOverride, "run-id", "", "Run identifier (default: $RUN_ID or random)")
	runCmd.Flags().StringSliceVar(&questionSelect, "questions", nil, "Comma-separated question ids (or 1-based positions) to run")
	runCmd.Flags().IntSliceVar(&entrySelect, "entries", nil, "Comma-separated 1-based provider entry positions to run")
	runCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
	runCmd.Flags().DurationVar(&requestTimeout, "timeout", 0, "Per-call timeout, e.g. 60s (overrides config)")
}
