/*
PURPOSE:
  Implements the 'list-models' command.
  Prints the models an OpenAI-compatible provider advertises.

REQUIREMENTS:
  User-specified:
  - Help users find valid model names for providers.yaml.

  Implementation-discovered:
  - Keys accept the same ${NAME} placeholders as providers.yaml.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli/root.go
  - Calls: internal/engine (ListModels)

ERROR HANDLING:
  - Unknown provider, missing key or an unsupported protocol is an error.

IMPLEMENTATION RULES:
  - Progress text goes to stderr, model names to stdout.

USAGE:
  llm-matrix list-models --provider Groq --api-key '${GROQ_API_KEY}'

RELATED FILES:
  - internal/engine/models.go
*/

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daryltucker/llm-matrix/internal/engine"
	"github.com/daryltucker/llm-matrix/internal/provider"
)

var (
	listProvider string
	listAPIKey   string
	listBaseURL  string
)

var listModelsCmd = &cobra.Command{
	Use:   "list-models",
	Short: "List models advertised by an OpenAI-compatible provider",
	Example: `  llm-matrix list-models --provider Groq --api-key '${GROQ_API_KEY}'
  llm-matrix list-models --provider "Ollama (local)"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		reg := provider.Default()
		p, ok := reg.Lookup(listProvider)
		if !ok {
			return fmt.Errorf("%w: %s", provider.ErrUnknownProvider, listProvider)
		}
		key, ok := provider.ResolveKey(listAPIKey)
		if !ok && p.RequiresKey() {
			return fmt.Errorf("%s: %w", p.Name, engine.ErrMissingKey)
		}

		e := engine.New(cfg, reg)
		defer e.Close()

		fmt.Fprintf(cmd.ErrOrStderr(), "Querying %s...\n", p.Name)
		models, err := e.ListModels(context.Background(), p, key, listBaseURL)
		if err != nil {
			return err
		}
		for _, m := range models {
			fmt.Fprintf(cmd.OutOrStdout(), "- %s\n", m)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listModelsCmd)
	listModelsCmd.Flags().StringVar(&listProvider, "provider", "", "Provider display name (see 'llm-matrix providers')")
	listModelsCmd.Flags().StringVar(&listAPIKey, "api-key", "", "API key or ${ENV_VAR} placeholder")
	listModelsCmd.Flags().StringVar(&listBaseURL, "base-url", "", "Endpoint for providers without a default base URL")
	_ = listModelsCmd.MarkFlagRequired("provider")
}
