/*
PURPOSE:
  Implements the 'preflight' command.
  Probes every provider entry and prints a pass/fail table.

REQUIREMENTS:
  User-specified:
  - One row per entry, in file order.
  - Optional CSV export of the report.

  Implementation-discovered:
  - CI wants a non-zero exit when any entry fails (--fail-on-error).

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli/root.go
  - Calls: internal/engine (Preflight), internal/output (CSV)

ERROR HANDLING:
  - A failed probe is a row, not an error, unless --fail-on-error is set.

USAGE:
  llm-matrix preflight -P providers.yaml --csv -

RELATED FILES:
  - internal/engine/preflight.go
  - internal/output/csv.go
*/

package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/daryltucker/llm-matrix/internal/config"
	"github.com/daryltucker/llm-matrix/internal/engine"
	"github.com/daryltucker/llm-matrix/internal/model"
	"github.com/daryltucker/llm-matrix/internal/output"
	"github.com/daryltucker/llm-matrix/internal/provider"
)

var (
	preflightInputs inputFlags
	preflightCSV    string
	saveCSV         bool
	failOnError     bool
)

var preflightCmd = &cobra.Command{
	Use:     "preflight",
	Aliases: []string{"check"},
	Short:   "Probe every provider entry with a 1-token call",
	Long: `Checks every entry in providers.yaml before a full matrix run.
Each entry gets one probe ("ping", max_tokens=1, temperature=0) unless it is
missing a name/model, names an unknown provider, or has no resolvable key.`,
	Example: `  llm-matrix preflight -P providers.yaml
  llm-matrix preflight --csv preflight.csv
  llm-matrix preflight --save --fail-on-error`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		preflightInputs.apply(cfg)

		entries, err := config.LoadEntries(cfg.ProvidersFile)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return fmt.Errorf("no provider entries in %s", cfg.ProvidersFile)
		}

		e := engine.New(cfg, provider.Default())
		defer e.Close()

		rows := e.Preflight(context.Background(), entries)
		if err := printPreflight(cmd.OutOrStdout(), rows); err != nil {
			return err
		}

		path := preflightCSV
		if path == "" && saveCSV {
			path = filepath.Join(cfg.ExportDir, output.PreflightCSVName)
		}
		switch path {
		case "":
		case "-":
			if err := output.WritePreflightCSV(cmd.OutOrStdout(), rows); err != nil {
				return err
			}
		default:
			if err := output.SavePreflightCSV(path, rows); err != nil {
				return fmt.Errorf("failed to save preflight CSV: %w", err)
			}
			output.Logger.Info("Saved preflight CSV", "path", path)
		}

		if failOnError {
			for _, r := range rows {
				if !r.OK() {
					return fmt.Errorf("preflight failed for %s (%s): %s", r.Provider, r.Model, r.Detail)
				}
			}
		}
		return nil
	},
}

func printPreflight(w io.Writer, rows []model.PreflightRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tMODEL\tTEMP\tMAX_TOKENS\tSTATUS\tDETAIL")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.Provider, r.Model, strconv.FormatFloat(r.Temperature, 'f', -1, 64), r.MaxTokens, r.Status, r.Detail)
	}
	return tw.Flush()
}

func init() {
	rootCmd.AddCommand(preflightCmd)

	preflightInputs.bind(preflightCmd.Flags(), false)
	preflightCmd.Flags().StringVar(&preflightCSV, "csv", "", "Write the report as CSV to this path ('-' for stdout)")
	preflightCmd.Flags().BoolVar(&saveCSV, "save", false, "Write the CSV report to {export_dir}/"+output.PreflightCSVName)
	preflightCmd.Flags().BoolVar(&failOnError, "fail-on-error", false, "Exit non-zero if any entry fails")
}

