package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/daryltucker/llm-matrix/internal/provider"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the built-in provider catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tKIND\tPROTOCOL\tBASE URL\tKEY\tNOTES")
		for _, p := range provider.Default().All() {
			base := p.BaseURL
			if base == "" {
				base = "(set base_url)"
			}
			key := "required"
			if !p.RequiresKey() {
				key = "optional"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", p.Name, p.Kind, p.Protocol, base, key, p.Notes)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
