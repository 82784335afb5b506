package cmd

import (
	"github.com/spf13/cobra"

	"github.com/coinlens/coinlens/internal/output"
)

var coinsCmd = &cobra.Command{
	Use:   "coins",
	Short: "List selectable coin types and conditions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}
		rendered, err := output.NewFormatter(format).FormatCatalog(output.CatalogFromEstimate())
		if err != nil {
			return err
		}
		return writeOutput(cmd, rendered)
	},
}

func init() {
	rootCmd.AddCommand(coinsCmd)
	addOutputFlags(coinsCmd)
}
