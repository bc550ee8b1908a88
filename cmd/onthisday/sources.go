package main

import (
	"github.com/spf13/cobra"

	"github.com/couchcryptid/what-happened-on/internal/domain"
	"github.com/couchcryptid/what-happened-on/internal/render"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the data sources",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		colors, err := useColors()
		if err != nil {
			return err
		}
		return render.NewPrinter(cmd.OutOrStdout(), colors).Sources(domain.Sources)
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
