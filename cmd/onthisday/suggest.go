package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/what-happened-on/internal/domain"
)

var suggestAll bool

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest a date worth looking up",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		if suggestAll {
			for _, s := range domain.DateSuggestions {
				fmt.Fprintf(out, "Enter %s\n", s)
			}
			return nil
		}
		fmt.Fprintf(out, "Enter %s\n", domain.SuggestionAt(domain.Clock().Now()))
		return nil
	},
}

func init() {
	suggestCmd.Flags().BoolVar(&suggestAll, "all", false, "print every suggestion")
	rootCmd.AddCommand(suggestCmd)
}
