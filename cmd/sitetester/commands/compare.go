package commands

import (
	"sitetester-cli/lib/audit"

	"github.com/spf13/cobra"
)

var compareIgnoreCase *bool
var compareIgnoreWhitespace *bool
var compareIgnoreLinebreaks *bool
var compareSortLines *bool

func init() {
	compareIgnoreCase = compareCmd.Flags().Bool("ignore-case", false, "Compares case-insensitively.")
	compareIgnoreWhitespace = compareCmd.Flags().Bool("ignore-whitespace", false, "Collapses runs of whitespace before comparing.")
	compareIgnoreLinebreaks = compareCmd.Flags().Bool("ignore-linebreaks", false, "Joins wrapped lines before comparing.")
	compareSortLines = compareCmd.Flags().Bool("sort-lines", false, "Sorts lines before comparing.")
	rootCmd.AddCommand(compareCmd)
}

var compareCmd = &cobra.Command{
	Use:   "compare <url_a> <url_b>",
	Short: "Compares the text content of two pages server-side.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		client := newClient(cfg)
		store, closeStore := openStore(cfg)
		defer closeStore()

		submitCompare(cmd.Context(), client, store, audit.CompareRequest{
			URLA:             args[0],
			URLB:             args[1],
			IgnoreCase:       *compareIgnoreCase,
			IgnoreWhitespace: *compareIgnoreWhitespace,
			IgnoreLinebreaks: *compareIgnoreLinebreaks,
			SortLines:        *compareSortLines,
		})
	},
}
