package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "bookmap",
	Short: "Map-based book catalog with a built-in page reader",
	Long: `Bookmap serves a book catalog pinned to world locations. Clients
browse it on a globe, filter and search the visible books, add new
entries with an optional PDF document, and read stored documents
page by page.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "bookmap.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
