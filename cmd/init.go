package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bookmapapp/bookmap/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize bookmap configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure bookmap and generates a bookmap.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
