package cmd

import (
	"github.com/spf13/cobra"
	"github.com/ziadkadry99/wikiwalk/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize wikiwalk configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to pick the Wikipedia language and starting location, and writes a .wikiwalk.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
