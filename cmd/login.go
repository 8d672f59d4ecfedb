package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/wikiwalk/internal/audit"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Check wiki credentials",
	Long: `Logs in to the configured wiki and reports the account name. Sessions are
not persisted; commands that need a login ask for credentials each time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		session, err := loginSession(cmd.Context(), newWikiClient(cfg), audit.NewStore(database), user)
		if err != nil {
			return err
		}
		defer session.Logout(cmd.Context())

		fmt.Printf("Logged in to %s as %s.\n", cfg.Wiki.APIEndpoint(), session.Username())
		return nil
	},
}

func init() {
	loginCmd.Flags().String("user", "", "wiki username")
	rootCmd.AddCommand(loginCmd)
}
