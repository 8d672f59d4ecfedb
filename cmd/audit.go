package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/wikiwalk/internal/audit"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recent logins and edits",
	RunE:  runAudit,
}

var auditPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete audit entries older than --older-than",
	RunE: func(cmd *cobra.Command, args []string) error {
		age, _ := cmd.Flags().GetDuration("older-than")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		n, err := audit.NewStore(database).DeleteBefore(cmd.Context(), time.Now().Add(-age))
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d entries.\n", n)
		return nil
	},
}

func init() {
	auditCmd.Flags().String("action", "", "filter by action: login, logout, edit_submitted, edit_failed")
	auditCmd.Flags().String("title", "", "filter by article title")
	auditCmd.Flags().Int("limit", 20, "maximum number of entries")
	auditCmd.Flags().Bool("json", false, "output entries as JSON")
	auditPruneCmd.Flags().Duration("older-than", 90*24*time.Hour, "age of entries to delete")
	auditCmd.AddCommand(auditPruneCmd)
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	action, _ := cmd.Flags().GetString("action")
	title, _ := cmd.Flags().GetString("title")
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	entries, err := audit.NewStore(database).Query(cmd.Context(), audit.QueryFilter{
		Action: audit.Action(action),
		Title:  title,
		Limit:  limit,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		if entries == nil {
			entries = []audit.Entry{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No audit entries.")
		return nil
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s  %-14s %-16s", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Action, e.Actor)
		if e.Title != "" {
			line += " " + e.Title
		}
		if e.RevisionID != 0 {
			line += fmt.Sprintf(" (rev %d)", e.RevisionID)
		}
		if e.Detail != "" {
			line += " - " + truncate(e.Detail, 60)
		}
		fmt.Println(line)
	}
	return nil
}
