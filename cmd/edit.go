package cmd

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/wikiwalk/internal/audit"
	"github.com/ziadkadry99/wikiwalk/internal/editor"
)

var editCmd = &cobra.Command{
	Use:   "edit [title]",
	Short: "Edit the wikitext of an article",
	Long: `Logs in, then replaces the article's wikitext. The new text is read from
--file ("-" for stdin); without --file the current wikitext is opened in $EDITOR.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().String("file", "", `file holding the new wikitext ("-" for stdin)`)
	editCmd.Flags().String("summary", "", "edit summary")
	editCmd.Flags().String("user", "", "wiki username")
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	title := args[0]
	file, _ := cmd.Flags().GetString("file")
	summary, _ := cmd.Flags().GetString("summary")
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
	auditStore := audit.NewStore(database)

	session, err := loginSession(ctx, newWikiClient(cfg), auditStore, user)
	if err != nil {
		return err
	}
	defer session.Logout(ctx)

	ed := editor.New(session, auditStore)

	var content string
	switch file {
	case "":
		current, err := ed.LoadWikitext(ctx, title)
		if err != nil {
			return err
		}
		content, err = editInEditor(title, current)
		if err != nil {
			return err
		}
		if content == current {
			fmt.Println("No changes made; nothing to submit.")
			return nil
		}
	case "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		content = string(data)
	default:
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", file, err)
		}
		content = string(data)
	}

	if summary == "" {
		prompt := promptui.Prompt{Label: "Edit summary"}
		summary, err = prompt.Run()
		if err != nil {
			return fmt.Errorf("edit summary: %w", err)
		}
	}

	rec, err := ed.EditArticle(ctx, editor.EditRequest{Title: title, Content: content, Summary: summary})
	if err != nil {
		return err
	}
	if rec.NoChange {
		fmt.Printf("%s: no change.\n", rec.Title)
		return nil
	}
	fmt.Printf("Saved %s as revision %d.\n", rec.Title, rec.NewRevID)
	return nil
}

// editInEditor opens text in $EDITOR and returns the saved result.
func editInEditor(title, text string) (string, error) {
	editorBin := os.Getenv("EDITOR")
	if editorBin == "" {
		return "", fmt.Errorf("no --file given and $EDITOR is not set")
	}

	f, err := os.CreateTemp("", "wikiwalk-*.wiki")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.WriteString(text); err != nil {
		f.Close()
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	f.Close()

	fmt.Fprintf(os.Stderr, "Editing %s in %s...\n", title, editorBin)
	c := exec.Command(editorBin, f.Name())
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := c.Run(); err != nil {
		return "", fmt.Errorf("running %s: %w", editorBin, err)
	}

	data, err := os.ReadFile(f.Name())
	if err != nil {
		return "", fmt.Errorf("reading temp file: %w", err)
	}
	return string(data), nil
}
