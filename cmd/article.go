package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/wikiwalk/internal/geo"
	"github.com/ziadkadry99/wikiwalk/internal/panel"
)

var summaryCmd = &cobra.Command{
	Use:   "summary [title]",
	Short: "Show the summary of an article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		client := newWikiClient(cfg)
		p := panel.New(client)
		if err := p.Select(cmd.Context(), panel.Selection{Title: args[0]}); err != nil {
			fmt.Printf("Could not load %q: %v\n", args[0], err)
			fmt.Printf("Try the article page instead: %s\n", p.FallbackURL())
			return err
		}

		d := p.Detail()
		fmt.Printf("%s\n\n%s\n\n", d.Title, d.Extract)
		if d.Position != nil {
			fmt.Printf("Location:  %s\n", formatPoint(*d.Position))
			fmt.Printf("Map it:    %s\n", geo.OSMEditURL(cfg.Map.Zoom, *d.Position))
		}
		if d.ThumbnailURL != "" {
			fmt.Printf("Thumbnail: %s\n", d.ThumbnailURL)
		}
		if d.CanonicalPageURL != "" {
			fmt.Printf("Read more: %s\n", d.CanonicalPageURL)
		}
		return nil
	},
}

var wikitextCmd = &cobra.Command{
	Use:   "wikitext [title]",
	Short: "Print the current wikitext of an article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		text, err := newWikiClient(cfg).FetchWikitext(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if text == "" {
			return fmt.Errorf("article %q does not exist", args[0])
		}
		fmt.Print(text)
		if text[len(text)-1] != '\n' {
			fmt.Println()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(wikitextCmd)
}
