package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/wikiwalk/internal/config"
	"github.com/ziadkadry99/wikiwalk/internal/geo"
	"github.com/ziadkadry99/wikiwalk/internal/progress"
	"github.com/ziadkadry99/wikiwalk/internal/wiki"
)

var nearbyCmd = &cobra.Command{
	Use:   "nearby [lat,lon]",
	Short: "List Wikipedia articles near a location",
	Long: `Searches for articles within the given radius of a coordinate, nearest first.
Without an argument the configured map center is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNearby,
}

func init() {
	nearbyCmd.Flags().Float64("radius", 0, "search radius in meters (default search.radius)")
	nearbyCmd.Flags().Int("limit", 0, "maximum number of articles (default search.limit)")
	nearbyCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(nearbyCmd)
}

func runNearby(cmd *cobra.Command, args []string) error {
	radius, _ := cmd.Flags().GetFloat64("radius")
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	center := cfg.Center()
	if len(args) == 1 {
		lat, lon, err := config.ParseCoordinates(args[0])
		if err != nil {
			return err
		}
		center = geo.Point{Lat: lat, Lon: lon}
	}
	if radius <= 0 {
		radius = cfg.Search.Radius
	}
	if limit <= 0 {
		limit = cfg.Search.Limit
	}

	reporter := progress.NewReporter()
	results, err := newWikiClient(cfg).SearchNearbyWithProgress(cmd.Context(), center.Lat, center.Lon, radius, limit, progress.Hydration(reporter))
	reporter.Finish()
	if err != nil {
		return err
	}

	if jsonOutput {
		if results == nil {
			results = []wiki.ArticleSummary{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Printf("No articles within %dm of %s.\n", geo.ClampRadius(radius), formatPoint(center))
		return nil
	}

	fmt.Printf("Found %d articles within %dm of %s:\n\n", len(results), geo.ClampRadius(radius), formatPoint(center))
	for i, a := range results {
		fmt.Printf("  %d. %s (%.0fm)\n", i+1, a.Title, a.Distance)
		if a.Extract != "" {
			fmt.Printf("     %s\n", truncate(a.Extract, 120))
		}
		if a.CanonicalPageURL != "" {
			fmt.Printf("     %s\n", a.CanonicalPageURL)
		}
		fmt.Println()
	}
	return nil
}
