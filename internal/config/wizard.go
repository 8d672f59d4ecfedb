package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// Place is a named starting location offered by the wizard.
type Place struct {
	Name string
	Lat  float64
	Lon  float64
}

// Places lists the wizard's starting location presets.
var Places = []Place{
	{Name: "Tokyo Station", Lat: DefaultCenterLat, Lon: DefaultCenterLon},
	{Name: "Kyoto Station", Lat: 34.9858, Lon: 135.7588},
	{Name: "London, Trafalgar Square", Lat: 51.5080, Lon: -0.1281},
	{Name: "Paris, Notre-Dame", Lat: 48.8530, Lon: 2.3499},
	{Name: "New York, Central Park", Lat: 40.7829, Lon: -73.9654},
}

const customPlace = "Custom coordinates"

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to wikiwalk! Let's set up your map.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Wiki language.
	langPrompt := promptui.Select{
		Label: "Select Wikipedia language",
		Items: Languages,
	}
	_, lang, err := langPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("language selection: %w", err)
	}
	cfg.Wiki.Language = lang

	// 2. Starting location.
	items := make([]string, 0, len(Places)+1)
	for _, p := range Places {
		items = append(items, p.Name)
	}
	items = append(items, customPlace)
	placePrompt := promptui.Select{
		Label: "Select starting location",
		Items: items,
	}
	idx, _, err := placePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("location selection: %w", err)
	}
	if idx < len(Places) {
		cfg.Map.CenterLat = Places[idx].Lat
		cfg.Map.CenterLon = Places[idx].Lon
	} else {
		coordPrompt := promptui.Prompt{
			Label:    "Coordinates (lat,lon)",
			Default:  fmt.Sprintf("%g,%g", DefaultCenterLat, DefaultCenterLon),
			Validate: func(s string) error { _, _, err := ParseCoordinates(s); return err },
		}
		raw, err := coordPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("coordinates: %w", err)
		}
		cfg.Map.CenterLat, cfg.Map.CenterLon, _ = ParseCoordinates(raw)
	}

	// 3. Search radius.
	radiusPrompt := promptui.Prompt{
		Label:   "Search radius in meters (10-10000)",
		Default: strconv.Itoa(int(cfg.Search.Radius)),
		Validate: func(s string) error {
			v, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil || v < 10 || v > 10000 {
				return fmt.Errorf("enter a whole number between 10 and 10000")
			}
			return nil
		},
	}
	radiusStr, err := radiusPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("search radius: %w", err)
	}
	radius, _ := strconv.Atoi(strings.TrimSpace(radiusStr))
	cfg.Search.Radius = float64(radius)

	// 4. Auto search.
	autoPrompt := promptui.Prompt{
		Label:     "Search automatically when the map moves",
		IsConfirm: true,
		Default:   "y",
	}
	if _, err := autoPrompt.Run(); err != nil {
		if err != promptui.ErrAbort {
			return nil, fmt.Errorf("auto search: %w", err)
		}
		cfg.Search.AutoSearch = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// ParseCoordinates parses "lat,lon" into decimal degrees.
func ParseCoordinates(s string) (lat, lon float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected \"lat,lon\", got %q", s)
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parsing latitude: %w", err)
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parsing longitude: %w", err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("coordinates %g,%g out of range", lat, lon)
	}
	return lat, lon, nil
}
