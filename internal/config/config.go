package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/ziadkadry99/wikiwalk/internal/geo"
	"github.com/ziadkadry99/wikiwalk/internal/wiki"
)

// EnvPrefix prefixes environment overrides. Nested keys use a double
// underscore: WIKIWALK_SEARCH__LIMIT -> search.limit.
const EnvPrefix = "WIKIWALK_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (WIKIWALK_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var languageCode = regexp.MustCompile(`^[a-z][a-z0-9-]{1,15}$`)

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Wiki.APIURL == "" && !languageCode.MatchString(c.Wiki.Language) {
		return fmt.Errorf("invalid wiki.language %q", c.Wiki.Language)
	}
	for name, raw := range map[string]string{"wiki.api_url": c.Wiki.APIURL, "wiki.rest_url": c.Wiki.RESTURL} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid %s %q: must be an http(s) URL", name, raw)
		}
	}

	if !(geo.Point{Lat: c.Map.CenterLat, Lon: c.Map.CenterLon}).Valid() {
		return fmt.Errorf("map center (%g, %g) is out of range", c.Map.CenterLat, c.Map.CenterLon)
	}
	if c.Map.Zoom < 0 || c.Map.Zoom > 19 {
		return fmt.Errorf("map.zoom must be between 0 and 19")
	}

	if c.Search.Radius < geo.MinRadiusMeters || c.Search.Radius > geo.MaxRadiusMeters {
		return fmt.Errorf("search.radius must be between %d and %d meters", geo.MinRadiusMeters, geo.MaxRadiusMeters)
	}
	if c.Search.Limit < 1 || c.Search.Limit > wiki.MaxLimit {
		return fmt.Errorf("search.limit must be between 1 and %d", wiki.MaxLimit)
	}
	if c.Search.MaxConcurrency < 0 {
		return fmt.Errorf("search.max_concurrency must be non-negative")
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535")
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	return nil
}

// WikiClientConfig builds the wiki client settings.
func (c *Config) WikiClientConfig() wiki.Config {
	return wiki.Config{
		APIURL:         c.Wiki.APIEndpoint(),
		RESTURL:        c.Wiki.RESTEndpoint(),
		UserAgent:      c.Wiki.UserAgent,
		DefaultLimit:   c.Search.Limit,
		MaxConcurrency: c.Search.MaxConcurrency,
	}
}

// Center returns the configured initial map center.
func (c *Config) Center() geo.Point {
	return geo.Point{Lat: c.Map.CenterLat, Lon: c.Map.CenterLon}
}
