package config

import "fmt"

// Tokyo Station, the map's starting point unless configured otherwise.
const (
	DefaultCenterLat = 35.6812
	DefaultCenterLon = 139.7671
)

// Languages offered by the setup wizard.
var Languages = []string{"ja", "en", "de", "fr", "es", "zh"}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Wiki: WikiConfig{
			Language: "ja",
		},
		Map: MapConfig{
			CenterLat: DefaultCenterLat,
			CenterLon: DefaultCenterLon,
			Zoom:      13,
		},
		Search: SearchConfig{
			Radius:         10000,
			Limit:          50,
			MaxConcurrency: 8,
			AutoSearch:     true,
		},
		Server: ServerConfig{
			Port: 8080,
		},
		DataDir: ".wikiwalk",
	}
}

// APIEndpoint returns the action API URL, derived from the language when
// not set explicitly.
func (w WikiConfig) APIEndpoint() string {
	if w.APIURL != "" {
		return w.APIURL
	}
	return fmt.Sprintf("https://%s.wikipedia.org/w/api.php", w.lang())
}

// RESTEndpoint returns the REST API base URL, derived from the language when
// not set explicitly.
func (w WikiConfig) RESTEndpoint() string {
	if w.RESTURL != "" {
		return w.RESTURL
	}
	return fmt.Sprintf("https://%s.wikipedia.org/api/rest_v1", w.lang())
}

func (w WikiConfig) lang() string {
	if w.Language == "" {
		return "ja"
	}
	return w.Language
}
