package config

// Config is the top-level wikiwalk configuration, corresponding to .wikiwalk.yml.
type Config struct {
	Wiki    WikiConfig   `yaml:"wiki" koanf:"wiki"`
	Map     MapConfig    `yaml:"map" koanf:"map"`
	Search  SearchConfig `yaml:"search" koanf:"search"`
	Server  ServerConfig `yaml:"server" koanf:"server"`
	DataDir string       `yaml:"data_dir" koanf:"data_dir"`
}

// WikiConfig selects the wiki site. APIURL and RESTURL are derived from
// Language when left empty.
type WikiConfig struct {
	Language  string `yaml:"language" koanf:"language"`
	APIURL    string `yaml:"api_url,omitempty" koanf:"api_url"`
	RESTURL   string `yaml:"rest_url,omitempty" koanf:"rest_url"`
	UserAgent string `yaml:"user_agent,omitempty" koanf:"user_agent"`
}

// MapConfig is the initial map position.
type MapConfig struct {
	CenterLat float64 `yaml:"center_lat" koanf:"center_lat"`
	CenterLon float64 `yaml:"center_lon" koanf:"center_lon"`
	Zoom      int     `yaml:"zoom" koanf:"zoom"`
}

// SearchConfig tunes nearby searches.
type SearchConfig struct {
	Radius         float64 `yaml:"radius" koanf:"radius"`
	Limit          int     `yaml:"limit" koanf:"limit"`
	MaxConcurrency int     `yaml:"max_concurrency" koanf:"max_concurrency"`
	AutoSearch     bool    `yaml:"auto_search" koanf:"auto_search"`
}

// ServerConfig holds settings for `wikiwalk server`.
type ServerConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}
