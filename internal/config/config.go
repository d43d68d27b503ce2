package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	GitHub   GitHubConfig   `yaml:"github"`
	Chroma   ChromaConfig   `yaml:"chroma"`
	Enrich   EnrichConfig   `yaml:"enrich"`
	Store    StoreConfig    `yaml:"store"`
	Server   ServerConfig   `yaml:"server"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// GitHubConfig holds GitHub authentication settings. The default "oauth"
// mode authenticates with an OAuth application's client id and secret; the
// "app" mode authenticates as a GitHub App installation.
type GitHubConfig struct {
	Auth           string `yaml:"auth"`
	Owner          string `yaml:"owner"`
	Repo           string `yaml:"repo"`
	ClientID       string `yaml:"client_id"`
	ClientSecret   string `yaml:"client_secret"`
	AppID          string `yaml:"app_id"`
	InstallationID string `yaml:"installation_id"`
	PrivateKeyPath string `yaml:"private_key_path"`
	PrivateKey     string `yaml:"private_key"`
}

// ChromaConfig holds Chroma Cloud credentials and the collection name used
// for project documents.
type ChromaConfig struct {
	Tenant     string `yaml:"tenant"`
	Database   string `yaml:"database"`
	APIKey     string `yaml:"api_key"`
	Collection string `yaml:"collection"`
}

// EnrichConfig holds settings for the description enrichment provider.
type EnrichConfig struct {
	Type   string `yaml:"type"`
	Model  string `yaml:"model"`
	APIKey string `yaml:"api_key"`
}

// StoreConfig holds storage settings.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultsConfig holds default operational parameters. DistanceThreshold is
// the slider value in [0, 100], mapped to a 0.00-1.00 fraction at query
// time.
type DefaultsConfig struct {
	EnrichTimeoutRaw  string `yaml:"enrich_timeout"`
	SearchResults     int    `yaml:"search_results"`
	DistanceThreshold int    `yaml:"distance_threshold"`
}

// EnrichTimeout returns the parsed enrichment deadline.
func (d DefaultsConfig) EnrichTimeout() (time.Duration, error) {
	if d.EnrichTimeoutRaw == "" {
		return 30 * time.Second, nil
	}
	return time.ParseDuration(d.EnrichTimeoutRaw)
}

// envVarPattern matches ${VAR} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} placeholders with environment variable
// values. Unset variables expand to the empty string; a missing credential
// disables the dependent client rather than failing config load.
func expandEnvVars(data []byte) []byte {
	return envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		varName := envVarPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(varName)))
	})
}

// FromEnv builds a Config from the enumerated environment variables. No
// other variables are read.
func FromEnv() *Config {
	cfg := &Config{
		GitHub: GitHubConfig{
			Owner:        os.Getenv("GITHUB_OWNER"),
			Repo:         os.Getenv("GITHUB_REPO"),
			ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
			ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		},
		Chroma: ChromaConfig{
			Tenant:   os.Getenv("CHROMA_TENANT"),
			Database: os.Getenv("CHROMA_DATABASE"),
			APIKey:   os.Getenv("CHROMA_API_KEY"),
		},
		Enrich: EnrichConfig{
			APIKey: os.Getenv("PERPLEXITY_API_KEY"),
		},
	}
	applyDefaults(cfg)
	return cfg
}

// Load reads and parses a config file from the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse parses config from raw YAML bytes, expanding env vars and
// validating.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(expandEnvVars(data), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.GitHub.Auth == "" {
		cfg.GitHub.Auth = "oauth"
	}
	if cfg.Chroma.Collection == "" {
		cfg.Chroma.Collection = "projects"
	}
	if cfg.Enrich.Type == "" {
		cfg.Enrich.Type = "perplexity"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "~/.repotrack/repotrack.db"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Defaults.EnrichTimeoutRaw == "" {
		cfg.Defaults.EnrichTimeoutRaw = "30s"
	}
	if cfg.Defaults.SearchResults == 0 {
		cfg.Defaults.SearchResults = 10
	}
	if cfg.Defaults.DistanceThreshold == 0 {
		cfg.Defaults.DistanceThreshold = 50
	}
}

func validate(cfg *Config) error {
	validAuth := map[string]bool{"oauth": true, "app": true}
	if !validAuth[cfg.GitHub.Auth] {
		return fmt.Errorf("unsupported github auth mode: %s", cfg.GitHub.Auth)
	}

	validEnrich := map[string]bool{"perplexity": true, "anthropic": true}
	if !validEnrich[cfg.Enrich.Type] {
		return fmt.Errorf("unsupported enrichment provider type: %s", cfg.Enrich.Type)
	}

	if cfg.Defaults.DistanceThreshold < 0 || cfg.Defaults.DistanceThreshold > 100 {
		return fmt.Errorf("distance_threshold must be between 0 and 100, got %d", cfg.Defaults.DistanceThreshold)
	}
	if cfg.Defaults.SearchResults < 1 {
		return fmt.Errorf("search_results must be positive, got %d", cfg.Defaults.SearchResults)
	}
	if _, err := time.ParseDuration(cfg.Defaults.EnrichTimeoutRaw); err != nil {
		return fmt.Errorf("invalid enrich_timeout %q: %w", cfg.Defaults.EnrichTimeoutRaw, err)
	}

	return nil
}

// ExpandPath expands a leading ~/ in a filesystem path.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return home + path[1:]
		}
	}
	return path
}
