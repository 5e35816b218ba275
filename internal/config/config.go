package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Environment variables understood by the server. Env values override the
// optional YAML config file.
const (
	APITokenEnvVar           = "PRODUCTBOARD_API_TOKEN"
	APIBaseURLEnvVar         = "PRODUCTBOARD_API_BASE_URL"
	CacheTTLSecondsEnvVar    = "PRODUCTBOARD_CACHE_TTL_SECONDS"
	CacheMaxEntriesEnvVar    = "PRODUCTBOARD_CACHE_MAX_ENTRIES"
	RateLimitPerMinuteEnvVar = "PRODUCTBOARD_RATE_LIMIT_PER_MINUTE"
	ConfigPathEnvVar         = "PRODUCTBOARD_CONFIG"
)

// Defaults applied when neither env nor file provide a value.
const (
	DefaultBaseURL            = "https://api.productboard.com"
	DefaultCacheTTLSeconds    = 300
	DefaultCacheMaxEntries    = 500
	DefaultRateLimitPerMinute = 100
)

// Config is the Productboard connection configuration.
type Config struct {
	APIToken           string `yaml:"api_token"`
	APIBaseURL         string `yaml:"api_base_url"`
	CacheTTLSeconds    int    `yaml:"cache_ttl_seconds"`
	CacheMaxEntries    int    `yaml:"cache_max_entries"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
}

// Load builds the configuration: defaults, then the optional YAML file,
// then environment variables. The API token is the only required value.
func Load(logger *logrus.Logger) (*Config, error) {
	cfg := &Config{
		APIBaseURL:         DefaultBaseURL,
		CacheTTLSeconds:    DefaultCacheTTLSeconds,
		CacheMaxEntries:    DefaultCacheMaxEntries,
		RateLimitPerMinute: DefaultRateLimitPerMinute,
	}

	if path := configFilePath(); path != "" {
		if err := cfg.loadFile(path, logger); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if cfg.APIToken == "" {
		return nil, fmt.Errorf("missing Productboard API token: set %s", APITokenEnvVar)
	}
	if cfg.CacheTTLSeconds <= 0 {
		cfg.CacheTTLSeconds = DefaultCacheTTLSeconds
	}
	if cfg.CacheMaxEntries <= 0 {
		cfg.CacheMaxEntries = DefaultCacheMaxEntries
	}
	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = DefaultRateLimitPerMinute
	}

	return cfg, nil
}

// configFilePath resolves the optional YAML config file. An explicit path
// from the environment wins; otherwise the conventional location is used
// if it exists.
func configFilePath() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return expandHome(path)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	defaultPath := filepath.Join(homeDir, ".mcp-productboard", "config.yaml")
	if _, err := os.Stat(defaultPath); err != nil {
		return ""
	}
	return defaultPath
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, path[1:])
}

func (c *Config) loadFile(path string, logger *logrus.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if logger != nil {
				logger.WithField("config_path", path).Info("Config file not found, using environment only")
			}
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays environment variables onto the config. Invalid numeric
// values are ignored rather than fatal.
func (c *Config) applyEnv() {
	if token := os.Getenv(APITokenEnvVar); token != "" {
		c.APIToken = token
	}
	if baseURL := os.Getenv(APIBaseURLEnvVar); baseURL != "" {
		c.APIBaseURL = baseURL
	}
	if v := envInt(CacheTTLSecondsEnvVar); v > 0 {
		c.CacheTTLSeconds = v
	}
	if v := envInt(CacheMaxEntriesEnvVar); v > 0 {
		c.CacheMaxEntries = v
	}
	if v := envInt(RateLimitPerMinuteEnvVar); v > 0 {
		c.RateLimitPerMinute = v
	}
}

func envInt(name string) int {
	raw := os.Getenv(name)
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return value
}
