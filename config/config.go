package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPageSize    = 500
	maxPageSize        = 500
	defaultTimeout     = 60 * time.Second
	defaultMaxAttempts = 3
	defaultMaxBackoff  = 10 * time.Second
	defaultOutputDir   = "Output"
	defaultDataDir     = "Data"
)

// LoadConfig loads the configuration file (if any), applies environment
// variable overrides and defaults, then validates the result
// A missing file is not an error; everything may come from the environment
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			slog.Debug("Config file not found, using environment only", "path", path)
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
			slog.Debug("Parsed config file", "path", path, "environments_count", len(cfg.Environments))
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides overwrites file values with NEXPOSE_* environment variables
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("NEXPOSE_ENVIRONMENT"); v != "" {
		cfg.DefaultEnvironment = v
	}
	if v := os.Getenv("NEXPOSE_URL"); v != "" {
		cfg.URL = v
	}
	if v := os.Getenv("NEXPOSE_USERNAME"); v != "" {
		cfg.Username = v
	}
	if v := os.Getenv("NEXPOSE_INVENTORY_FILE"); v != "" {
		cfg.Paths.InventoryFile = v
	}
	if v := os.Getenv("NEXPOSE_INSECURE_SKIP_VERIFY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("NEXPOSE_INSECURE_SKIP_VERIFY: %w", err)
		}
		cfg.API.InsecureSkipVerify = b
	}

	// JSON object of name -> URL, e.g. {"prod":"https://nexpose:3780/api/3"}
	if v := os.Getenv("NEXPOSE_ENVIRONMENTS"); v != "" {
		var envs map[string]string
		if err := json.Unmarshal([]byte(v), &envs); err != nil {
			return fmt.Errorf("NEXPOSE_ENVIRONMENTS: %w", err)
		}
		names := make([]string, 0, len(envs))
		for name := range envs {
			names = append(names, name)
		}
		sort.Strings(names)
		cfg.Environments = cfg.Environments[:0]
		for _, name := range names {
			cfg.Environments = append(cfg.Environments, EnvironmentConfig{Name: name, URL: envs[name]})
		}
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.API.PageSize == 0 {
		cfg.API.PageSize = defaultPageSize
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = defaultTimeout
	}
	if cfg.API.MaxAttempts == 0 {
		cfg.API.MaxAttempts = defaultMaxAttempts
	}
	if cfg.API.MaxBackoff == 0 {
		cfg.API.MaxBackoff = defaultMaxBackoff
	}
	if cfg.Paths.OutputDir == "" {
		cfg.Paths.OutputDir = defaultOutputDir
	}
	if cfg.Paths.DataDir == "" {
		cfg.Paths.DataDir = defaultDataDir
	}
	if cfg.DefaultEnvironment == "" && len(cfg.Environments) == 1 {
		cfg.DefaultEnvironment = cfg.Environments[0].Name
	}
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if len(cfg.Environments) == 0 && cfg.URL == "" {
		return fmt.Errorf("at least one environment or url must be defined")
	}

	names := make(map[string]bool)
	for i, env := range cfg.Environments {
		if env.Name == "" {
			return fmt.Errorf("environment[%d]: name is required", i)
		}
		if env.URL == "" {
			return fmt.Errorf("environment[%d]: url is required", i)
		}
		if err := validateURL(env.URL); err != nil {
			return fmt.Errorf("environment[%d]: %w", i, err)
		}
		if names[env.Name] {
			return fmt.Errorf("environment[%d]: duplicate environment name: %s", i, env.Name)
		}
		names[env.Name] = true
	}

	if cfg.URL != "" {
		if err := validateURL(cfg.URL); err != nil {
			return fmt.Errorf("url: %w", err)
		}
	}

	if cfg.DefaultEnvironment != "" && !names[cfg.DefaultEnvironment] && cfg.URL == "" {
		return fmt.Errorf("default_environment '%s' not found in environments", cfg.DefaultEnvironment)
	}

	if cfg.API.PageSize < 1 || cfg.API.PageSize > maxPageSize {
		return fmt.Errorf("api.page_size must be between 1 and %d", maxPageSize)
	}
	if cfg.API.MaxAttempts < 1 {
		return fmt.Errorf("api.max_attempts must be at least 1")
	}
	if cfg.API.Timeout < 0 || cfg.API.MaxBackoff < 0 {
		return fmt.Errorf("api durations must not be negative")
	}

	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url '%s': %w", raw, err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("url '%s' must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("url '%s' has no host", raw)
	}
	return nil
}

// EnvironmentNames lists the configured environment names in file order
func (c *Config) EnvironmentNames() []string {
	names := make([]string, 0, len(c.Environments))
	for _, env := range c.Environments {
		names = append(names, env.Name)
	}
	return names
}
