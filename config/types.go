package config

import "time"

// Config represents the entire nexpose-kit configuration file
type Config struct {
	Version string `yaml:"version"`

	// Known Nexpose API hosts, selectable by name
	Environments []EnvironmentConfig `yaml:"environments"`

	// Environment used when none is chosen interactively
	DefaultEnvironment string `yaml:"default_environment"`

	// Explicit API base URL; bypasses the environment list
	URL string `yaml:"url"`

	// Account name; the password is never read from this file
	Username string `yaml:"username"`

	API   APIConfig   `yaml:"api"`
	Paths PathsConfig `yaml:"paths"`
}

// EnvironmentConfig represents a named API host
type EnvironmentConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// APIConfig represents client tuning
type APIConfig struct {
	PageSize           int           `yaml:"page_size"`
	Timeout            time.Duration `yaml:"timeout"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
	MaxAttempts        int           `yaml:"max_attempts"`
	MaxBackoff         time.Duration `yaml:"max_backoff"`
}

// PathsConfig represents input and output locations
type PathsConfig struct {
	OutputDir     string `yaml:"output_dir"`
	DataDir       string `yaml:"data_dir"`
	InventoryFile string `yaml:"inventory_file"`
	MetricsFile   string `yaml:"metrics_file"`
	// Optional text/template overriding the built-in tag log layout
	TagLogTemplate string `yaml:"tag_log_template"`
}
