// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Paths
	DataFile string `json:"data_file,omitempty" validate:"omitempty,endswith=.json"` // Path to the profile document
	DryRun   string `json:"dry_run,omitempty"`                                       // Path to a static HTML page (no browser)

	// Browser
	ChromeDebugPort int    `json:"chrome_debug_port,omitempty" validate:"gte=0,lte=65535"` // Remote debugging port of a running Chrome
	StartURL        string `json:"start_url,omitempty" validate:"omitempty,url"`           // Expected form URL for dry runs

	// Behavior
	APIKey            string `json:"api_key,omitempty"`                                  // Gemini API key
	Model             string `json:"model,omitempty"`                                    // Text generation model name
	MonitorIntervalMS int    `json:"monitor_interval_ms,omitempty" validate:"gte=0"`     // Field poll interval
	NavPollMS         int    `json:"nav_poll_ms,omitempty" validate:"gte=0"`             // Navigation poll interval
	Verbose           bool   `json:"verbose,omitempty"`                                  // Print detailed debug information
	DatabaseURL       string `json:"database_url,omitempty" validate:"omitempty,uri"`    // PostgreSQL connection URL for the session ledger
	AutoAccept        bool   `json:"auto_accept,omitempty"`                              // Skip the review prompt and accept every page
}

var validate = validator.New()

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if c.ChromeDebugPort != 0 && c.DryRun != "" {
		return fmt.Errorf("config error: 'chrome_debug_port' and 'dry_run' are mutually exclusive")
	}

	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return fmt.Errorf("config error: field %s failed %q validation", verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}

	// Validate file paths exist (if specified)
	if c.DryRun != "" {
		if _, err := os.Stat(c.DryRun); os.IsNotExist(err) {
			return fmt.Errorf("config error: dry-run page not found: %s", c.DryRun)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.DataFile == "" {
		result.DataFile = defaults.DataFile
	}
	if result.DryRun == "" {
		result.DryRun = defaults.DryRun
	}
	if result.StartURL == "" {
		result.StartURL = defaults.StartURL
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	// Int fields: use default if zero
	if result.ChromeDebugPort == 0 {
		result.ChromeDebugPort = defaults.ChromeDebugPort
	}
	if result.MonitorIntervalMS == 0 {
		result.MonitorIntervalMS = defaults.MonitorIntervalMS
	}
	if result.NavPollMS == 0 {
		result.NavPollMS = defaults.NavPollMS
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
