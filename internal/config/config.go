// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Defaults applied when neither the config file nor flags set a value.
const (
	DefaultMaxRetries      = 3
	DefaultCollisionPolicy = "overwrite"
)

// DefaultExtensions is the default download allow-list.
var DefaultExtensions = []string{".pdf", ".zip"}

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	URL             string            `json:"url,omitempty" validate:"omitempty,url"`                                      // Page URL to scan
	Out             string            `json:"out,omitempty"`                                                               // Output directory (blank = CWD)
	Extensions      []string          `json:"extensions,omitempty"`                                                        // Extension allow-list, e.g. [".pdf", ".zip"]
	MaxRetries      int               `json:"max_retries,omitempty" validate:"omitempty,gte=1"`                            // Attempts per file
	CollisionPolicy string            `json:"collision_policy,omitempty" validate:"omitempty,oneof=overwrite rename skip"` // overwrite|rename|skip
	UseBrowser      bool              `json:"use_browser,omitempty"`                                                       // Render via headless browser first
	Localize        bool              `json:"localize,omitempty"`                                                          // Save an offline page copy
	Transcript      bool              `json:"transcript,omitempty"`                                                        // Write log_<timestamp>.txt
	UserAgent       string            `json:"user_agent,omitempty"`                                                        // Custom User-Agent
	Headers         map[string]string `json:"headers,omitempty"`                                                           // Extra request headers
	Verbose         bool              `json:"verbose,omitempty"`                                                           // Print detailed debug information
}

// Load loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
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
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	for _, ext := range c.Extensions {
		if ext == "" {
			return fmt.Errorf("config error: empty extension in allow-list")
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
// Boolean fields treat false as unset, so a flag can turn a feature on over
// a config file but never off; a config file that enables use_browser,
// localize, transcript, or verbose wins over an absent flag.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.URL == "" {
		result.URL = defaults.URL
	}
	if result.Out == "" {
		result.Out = defaults.Out
	}
	if len(result.Extensions) == 0 {
		result.Extensions = defaults.Extensions
	}
	if result.MaxRetries == 0 {
		result.MaxRetries = defaults.MaxRetries
	}
	if result.CollisionPolicy == "" {
		result.CollisionPolicy = defaults.CollisionPolicy
	}
	if result.UserAgent == "" {
		result.UserAgent = defaults.UserAgent
	}
	if len(result.Headers) == 0 {
		result.Headers = defaults.Headers
	}
	if !result.UseBrowser {
		result.UseBrowser = defaults.UseBrowser
	}
	if !result.Localize {
		result.Localize = defaults.Localize
	}
	if !result.Transcript {
		result.Transcript = defaults.Transcript
	}
	if !result.Verbose {
		result.Verbose = defaults.Verbose
	}

	return result
}

// winEnvRef matches Windows-style %VAR% environment references.
var winEnvRef = regexp.MustCompile(`%([A-Za-z_][A-Za-z0-9_]*)%`)

// ExpandOutputDir resolves an output directory specification: environment
// references (%VAR% or $VAR) are expanded first, then a blank value means
// the current working directory, a relative value is rooted under it, and
// an absolute value is used as-is.
func ExpandOutputDir(raw string) (string, error) {
	expanded := winEnvRef.ReplaceAllStringFunc(raw, func(m string) string {
		return os.Getenv(m[1 : len(m)-1])
	})
	expanded = os.ExpandEnv(expanded)

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	if expanded == "" {
		return cwd, nil
	}
	if !filepath.IsAbs(expanded) {
		return filepath.Join(cwd, expanded), nil
	}
	return expanded, nil
}
