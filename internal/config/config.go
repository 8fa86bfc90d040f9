// Package config provides configuration loading and validation for the CLI
// and the HTTP server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/cover-letter/internal/types"
)

// Defaults applied by MergeWithDefaults when neither the file nor a flag
// sets a value.
const (
	DefaultOutDir = "."
	DefaultFormat = "both"
	DefaultPort   = 8080
)

// Config represents the CLI configuration that can be loaded from a JSON or
// YAML file. All fields are optional; CLI flags take precedence.
type Config struct {
	// Inputs
	Job    string `json:"job,omitempty" yaml:"job,omitempty"`         // Path to job posting text file
	JobURL string `json:"job_url,omitempty" yaml:"job_url,omitempty"` // URL to fetch job posting from
	Resume string `json:"resume,omitempty" yaml:"resume,omitempty"`   // Path to resume PDF or text file

	// Output
	Template string `json:"template,omitempty" yaml:"template,omitempty"` // default, concise or enthusiastic
	OutDir   string `json:"out_dir,omitempty" yaml:"out_dir,omitempty"`
	Format   string `json:"format,omitempty" yaml:"format,omitempty"` // pdf, docx or both

	// Behavior
	APIKey      string `json:"api_key,omitempty" yaml:"api_key,omitempty"` // Gemini API key
	UseBrowser  bool   `json:"use_browser,omitempty" yaml:"use_browser,omitempty"`
	Verbose     bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty"`
	Port        int    `json:"port,omitempty" yaml:"port,omitempty"`
}

// LoadConfig loads configuration from a file. Files ending in .yaml or .yml
// are parsed as YAML, everything else as JSON.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

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
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values. Required inputs
// are checked by the commands after flags are merged.
func (c *Config) Validate() error {
	if c.Job != "" && c.JobURL != "" {
		return fmt.Errorf("config error: 'job' and 'job_url' are mutually exclusive")
	}

	switch c.Template {
	case "", types.TemplateDefault, types.TemplateConcise, types.TemplateEnthusiastic:
	default:
		return fmt.Errorf("config error: unknown template %q", c.Template)
	}

	switch strings.ToLower(c.Format) {
	case "", "both", "pdf", "docx":
	default:
		return fmt.Errorf("config error: 'format' must be pdf, docx or both, got %q", c.Format)
	}

	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' out of range: %d", c.Port)
	}

	if c.Job != "" {
		if _, err := os.Stat(c.Job); os.IsNotExist(err) {
			return fmt.Errorf("config error: job file not found: %s", c.Job)
		}
	}
	if c.Resume != "" {
		if _, err := os.Stat(c.Resume); os.IsNotExist(err) {
			return fmt.Errorf("config error: resume file not found: %s", c.Resume)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults, then from the package defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Job == "" && result.JobURL == "" {
		result.Job = defaults.Job
		result.JobURL = defaults.JobURL
	}
	if result.Resume == "" {
		result.Resume = defaults.Resume
	}
	if result.Template == "" {
		result.Template = defaults.Template
	}
	if result.OutDir == "" {
		result.OutDir = defaults.OutDir
	}
	if result.Format == "" {
		result.Format = defaults.Format
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	// Bools cannot distinguish unset from false; the flag wins unless the
	// file turns them on.
	result.UseBrowser = result.UseBrowser || defaults.UseBrowser
	result.Verbose = result.Verbose || defaults.Verbose

	if result.Template == "" {
		result.Template = types.TemplateDefault
	}
	if result.OutDir == "" {
		result.OutDir = DefaultOutDir
	}
	if result.Format == "" {
		result.Format = DefaultFormat
	}
	if result.Port == 0 {
		result.Port = DefaultPort
	}

	return result
}
