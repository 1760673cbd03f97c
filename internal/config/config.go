// Package config loads the plugin's own settings file, .cf-hooks.yaml.
// All settings are optional: a missing file means defaults, and a broken
// file is treated the same so a typo in settings never blocks a deploy.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const FileName = ".cf-hooks.yaml"

type CostSettings struct {
	RequestsPerDay int `yaml:"requests_per_day,omitempty"`
}

type ReportSettings struct {
	Format string `yaml:"format,omitempty"`
}

type DebugSettings struct {
	Log string `yaml:"log,omitempty"`
}

type Config struct {
	Version int              `yaml:"version"`
	Hooks   map[string]*bool `yaml:"hooks,omitempty"`
	Cost    CostSettings     `yaml:"cost,omitempty"`
	Report  ReportSettings   `yaml:"report,omitempty"`
	Debug   DebugSettings    `yaml:"debug,omitempty"`
}

// HookEnabled reports whether the named hook should run. Hooks are on
// unless explicitly switched off.
func (c *Config) HookEnabled(name string) bool {
	if c == nil || c.Hooks == nil {
		return true
	}
	v, ok := c.Hooks[name]
	if !ok || v == nil {
		return true
	}
	return *v
}

// RequestsPerDay is the traffic assumption behind cost projections.
func (c *Config) RequestsPerDay() int {
	if c == nil || c.Cost.RequestsPerDay <= 0 {
		return 100000
	}
	return c.Cost.RequestsPerDay
}

// Format is the report format, "text" or "json". The CF_PREDEPLOY_FORMAT
// environment variable wins over the file.
func (c *Config) Format() string {
	if v := os.Getenv("CF_PREDEPLOY_FORMAT"); v == "text" || v == "json" {
		return v
	}
	if c != nil && (c.Report.Format == "text" || c.Report.Format == "json") {
		return c.Report.Format
	}
	return "text"
}

// DebugLog is the path the debug logger writes to, empty when logging is
// off. CF_HOOKS_DEBUG wins over the file.
func (c *Config) DebugLog() string {
	if v := os.Getenv("CF_HOOKS_DEBUG"); v != "" {
		return v
	}
	if c == nil {
		return ""
	}
	return c.Debug.Log
}

// Find searches dir and its parents for the settings file. The
// CF_HOOKS_CONFIG environment variable overrides the search.
func Find(dir string) (string, bool) {
	if v := os.Getenv("CF_HOOKS_CONFIG"); v != "" {
		if _, err := os.Stat(v); err == nil {
			return v, true
		}
		return "", false
	}
	for {
		p := filepath.Join(dir, FileName)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Load reads and parses the settings file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Resolve locates and loads settings for a project directory. It never
// fails: missing or unparseable settings resolve to defaults.
func Resolve(dir string) *Config {
	path, ok := Find(dir)
	if !ok {
		return &Config{}
	}
	cfg, err := Load(path)
	if err != nil {
		return &Config{}
	}
	return cfg
}
