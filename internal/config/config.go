// Package config loads the .tcpub.yaml configuration and merges it with
// CLI flags and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// CliFlags holds the values of command-line flags, with Set markers so an
// explicit flag wins over the config file.
type CliFlags struct {
	Format  string
	Theme   string
	Summary bool
	NoColor bool
	Debug   bool

	SummarySet bool
	NoColorSet bool
	DebugSet   bool
}

// Config represents the application's configuration from .tcpub.yaml.
// CI mode implies NoColor and suppresses the stderr summary.
type Config struct {
	Format        string `yaml:"format"` // auto, events, gotest
	Theme         string `yaml:"theme"`
	Summary       bool   `yaml:"summary"`
	NoColor       bool   `yaml:"no_color"`
	CI            bool   `yaml:"ci"`
	Debug         bool   `yaml:"debug"`
	MaxBufferSize int    `yaml:"max_buffer_size"` // initial scanner buffer, bytes
	MaxLineLength int    `yaml:"max_line_length"` // largest accepted input line, bytes
}

// Constants for default values.
const (
	DefaultFormat        = "auto"
	DefaultTheme         = "default"
	DefaultMaxBufferSize = 64 * 1024   // 64KB
	DefaultMaxLineLength = 1024 * 1024 // 1MB
)

// Load reads .tcpub.yaml from the working directory or the user config
// directory. A missing or unreadable file falls back to defaults; config
// problems never stop a run.
func Load() *Config {
	cfg := &Config{
		Format:        DefaultFormat,
		Theme:         DefaultTheme,
		Summary:       true,
		MaxBufferSize: DefaultMaxBufferSize,
		MaxLineLength: DefaultMaxLineLength,
	}

	path := configPath()
	if path == "" {
		return cfg
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: error reading config file %s: %v. Using defaults.\n", path, err)
		}
		return cfg
	}

	var fileCfg Config
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: error unmarshalling config file %s: %v. Using defaults.\n", path, err)
		return cfg
	}

	if fileCfg.Format != "" {
		cfg.Format = fileCfg.Format
	}
	if fileCfg.Theme != "" {
		cfg.Theme = fileCfg.Theme
	}
	cfg.Summary = fileCfg.Summary
	cfg.NoColor = fileCfg.NoColor
	cfg.CI = fileCfg.CI
	cfg.Debug = fileCfg.Debug
	if fileCfg.MaxBufferSize > 0 {
		cfg.MaxBufferSize = fileCfg.MaxBufferSize
	}
	if fileCfg.MaxLineLength > 0 {
		cfg.MaxLineLength = fileCfg.MaxLineLength
	}
	return cfg
}

// configPath tries to find the .tcpub.yaml configuration file: local
// directory first, then the XDG user config dir.
func configPath() string {
	localPath := ".tcpub.yaml"
	if _, err := os.Stat(localPath); err == nil {
		return localPath
	}

	configHome, err := os.UserConfigDir()
	if err != nil || configHome == "" || configHome == "/" {
		return ""
	}
	xdgPath := filepath.Join(configHome, "tcpub", ".tcpub.yaml")
	if _, err := os.Stat(xdgPath); err == nil {
		return xdgPath
	}
	return ""
}

// Merge applies environment variables and explicitly-set CLI flags on top
// of the loaded config. Precedence: flags > env > file > defaults.
func Merge(cfg *Config, flags CliFlags) *Config {
	out := *cfg

	if v := os.Getenv("TCPUB_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			out.Debug = b
		} else {
			out.Debug = true
		}
	}
	// NO_COLOR is presence-based by convention.
	if os.Getenv("NO_COLOR") != "" {
		out.NoColor = true
	}
	envCI := os.Getenv("TCPUB_CI")
	if envCI == "" {
		envCI = os.Getenv("CI")
	}
	if envCI != "" {
		if b, err := strconv.ParseBool(envCI); err == nil {
			out.CI = b
		}
	}

	if flags.Format != "" && flags.Format != DefaultFormat {
		out.Format = flags.Format
	}
	if flags.Theme != "" {
		out.Theme = flags.Theme
	}
	if flags.SummarySet {
		out.Summary = flags.Summary
	}
	if flags.NoColorSet {
		out.NoColor = flags.NoColor
	}
	if flags.DebugSet {
		out.Debug = flags.Debug
	}
	if out.CI {
		out.NoColor = true
	}
	return &out
}
