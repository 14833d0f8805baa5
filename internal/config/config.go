// Package config provides configuration types and defaults for assetq.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/zjrosen/assetq/internal/domain/assets"
	"github.com/zjrosen/assetq/internal/log"
	"github.com/zjrosen/assetq/internal/tracing"
	"github.com/zjrosen/assetq/internal/urlmap"
)

// DefaultConfigPath is the project-local config file.
const DefaultConfigPath = ".assetq/config.yaml"

// Config holds all configuration options for assetq.
type Config struct {
	Roots    map[string]RootConfig `mapstructure:"roots"`
	Defaults DefaultsConfig        `mapstructure:"defaults"`
	Manifest string                `mapstructure:"manifest"` // path to an assets manifest, optional
	Watch    WatchConfig           `mapstructure:"watch"`
	Tracing  tracing.Config        `mapstructure:"tracing"`
	Debug    bool                  `mapstructure:"debug"`
	LogFile  string                `mapstructure:"log_file"`
	LogLevel string                `mapstructure:"log_level"` // debug, info, warn, error
}

// RootConfig maps a filesystem directory to its public base URL.
type RootConfig struct {
	Dir string `mapstructure:"dir"`
	URL string `mapstructure:"url"`
}

// DefaultsConfig holds the options applied to registrations that leave them unset.
type DefaultsConfig struct {
	// VersionStrategy is "filemtime" (default) or "static".
	VersionStrategy string `mapstructure:"version_strategy"`

	// CacheBusting appends a version to asset URLs (defaults to true if nil).
	CacheBusting *bool `mapstructure:"cache_busting"`

	// Version is the static version string.
	// Default: "1.0.0"
	Version string `mapstructure:"version"`

	HandlePrefix string `mapstructure:"handle_prefix"`
}

// WatchConfig holds asset watcher settings.
type WatchConfig struct {
	// Debounce coalesces bursts of file events.
	// Default: 100ms
	Debounce time.Duration `mapstructure:"debounce"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Roots: map[string]RootConfig{},
		Defaults: DefaultsConfig{
			VersionStrategy: "filemtime",
			CacheBusting:    assets.Bool(true),
			Version:         assets.DefaultVersion,
		},
		Watch: WatchConfig{
			Debounce: 100 * time.Millisecond,
		},
		Tracing:  tracing.DefaultConfig(),
		LogFile:  DefaultLogFilePath(),
		LogLevel: "debug",
	}
}

// DefaultLogFilePath returns ~/.config/assetq/debug.log, or "debug.log" if
// the home dir is unavailable.
func DefaultLogFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "debug.log"
	}
	return filepath.Join(home, ".config", "assetq", "debug.log")
}

// Validate checks the configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func (c Config) Validate() error {
	for _, name := range c.rootNames() {
		root := c.Roots[name]
		if root.Dir == "" {
			return fmt.Errorf("roots.%s.dir is required", name)
		}
		if root.URL == "" {
			return fmt.Errorf("roots.%s.url is required", name)
		}
	}
	if _, err := assets.ParseVersionStrategy(c.Defaults.VersionStrategy); err != nil {
		return fmt.Errorf("defaults.version_strategy: %w", err)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %v", c.Watch.Debounce)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be \"debug\", \"info\", \"warn\", or \"error\", got %q", c.LogLevel)
	}
	return ValidateTracing(c.Tracing)
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(t tracing.Config) error {
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}

	switch t.Exporter {
	case "", "none", "stdout", "otlp":
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"stdout\", or \"otlp\", got %q", t.Exporter)
	}

	if t.Enabled && t.Exporter == "otlp" && t.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
	}
	return nil
}

// Translator builds the path/URL translator from the configured roots.
func (c Config) Translator() *urlmap.Translator {
	roots := make([]urlmap.Root, 0, len(c.Roots))
	for _, name := range c.rootNames() {
		r := c.Roots[name]
		roots = append(roots, urlmap.Root{Name: name, Dir: expandHome(r.Dir), URL: r.URL})
	}
	return urlmap.New(roots...)
}

// AssetOptions converts the defaults section into registration options.
// Invalid strategies fall back to unset; Validate reports them.
func (c Config) AssetOptions() assets.Options {
	strategy, _ := assets.ParseVersionStrategy(c.Defaults.VersionStrategy)
	opts := assets.Options{
		VersionStrategy: strategy,
		CacheBusting:    c.Defaults.CacheBusting,
		HandlePrefix:    c.Defaults.HandlePrefix,
		Version:         c.Defaults.Version,
	}
	return opts.WithDefaults(assets.DefaultOptions())
}

func (c Config) rootNames() []string {
	names := make([]string, 0, len(c.Roots))
	for name := range c.Roots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func expandHome(dir string) string {
	if len(dir) < 2 || dir[:2] != "~/" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return dir
	}
	return filepath.Join(home, dir[2:])
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# assetq configuration

# Directories served under a public URL. Registrations without an explicit
# url derive it from the longest matching root.
roots: {}
#   plugins:
#     dir: /var/www/site/plugins
#     url: https://example.com/plugins
#   content:
#     dir: /var/www/site/content
#     url: https://example.com/content

# Applied to registrations that leave options unset
defaults:
  version_strategy: filemtime  # "filemtime" or "static"
  cache_busting: true          # append ?ver= to asset URLs
  version: 1.0.0               # static version
  # handle_prefix: site

# Namespaces to register at startup (optional)
# manifest: .assetq/assets.yaml

watch:
  debounce: 100ms

# Tracing
# tracing:
#   enabled: true
#   exporter: otlp              # "none", "stdout", or "otlp"
#   otlp_endpoint: localhost:4317
#   sample_rate: 1.0
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
