package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/assetq/internal/domain/assets"
	"github.com/zjrosen/assetq/internal/tracing"
)

func TestDefaults_AreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 100*time.Millisecond, cfg.Watch.Debounce)
	require.False(t, cfg.Tracing.Enabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "root without dir",
			mutate:  func(c *Config) { c.Roots["plugins"] = RootConfig{URL: "https://example.com"} },
			wantErr: "roots.plugins.dir is required",
		},
		{
			name:    "root without url",
			mutate:  func(c *Config) { c.Roots["plugins"] = RootConfig{Dir: "/srv"} },
			wantErr: "roots.plugins.url is required",
		},
		{
			name:    "bad strategy",
			mutate:  func(c *Config) { c.Defaults.VersionStrategy = "hourly" },
			wantErr: "defaults.version_strategy",
		},
		{
			name:    "negative debounce",
			mutate:  func(c *Config) { c.Watch.Debounce = -time.Second },
			wantErr: "watch.debounce",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.LogLevel = "loud" },
			wantErr: "log_level",
		},
		{
			name:    "sample rate out of range",
			mutate:  func(c *Config) { c.Tracing.SampleRate = 1.5 },
			wantErr: "sample_rate",
		},
		{
			name:    "unknown exporter",
			mutate:  func(c *Config) { c.Tracing.Exporter = "file" },
			wantErr: "tracing.exporter",
		},
		{
			name: "otlp without endpoint",
			mutate: func(c *Config) {
				c.Tracing = tracing.Config{Enabled: true, Exporter: "otlp", SampleRate: 1}
			},
			wantErr: "otlp_endpoint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTranslator(t *testing.T) {
	cfg := Defaults()
	cfg.Roots["plugins"] = RootConfig{Dir: "/srv/site/plugins", URL: "https://example.com/plugins/"}
	cfg.Roots["content"] = RootConfig{Dir: "/srv/site", URL: "https://example.com"}

	tr := cfg.Translator()
	require.Len(t, tr.Roots(), 2)

	url, ok := tr.URLFor("/srv/site/plugins/acme/assets")
	require.True(t, ok)
	require.Equal(t, "https://example.com/plugins/acme/assets", url)
}

func TestTranslator_ExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	cfg := Defaults()
	cfg.Roots["user"] = RootConfig{Dir: "~/site", URL: "https://example.com"}

	url, ok := cfg.Translator().URLFor(filepath.Join(home, "site", "assets"))
	require.True(t, ok)
	require.Equal(t, "https://example.com/assets", url)
}

func TestAssetOptions(t *testing.T) {
	cfg := Defaults()
	opts := cfg.AssetOptions()
	require.Equal(t, assets.StrategyFilemtime, opts.VersionStrategy)
	require.True(t, opts.IsCacheBusting())
	require.Equal(t, assets.DefaultVersion, opts.Version)

	cfg.Defaults = DefaultsConfig{VersionStrategy: "static", CacheBusting: assets.Bool(false), Version: "9", HandlePrefix: "site"}
	opts = cfg.AssetOptions()
	require.Equal(t, assets.StrategyStatic, opts.VersionStrategy)
	require.False(t, opts.IsCacheBusting())
	require.Equal(t, "9", opts.Version)
	require.Equal(t, "site", opts.HandlePrefix)

	cfg.Defaults = DefaultsConfig{}
	opts = cfg.AssetOptions()
	require.Equal(t, assets.StrategyFilemtime, opts.VersionStrategy, "empty section falls back")
	require.True(t, opts.IsCacheBusting())
}

func TestWriteDefaultConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, WriteDefaultConfig(configPath))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	require.Equal(t, DefaultConfigTemplate(), string(data))
}
