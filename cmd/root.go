package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/assetq/internal/config"
	"github.com/zjrosen/assetq/internal/enqueue"
	"github.com/zjrosen/assetq/internal/log"
	"github.com/zjrosen/assetq/internal/page"
	"github.com/zjrosen/assetq/internal/tracing"
)

var (
	version = "dev"
	cfgFile string
	cfg     config.Config

	// Built in setup for every subcommand run.
	fs            afero.Fs = afero.NewOsFs()
	host          *page.Assets
	svc           *enqueue.Service
	traceProvider *tracing.Provider
	logCleanup    func()
)

var rootCmd = &cobra.Command{
	Use:   "assetq",
	Short: "Register asset namespaces and enqueue their scripts and styles",
	Long: `assetq maps namespaces to assets directories and public URLs, then
enqueues scripts and stylesheets by relative path with generated handles,
duplicate suppression and modification-time cache busting.

Namespaces come from the manifest named in the config (manifest:) or
--manifest, plus any --register flags.`,
	Version:            version,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .assetq/config.yaml or ~/.config/assetq/config.yaml)")
	rootCmd.PersistentFlags().StringP("manifest", "m", "",
		"assets manifest to register at startup")
	rootCmd.PersistentFlags().StringArrayP("register", "r", nil,
		`register a namespace: 'Namespace=path[=url]' (repeatable)`)
	rootCmd.PersistentFlags().Bool("debug", false,
		"write debug logs to log_file")

	bindFlags()
}

// bindFlags binds flags to viper
func bindFlags() {
	_ = viper.BindPFlag("manifest", rootCmd.PersistentFlags().Lookup("manifest"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("defaults.version_strategy", defaults.Defaults.VersionStrategy)
	viper.SetDefault("defaults.cache_busting", *defaults.Defaults.CacheBusting)
	viper.SetDefault("defaults.version", defaults.Defaults.Version)
	viper.SetDefault("watch.debounce", defaults.Watch.Debounce)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)
	viper.SetDefault("log_file", defaults.LogFile)
	viper.SetDefault("log_level", defaults.LogLevel)

	viper.SetEnvPrefix("ASSETQ")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .assetq/config.yaml (current directory)
		// 2. ~/.config/assetq/config.yaml (user config)
		if _, err := os.Stat(config.DefaultConfigPath); err == nil {
			viper.SetConfigFile(config.DefaultConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "assetq"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	// A missing config file is fine; everything has a default.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "assetq: reading config: %v\n", err)
		}
	}

	cfg = config.Config{}
	_ = viper.Unmarshal(&cfg)
}

// setup validates the config, starts logging and tracing, and builds the
// service with every configured namespace registered.
func setup(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Debug {
		cleanup, err := log.Init(cfg.LogFile)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		logCleanup = cleanup
		log.SetMinLevel(log.ParseLevel(cfg.LogLevel))
	}

	tp, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("starting tracing: %w", err)
	}
	traceProvider = tp

	host = page.New()
	svc = enqueue.New(host,
		enqueue.WithFs(fs),
		enqueue.WithRoots(cfg.Translator()),
		enqueue.WithDefaults(cfg.AssetOptions()),
		enqueue.WithTracer(tp.Tracer()),
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if cfg.Manifest != "" {
		entries, err := enqueue.LoadManifest(fs, cfg.Manifest)
		if err != nil {
			return err
		}
		if err := svc.RegisterManifest(ctx, entries); err != nil {
			return fmt.Errorf("registering manifest: %w", err)
		}
	}

	args, _ := cmd.Flags().GetStringArray("register")
	for _, arg := range args {
		ns, dir, url, err := parseRegisterFlag(arg)
		if err != nil {
			return err
		}
		if err := svc.Register(ctx, ns, dir, url, nil); err != nil {
			return err
		}
	}
	return nil
}

func teardown(cmd *cobra.Command, _ []string) error {
	var err error
	if traceProvider != nil {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		err = traceProvider.Shutdown(ctx)
		traceProvider = nil
	}
	if logCleanup != nil {
		logCleanup()
		logCleanup = nil
	}
	return err
}

// parseRegisterFlag splits 'Namespace=path[=url]'. Namespaces may contain
// backslashes but not '='.
func parseRegisterFlag(arg string) (namespace, dir, url string, err error) {
	parts := strings.SplitN(arg, "=", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", "", fmt.Errorf("invalid --register %q: want Namespace=path[=url]", arg)
	}
	if len(parts) == 3 {
		url = parts[2]
	}
	return parts[0], parts[1], url, nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
