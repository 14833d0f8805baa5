package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/assetq/internal/config"
)

var configInitCmd = &cobra.Command{
	Use:   "config:init",
	Short: "Write a commented default config to .assetq/config.yaml",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.DefaultConfigPath
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := config.WriteDefaultConfig(path); err != nil {
			return err
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), path)
		return err
	},
}

var rootsSetCmd = &cobra.Command{
	Use:   "roots:set <name> <dir> <url>",
	Short: "Add or replace a path/URL root in the config file",
	Long: `Add or replace roots.<name> in the config file in use (or
.assetq/config.yaml), keeping the rest of the file and its comments.

Example:
  assetq roots:set plugins /var/www/site/plugins https://example.com/plugins`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := viper.ConfigFileUsed()
		if path == "" {
			path = config.DefaultConfigPath
		}
		if err := config.SaveRoot(path, args[0], config.RootConfig{Dir: args[1], URL: args[2]}); err != nil {
			return err
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "roots.%s saved to %s\n", args[0], path)
		return err
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the assetq version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), rootCmd.Version)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configInitCmd, rootsSetCmd, versionCmd)
}
