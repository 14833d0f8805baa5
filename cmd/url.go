package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var urlCmd = &cobra.Command{
	Use:   "url <namespace> <file>",
	Short: "Print the public URL of an asset",
	Long: `Print the public URL of a file under a namespace's assets path.
Fails when the file does not exist.

Example:
  assetq url 'Acme\Widget' css/admin.css`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := svc.GetAssetURL(args[0], args[1])
		if err != nil {
			return err
		}
		if withVer, _ := cmd.Flags().GetBool("ver"); withVer {
			v, err := svc.AssetVersion(args[0], args[1])
			if err != nil {
				return err
			}
			url += "?ver=" + v
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), url)
		return err
	},
}

var pathCmd = &cobra.Command{
	Use:   "path [<namespace> <file> | --url <url>]",
	Short: "Print the filesystem path of an asset",
	Long: `Print the absolute path of a file under a namespace's assets path, or
with --url translate a public URL back to a path through the configured roots.

Examples:
  assetq path 'Acme\Widget' css/admin.css
  assetq path --url https://example.com/plugins/acme/assets/css/admin.css`,
	Args: func(cmd *cobra.Command, args []string) error {
		if u, _ := cmd.Flags().GetString("url"); u != "" {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if u, _ := cmd.Flags().GetString("url"); u != "" {
			p, ok := cfg.Translator().PathFor(u)
			if !ok {
				return fmt.Errorf("no root serves %s", u)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), p)
			return err
		}

		p, err := svc.GetAssetPath(args[0], args[1])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), p)
		return err
	},
}

func init() {
	urlCmd.Flags().Bool("ver", false, "append the cache-busting version")
	pathCmd.Flags().String("url", "", "translate a public URL to a path")
	rootCmd.AddCommand(urlCmd, pathCmd)
}
