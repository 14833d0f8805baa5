package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zjrosen/assetq/internal/domain/assets"
	"github.com/zjrosen/assetq/internal/presentation"
)

var registryListCmd = &cobra.Command{
	Use:   "registry:list",
	Short: "List all registered namespaces",
	Long: `List all registered namespaces with their assets path, URL and options as JSON.

Use --namespace to show a single registration.

Examples:
  # List all registrations
  assetq registry:list -m assets.yaml

  # A single namespace
  assetq registry:list --namespace 'Acme\Widget'

  # Parse specific fields with jq
  assetq registry:list | jq '.[].url'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var registrations []*assets.Registration

		if cmd.Flags().Changed("namespace") {
			ns, _ := cmd.Flags().GetString("namespace")
			reg, err := svc.Registration(ns)
			if err != nil {
				return err
			}
			registrations = []*assets.Registration{reg}
		} else {
			registrations = svc.Registrations()
		}

		formatter := presentation.NewFormatter(cmd.OutOrStdout())
		return formatter.FormatRegistrations(presentation.FromDomainRegistrations(registrations))
	},
}

func init() {
	registryListCmd.Flags().StringP("namespace", "n", "", `Show one namespace (e.g., 'Acme\Widget')`)
	rootCmd.AddCommand(registryListCmd)
}
