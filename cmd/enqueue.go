package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/assetq/internal/domain/assets"
	"github.com/zjrosen/assetq/internal/enqueue"
	"github.com/zjrosen/assetq/internal/presentation"
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Enqueue assets and print the page tags",
	Long: `Enqueue scripts and stylesheets from a registered namespace and print the
resulting <link> and <script> tags, or the enqueued assets as JSON.

Examples:
  # One stylesheet and one footer script
  assetq enqueue -n 'Acme\Widget' --style css/admin.css --script js/app.js --footer

  # Attach localization data to a script
  assetq enqueue -n 'Acme\Widget' --script js/app.js --localize 'js/app.js:acmeData={"nonce":"abc"}'

  # JSON instead of HTML
  assetq enqueue -n 'Acme\Widget' --style css/admin.css --json`,
	Args: cobra.NoArgs,
	RunE: runEnqueue,
}

func init() {
	enqueueCmd.Flags().StringP("namespace", "n", "", "registered namespace (required)")
	enqueueCmd.Flags().StringArray("script", nil, "script file relative to the assets path (repeatable)")
	enqueueCmd.Flags().StringArray("style", nil, "stylesheet file relative to the assets path (repeatable)")
	enqueueCmd.Flags().StringArray("dep", nil, "dependency handle passed through to every asset (repeatable)")
	enqueueCmd.Flags().String("ver", "", "explicit version for every asset")
	enqueueCmd.Flags().Bool("footer", false, "place scripts in the footer")
	enqueueCmd.Flags().String("media", "", "media attribute for stylesheets")
	enqueueCmd.Flags().StringArray("localize", nil, `attach data to a script: 'file:objectName=json' (repeatable)`)
	enqueueCmd.Flags().Bool("json", false, "print enqueued assets as JSON")
	_ = enqueueCmd.MarkFlagRequired("namespace")
	rootCmd.AddCommand(enqueueCmd)
}

func runEnqueue(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	namespace, _ := flags.GetString("namespace")
	scripts, _ := flags.GetStringArray("script")
	styles, _ := flags.GetStringArray("style")
	deps, _ := flags.GetStringArray("dep")
	ver, _ := flags.GetString("ver")
	footer, _ := flags.GetBool("footer")
	media, _ := flags.GetString("media")
	localize, _ := flags.GetStringArray("localize")
	asJSON, _ := flags.GetBool("json")

	if len(scripts)+len(styles) == 0 {
		return fmt.Errorf("nothing to enqueue: pass --script or --style")
	}

	scope := svc.Scope(namespace)
	var out []presentation.EnqueuedDTO
	add := func(kind assets.Kind, file, handle string) {
		if a, ok := host.Asset(kind, handle); ok {
			out = append(out, presentation.FromAsset(namespace, file, a))
		}
	}

	for _, file := range styles {
		h, err := scope.EnqueueStyle(ctx, file, enqueue.EnqueueOptions{Deps: deps, Version: ver, Media: media})
		if err != nil {
			return err
		}
		add(assets.KindStyle, file, h)
	}
	for _, file := range scripts {
		h, err := scope.EnqueueScript(ctx, file, enqueue.EnqueueOptions{Deps: deps, Version: ver, InFooter: footer})
		if err != nil {
			return err
		}
		add(assets.KindScript, file, h)
	}

	for _, arg := range localize {
		file, objectName, data, err := parseLocalizeFlag(arg)
		if err != nil {
			return err
		}
		if err := scope.Localize(ctx, file, objectName, data); err != nil {
			return err
		}
	}

	if asJSON {
		return presentation.NewFormatter(cmd.OutOrStdout()).FormatEnqueued(out)
	}
	return host.Render(cmd.OutOrStdout())
}

// parseLocalizeFlag splits 'file:objectName=json'.
func parseLocalizeFlag(arg string) (file, objectName string, data any, err error) {
	file, rest, ok := strings.Cut(arg, ":")
	if !ok || file == "" {
		return "", "", nil, fmt.Errorf("invalid --localize %q: want file:objectName=json", arg)
	}
	objectName, raw, ok := strings.Cut(rest, "=")
	if !ok || objectName == "" {
		return "", "", nil, fmt.Errorf("invalid --localize %q: want file:objectName=json", arg)
	}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return "", "", nil, fmt.Errorf("invalid --localize %q: %w", arg, err)
	}
	return file, objectName, data, nil
}
