package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/assetq/internal/pubsub"
	"github.com/zjrosen/assetq/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print fresh asset versions as files change",
	Long: `Watch every registered assets directory and print one line per changed
file: the event, namespace, file and the URL with its new version.

Deleted files print without a URL. Stop with Ctrl+C.

Example:
  assetq watch -m assets.yaml`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	regs := svc.Registrations()
	if len(regs) == 0 {
		return fmt.Errorf("no namespaces registered: pass --manifest or --register")
	}

	dirs := make([]watcher.Dir, 0, len(regs))
	for _, reg := range regs {
		dirs = append(dirs, watcher.Dir{Namespace: reg.Namespace(), Path: reg.Path()})
	}

	broker := pubsub.NewBroker[watcher.Change]()
	defer broker.Close()

	w, err := watcher.New(watcher.Config{Dirs: dirs, Debounce: cfg.Watch.Debounce}, broker)
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	events := broker.Subscribe(ctx)
	if err := w.Start(); err != nil {
		return err
	}
	return printChanges(ctx, cmd.OutOrStdout(), events)
}

// printChanges writes one line per event until ctx ends or events closes.
func printChanges(ctx context.Context, out io.Writer, events <-chan pubsub.Event[watcher.Change]) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			c := e.Payload
			if e.Type == pubsub.DeletedEvent {
				if _, err := fmt.Fprintf(out, "%s\t%s\t%s\n", e.Type, c.Namespace, c.File); err != nil {
					return err
				}
				continue
			}

			url, err := svc.GetAssetURL(c.Namespace, c.File)
			if err != nil {
				url = "-"
			}
			if v, err := svc.AssetVersion(c.Namespace, c.File); err == nil && url != "-" {
				url += "?ver=" + v
			}
			if _, err := fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", e.Type, c.Namespace, c.File, url); err != nil {
				return err
			}
		}
	}
}
