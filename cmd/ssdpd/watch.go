package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/muurk/ssdpd/internal/ui"
)

var watchPlain bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch devices appear and disappear live",
	Long: `Run a discovery client on the shared channel and show the catalog as it
changes. Devices are added from NOTIFY announcements and search responses and
removed on ssdp:byebye.

In a terminal an interactive view is shown; press enter to inspect a device
and r to search again. With --plain, or when output is not a terminal, one
line is printed per change.`,
	Example: `  # Interactive view
  ssdpd watch

  # Stream changes for logging
  ssdpd watch --plain --target upnp:rootdevice`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&searchTarget, "target", "", "Search target (default client.search_target)")
	watchCmd.Flags().BoolVar(&watchPlain, "plain", false, "Print one line per change instead of the interactive view")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	session, err := startDiscovery(cfg, searchTarget, 0)
	if err != nil {
		return err
	}
	defer func() { _ = session.Close() }()

	events, unsubscribe := session.client.Subscribe()
	defer unsubscribe()

	if !watchPlain && term.IsTerminal(int(os.Stdout.Fd())) {
		return ui.RunWatch(session.client.Catalog(), events, session.client.Search)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := session.client.Search(ctx); err != nil && ctx.Err() == nil {
			cmd.PrintErrf("search failed: %v\n", err)
		}
	}()

	p := ui.NewPrinter(cmd.OutOrStdout())
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Device != nil {
				p.Println(ui.EventLine(ev.Type.String(), ev.Device))
			}
		}
	}
}
