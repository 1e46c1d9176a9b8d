package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/ssdpd/internal/catalog"
	"github.com/muurk/ssdpd/internal/mdns"
	"github.com/muurk/ssdpd/internal/ui"
)

// Search command flags
var (
	searchTarget  string
	searchMX      int
	searchJSON    bool
	searchMDNS    bool
	searchTimeout time.Duration
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the network for UPnP devices",
	Long: `Send an SSDP M-SEARCH on the shared channel, fetch the description of
every responder and print the resulting catalog.

With --mdns, devices advertised by other ssdpd instances over mDNS are
browsed as well and described over HTTP.`,
	Example: `  # Search for everything
  ssdpd search

  # Root devices only, with a longer response window
  ssdpd search --target upnp:rootdevice --mx 5

  # Include devices mirrored over mDNS, output as JSON
  ssdpd search --mdns --json`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchTarget, "target", "", "Search target (default client.search_target)")
	searchCmd.Flags().IntVar(&searchMX, "mx", 0, "Response window in seconds (default client.mx)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Print the catalog as JSON")
	searchCmd.Flags().BoolVar(&searchMDNS, "mdns", false, "Also browse devices mirrored over mDNS")
	searchCmd.Flags().DurationVar(&searchTimeout, "timeout", 30*time.Second, "Overall search timeout")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), searchTimeout)
	defer cancel()

	devices, err := searchDevices(ctx, searchTarget, searchMX, searchMDNS)
	if err != nil {
		if !searchJSON {
			ui.NewPrinter(cmd.OutOrStdout()).PrintError("Search failed", err,
				"Check that UDP port 1900 is not blocked by a firewall",
				"Restrict interfaces with engine.interfaces if multicast routing is unusual",
			)
		}
		return err
	}

	if searchJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(devices)
	}

	p := ui.NewPrinter(cmd.OutOrStdout())
	p.PrintHeader("SSDP Search", "ssdpd search",
		ui.Param{Key: "Target", Value: targetOrDefault(searchTarget)},
		ui.Param{Key: "mDNS", Value: strconv.FormatBool(searchMDNS)},
	)
	p.PrintDevices(devices)
	p.Newline()
	p.Println(ui.HintItemStyle.Render(fmt.Sprintf("  %d device(s). Use 'ssdpd inspect <identifier>' for details.", len(devices))))
	return nil
}

func targetOrDefault(target string) string {
	if target != "" {
		return target
	}
	return cfg.Client.SearchTarget
}

// searchDevices runs one M-SEARCH round, optionally adds mDNS-mirrored
// devices, and returns the catalog
func searchDevices(ctx context.Context, target string, mx int, withMDNS bool) ([]*catalog.Device, error) {
	session, err := startDiscovery(cfg, target, mx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = session.Close() }()

	if err := session.client.Search(ctx); err != nil {
		return nil, err
	}

	if withMDNS {
		scanner := mdns.NewScanner()
		found, err := scanner.ScanForDevices(ctx)
		if err != nil {
			return nil, fmt.Errorf("mDNS browse failed: %w", err)
		}
		for _, d := range found {
			// Devices that also answered the M-SEARCH are already catalogued
			_ = session.client.Track(ctx, d.UDN, d.Location())
		}
	}

	return session.client.Catalog(), nil
}
