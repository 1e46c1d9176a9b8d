package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/ssdpd/internal/config"
	"github.com/muurk/ssdpd/internal/controlpoint"
	"github.com/muurk/ssdpd/internal/engine"
	"github.com/muurk/ssdpd/internal/host"
	"github.com/muurk/ssdpd/internal/logging"
	"github.com/muurk/ssdpd/internal/server"
	"github.com/muurk/ssdpd/internal/ui"
)

var (
	serveNoClient bool
	serveNoServer bool
	serveAddr     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Advertise configured devices and run discovery",
	Long: `Start the shared SSDP engine with every device from the configuration file,
the discovery client and the status server, and run until interrupted.

Devices without a uuid get one generated and written back to the
configuration file so their identity survives restarts.

The status server answers:
  GET /healthz   engine status
  GET /devices   discovered devices
  GET /feed      websocket stream of discovery events
  GET /metrics   Prometheus metrics`,
	Example: `  # Run with the default configuration
  ssdpd serve

  # Advertise only, no discovery client
  ssdpd serve --no-client

  # Status server on all interfaces
  ssdpd serve --addr :1901`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveNoClient, "no-client", false, "Do not run the discovery client")
	serveCmd.Flags().BoolVar(&serveNoServer, "no-server", false, "Do not run the status server")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Status server address (overrides server.addr)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveNoClient {
		cfg.Client.Enabled = false
	}
	if serveNoServer {
		cfg.Server.Enabled = false
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	if cfg.EnsureUUIDs() {
		if err := cfg.Save(); err != nil {
			logging.Warn("Failed to persist generated device UUIDs", zap.Error(err))
		}
	}

	e := newEngine(cfg.Engine)
	defer func() {
		if err := e.Close(); err != nil {
			logging.Error("Engine shutdown failed", zap.Error(err))
		}
	}()

	var client *controlpoint.Client
	if cfg.Client.Enabled {
		var err error
		client, err = controlpoint.New(clientConfig(cfg.Client, true))
		if err != nil {
			return fmt.Errorf("failed to create discovery client: %w", err)
		}
		if err := e.AddParticipant(client); err != nil {
			return err
		}
	}

	hosts := make([]*host.Host, 0, len(cfg.Devices))
	for _, d := range cfg.Devices {
		h, err := newHost(d)
		if err != nil {
			return fmt.Errorf("failed to create device %q: %w", d.FriendlyName, err)
		}
		if err := e.AddParticipant(h); err != nil {
			return err
		}
		hosts = append(hosts, h)
	}

	if err := e.Start(); err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}

	var srv *server.Server
	if cfg.Server.Enabled {
		var events server.EventSource
		if client != nil {
			events = client
		}
		var err error
		srv, err = server.New(server.Config{
			Addr:     cfg.Server.Addr,
			CertPath: cfg.Server.TLSCert,
			KeyPath:  cfg.Server.TLSKey,
		}, e, events)
		if err != nil {
			return err
		}
		if err := srv.Start(); err != nil {
			return err
		}
	}

	printServeSummary(cmd, e, hosts, srv)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logging.Info("Shutdown signal received")
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Warn("Status server shutdown failed", zap.Error(err))
		}
	}
	return e.Stop()
}

func printServeSummary(cmd *cobra.Command, e *engine.Engine, hosts []*host.Host, srv *server.Server) {
	p := ui.NewPrinter(cmd.OutOrStdout())
	status := e.Status()

	params := []ui.Param{
		{Key: "Config", Value: configPathForDisplay()},
		{Key: "Devices", Value: strconv.Itoa(status.Hosts)},
		{Key: "Clients", Value: strconv.Itoa(status.Clients)},
		{Key: "Suppress self", Value: strconv.FormatBool(e.SuppressSelfDiscovery())},
	}
	if srv != nil && srv.Addr() != nil {
		params = append(params, ui.Param{Key: "Status server", Value: srv.Addr().String()})
	}
	p.PrintHeader("ssdpd", "ssdpd serve", params...)

	result := ui.NewSuccessResult("Engine running").SetWidth(p.Width())
	for _, h := range hosts {
		result.AddDetail(h.FriendlyName(), fmt.Sprintf("%s port %d", h.Identifier(), h.Port()))
	}
	p.Println(result.Render())
	p.Println(ui.HintItemStyle.Render("  Press Ctrl+C to stop."))
}

func configPathForDisplay() string {
	path, err := config.GetConfigPath()
	if err != nil {
		return "(defaults)"
	}
	if _, err := os.Stat(path); err != nil {
		return path + " (not found, using defaults)"
	}
	return path
}
