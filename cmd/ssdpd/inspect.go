package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/muurk/ssdpd/internal/catalog"
	"github.com/muurk/ssdpd/internal/ui"
)

// Inspect command flags
var (
	inspectService  string
	inspectAction   string
	inspectArgument string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <identifier>",
	Short: "Describe a device found on the network",
	Long: `Search for a device by its UDN and print its services, actions and
arguments with their data types.

With --service, --action and --argument the data type of a single argument
is printed instead. Service and action names match by substring; the
argument name must match exactly.`,
	Example: `  # Show the full description tree
  ssdpd inspect uuid:2fac1234-31f8-11b4-a222-08002b34c003

  # Look up one argument's data type
  ssdpd inspect uuid:2fac1234-31f8-11b4-a222-08002b34c003 \
    --service SwitchPower --action GetStatus --argument ResultStatus`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectService, "service", "", "Service type substring")
	inspectCmd.Flags().StringVar(&inspectAction, "action", "", "Action name substring")
	inspectCmd.Flags().StringVar(&inspectArgument, "argument", "", "Argument name")

	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	id := catalog.CanonicalIdentifier(args[0])
	if id == "" {
		return errors.New("identifier required")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), searchTimeout)
	defer cancel()

	session, err := startDiscovery(cfg, id, 0)
	if err != nil {
		return err
	}
	defer func() { _ = session.Close() }()

	if err := session.client.Search(ctx); err != nil {
		return err
	}

	in, err := session.engine.Inspect()
	if err != nil {
		return err
	}

	p := ui.NewPrinter(cmd.OutOrStdout())
	dev, err := in.ByIdentifier(id)
	if err != nil {
		p.PrintError("Device not found", err,
			"Check the identifier with 'ssdpd search'",
			"The device may only answer searches for upnp:rootdevice or ssdp:all",
		)
		return err
	}

	if inspectArgument == "" {
		p.PrintDevice(dev)
		return nil
	}

	index, err := indexOf(in, id)
	if err != nil {
		return err
	}
	dataType, err := in.ArgumentDataType(index, inspectService, inspectAction, inspectArgument)
	if err != nil {
		return fmt.Errorf("%s %s.%s: %w", inspectService, inspectAction, inspectArgument, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), dataType)
	return nil
}

func indexOf(in *catalog.Inspector, id string) (int, error) {
	for i := 0; i < in.Count(); i++ {
		if got, _ := in.Identifier(i); got == id {
			return i, nil
		}
	}
	return 0, catalog.ErrNotFound
}
