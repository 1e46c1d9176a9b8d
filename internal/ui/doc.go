// Package ui provides terminal UI components for the ssdpd CLI.
//
// Most components follow a "print once" pattern: commands build a Header,
// render devices as a table or tree, and finish with a Result box, all
// through a Printer. The watch command is the one interactive view; it runs
// a Bubble Tea program fed by discovery client events.
//
// Example:
//
//	p := ui.NewPrinter(os.Stdout)
//	p.PrintHeader("SSDP Search", "ssdpd search", ui.Param{Key: "Target", Value: "ssdp:all"})
//	p.PrintDevices(client.Catalog())
//	p.PrintSuccess("Search complete", ui.Param{Key: "Devices", Value: "3"})
//
// # Logging Integration
//
// zap logging is silent unless --log-level or SSDPD_LOG_LEVEL is set, so
// the styled output is not interleaved with log lines.
package ui
