// Package logging provides structured logging for ssdpd.
//
// This package wraps a zap logger with convenience functions for the logging
// patterns used across the engine, its participants and the CLI.
//
// # Log Levels
//
//   - Debug: per-datagram SSDP traffic, multicast joins, cache hits
//   - Info: engine and participant lifecycle transitions
//   - Warn: participant failures that do not abort an operation
//   - Error: bind/join failures, server errors
//
// # Silent By Default
//
// Without an explicit level (flag or SSDPD_LOG_LEVEL), the package logs nothing.
// CLI commands that print to stdout rely on this.
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Domain Helpers
//
//	logging.LogParticipant("host", "uuid:...", "started", nil)
//	logging.LogSSDPMessage(remote, "M-SEARCH", "", "ssdp:all", "")
//	logging.LogMulticastJoin("eth0", "239.255.255.250", err)
//
// # Thread Safety
//
// All logging functions are safe for concurrent use once Initialize has
// returned. Initialize and SetLogger are meant to be called during startup.
package logging
