// Package server implements the ssdpd status server.
//
// The server is a small HTTP surface next to the discovery engine:
//
//	GET /healthz   engine status and build version as JSON
//	GET /devices   the discovery client's catalog as JSON
//	GET /feed      websocket stream of catalog events
//	GET /metrics   Prometheus metrics
//
// /devices and /feed are only registered when a discovery client is
// configured. A feed connection first receives an "added" event for every
// device already catalogued, then live added, updated and removed events.
// Events for a connection that cannot keep up are dropped and counted in
// ssdpd_feed_events_dropped_total.
//
// # Usage Example
//
//	srv, err := server.New(server.Config{Addr: "127.0.0.1:1901"}, eng, client)
//	if err != nil {
//	    return err
//	}
//	if err := srv.Start(); err != nil {
//	    return err
//	}
//	defer srv.Shutdown(context.Background())
//
// HTTPS is served when both CertPath and KeyPath are set.
package server
