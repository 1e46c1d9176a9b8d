// Package metrics holds the Prometheus collectors exported by ssdpd.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Participant kinds used as the "kind" label
const (
	KindHost   = "host"
	KindClient = "client"
)

// =============================================================================
// Engine Metrics
// =============================================================================

var (
	// EngineRunning is 1 while the engine holds the shared channel
	EngineRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ssdpd_engine_running",
			Help: "Whether the discovery engine is running (1) or stopped (0)",
		},
	)

	// EngineEpochsTotal counts successful engine starts
	EngineEpochsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ssdpd_engine_epochs_total",
			Help: "Total number of successful engine starts",
		},
	)

	// Participants tracks registered participants by kind
	Participants = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ssdpd_participants",
			Help: "Number of registered discovery participants",
		},
		[]string{"kind"},
	)

	// ParticipantFailuresTotal counts participant start and stop failures
	ParticipantFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ssdpd_participant_failures_total",
			Help: "Total number of participant start/stop failures",
		},
		[]string{"kind", "op"},
	)
)

// =============================================================================
// SSDP Traffic Metrics
// =============================================================================

var (
	// SSDPMessagesTotal counts requests read from the shared channel
	SSDPMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ssdpd_ssdp_messages_total",
			Help: "Total SSDP requests received on the shared channel",
		},
		[]string{"method"},
	)

	// SearchResponsesTotal counts unicast M-SEARCH responses sent by hosts
	SearchResponsesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ssdpd_search_responses_total",
			Help: "Total M-SEARCH responses sent by advertising hosts",
		},
	)

	// AnnouncementsTotal counts NOTIFY messages sent by hosts
	AnnouncementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ssdpd_announcements_total",
			Help: "Total NOTIFY announcements sent by advertising hosts",
		},
		[]string{"nts"},
	)

	// DiscoveredDevices tracks devices currently known to discovery clients
	DiscoveredDevices = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ssdpd_discovered_devices",
			Help: "Number of devices currently in discovery client catalogs",
		},
	)

	// DescriptionFetchesTotal counts description document fetches
	DescriptionFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ssdpd_description_fetches_total",
			Help: "Total device and service description fetches",
		},
		[]string{"document", "status"},
	)

	// DescriptionCacheHitsTotal counts description fetches served from cache
	DescriptionCacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ssdpd_description_cache_hits_total",
			Help: "Total root descriptions served from the location cache",
		},
	)
)

// =============================================================================
// Status Server Metrics
// =============================================================================

var (
	// FeedConnections tracks open websocket feed connections
	FeedConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ssdpd_feed_connections",
			Help: "Number of open catalog feed websocket connections",
		},
	)

	// FeedEventsDroppedTotal counts events dropped for slow feed consumers
	FeedEventsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ssdpd_feed_events_dropped_total",
			Help: "Total catalog events dropped because a feed connection fell behind",
		},
	)
)
