// Package metrics holds the prometheus collectors of the node control
// protocol. Collectors are registered on the default registry and exposed
// through the admin HTTP server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChannelsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "plexus_node_channels_active",
		Help: "Number of node channels currently open.",
	})

	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plexus_node_channel_messages_sent_total",
		Help: "Messages sent over node channels.",
	})

	MessagesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plexus_node_channel_messages_received_total",
		Help: "Messages received over node channels.",
	})

	MessagesDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plexus_node_channel_messages_discarded_total",
		Help: "Messages discarded because their channel closed before delivery.",
	})

	QueryFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plexus_storage_query_frames_total",
		Help: "Frames streamed by the storage query gateway.",
	})

	QueryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plexus_storage_query_failures_total",
		Help: "Storage queries terminated by an engine error.",
	})

	RevisionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plexus_service_revision_conflicts_total",
		Help: "Service revision registrations rejected as incompatible.",
	})

	VersionAdvances = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plexus_metadata_version_advances_total",
		Help: "Accepted advances of the cluster metadata version counters.",
	}, []string{"kind"})
)
