package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds every joynode collector. It is served by the ops server
// instead of the global default registry.
var Registry = prometheus.NewRegistry()

var (
	// UplinkAttempts counts finished upload sessions by outcome:
	// success, dns_failure, connect_failure, transport_error,
	// resource_exhausted, timeout.
	UplinkAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "joynode_uplink_attempts_total",
			Help: "Total number of telemetry upload attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// UplinkSkipped counts triggers that were ignored because a session or
	// lookup was still pending.
	UplinkSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "joynode_uplink_skipped_total",
			Help: "Total number of upload triggers skipped by reason.",
		},
		[]string{"reason"},
	)

	// UplinkInFlight is 1 while an upload session holds a connection.
	UplinkInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "joynode_uplink_in_flight",
			Help: "Whether a telemetry upload is in flight (1) or not (0).",
		},
	)

	UplinkDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "joynode_uplink_duration_seconds",
			Help:    "Time from connect to close of successful uploads.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ResolverLookups counts hostname lookups by result: success, failure.
	ResolverLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "joynode_resolver_lookups_total",
			Help: "Total number of hostname lookups by result.",
		},
		[]string{"result"},
	)

	// ResponderConnections counts inbound connections by result:
	// served, empty, error.
	ResponderConnections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "joynode_responder_connections_total",
			Help: "Total number of inbound page connections by result.",
		},
		[]string{"result"},
	)

	// MirrorPublishes counts MQTT snapshot publishes by result:
	// success, failure, skipped.
	MirrorPublishes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "joynode_mirror_publishes_total",
			Help: "Total number of MQTT snapshot publishes by result.",
		},
		[]string{"result"},
	)

	// Ticks counts orchestrator ticks.
	Ticks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "joynode_ticks_total",
			Help: "Total number of orchestrator ticks.",
		},
	)
)

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	Registry.MustRegister(UplinkAttempts)
	Registry.MustRegister(UplinkSkipped)
	Registry.MustRegister(UplinkInFlight)
	Registry.MustRegister(UplinkDuration)
	Registry.MustRegister(ResolverLookups)
	Registry.MustRegister(ResponderConnections)
	Registry.MustRegister(MirrorPublishes)
	Registry.MustRegister(Ticks)
}
