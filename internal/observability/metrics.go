package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_client_api_requests_total",
			Help: "Total number of API requests issued by the client.",
		},
		[]string{"service", "method", "status"},
	)
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "social_client_api_request_duration_seconds",
			Help:    "API request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	realtimeConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "social_client_realtime_connected",
			Help: "Whether the realtime channel is currently connected (0 or 1).",
		},
	)
	realtimeEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_client_realtime_events_total",
			Help: "Total number of realtime events by name and direction.",
		},
		[]string{"event", "direction"},
	)
	realtimeReconnectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "social_client_realtime_reconnects_total",
			Help: "Total number of realtime reconnection attempts.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		apiRequestsTotal,
		apiRequestDuration,
		realtimeConnected,
		realtimeEventsTotal,
		realtimeReconnectsTotal,
	)
}

// ObserveAPIRequest records one completed API round trip. A status of zero
// means the request failed before a response arrived.
func ObserveAPIRequest(service, method string, status int, elapsed time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	apiRequestsTotal.WithLabelValues(service, method, label).Inc()
	apiRequestDuration.WithLabelValues(service).Observe(elapsed.Seconds())
}

// SetRealtimeConnected flips the channel connectivity gauge.
func SetRealtimeConnected(up bool) {
	if up {
		realtimeConnected.Set(1)
		return
	}
	realtimeConnected.Set(0)
}

// IncRealtimeEvent counts a realtime event. Direction is "in" or "out".
func IncRealtimeEvent(event, direction string) {
	realtimeEventsTotal.WithLabelValues(event, direction).Inc()
}

// IncRealtimeReconnect counts a reconnection attempt.
func IncRealtimeReconnect() {
	realtimeReconnectsTotal.Inc()
}
