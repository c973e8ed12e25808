package monitor

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/turtacn/Tether/pkg/logger"
)

var (
	// ChannelOpens counts successful state channel opens.
	ChannelOpens = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tether_channel_opens_total",
		Help: "Total number of successfully opened state channels",
	})
	// ChannelCloses counts channel losses seen while the session was live.
	ChannelCloses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tether_channel_closes_total",
		Help: "Total number of state channel closes while not terminated",
	})
	// ChannelRetries counts reconnect timer firings.
	ChannelRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tether_channel_retries_total",
		Help: "Total number of reconnect attempts",
	})
	// RetryExhausted counts retry budgets that ran out.
	RetryExhausted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tether_retry_exhausted_total",
		Help: "Total number of times the reconnect budget was exhausted",
	})
	// FramesTotal counts inbound frames, partitioned by message type.
	FramesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tether_frames_total",
		Help: "Total number of inbound state channel frames",
	}, []string{"message_type"})
	// SessionTerminations counts terminal transitions, partitioned by reason.
	SessionTerminations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tether_session_terminations_total",
		Help: "Total number of sessions that became terminal",
	}, []string{"reason"})
	// BootstrapDuration tracks the time from start to supervisor hand-off in seconds.
	BootstrapDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "tether_bootstrap_duration_seconds",
		Help: "Time taken for the session bootstrap",
	})
)

var registerOnce sync.Once

// Register adds every collector to the default registry. Safe to call repeatedly.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			ChannelOpens,
			ChannelCloses,
			ChannelRetries,
			RetryExhausted,
			FramesTotal,
			SessionTerminations,
			BootstrapDuration,
		)
	})
}

// InitMetrics registers Prometheus metrics and starts an HTTP server to expose them.
// It takes an address string (e.g., ":9090") on which to listen for requests.
// An empty address only registers the collectors.
func InitMetrics(addr string) {
	Register()
	if addr == "" {
		return
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		logger.Log.Info("Metrics server starting", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Log.Error("Metrics server failed", "err", err)
		}
	}()
}

// Personal.AI order the ending
