package monitor

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsInitialization(t *testing.T) {
	addr := "127.0.0.1:0" // Random port
	InitMetrics(addr)
	InitMetrics("")

	// Increment metrics to see if they are working
	SessionTerminations.WithLabelValues("test").Inc()
	BootstrapDuration.Observe(0.5)

	// Briefly check if we can reach the metrics endpoint
	time.Sleep(100 * time.Millisecond)
}

func TestMetricsValues(t *testing.T) {
	Register()
	before := testutil.ToFloat64(ChannelRetries)
	ChannelRetries.Inc()
	if got := testutil.ToFloat64(ChannelRetries); got != before+1 {
		t.Errorf("Expected %v retries, got %v", before+1, got)
	}

	FramesTotal.WithLabelValues("appInfo").Inc()
	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `tether_frames_total{message_type="appInfo"}`) {
		t.Errorf("Expected frames counter in exposition")
	}
}
