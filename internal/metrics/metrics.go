package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BotUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "luctbot", Name: "updates_total", Help: "Processed telegram updates",
	})
	HandlerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "luctbot", Name: "handler_errors_total", Help: "Handler errors",
	})
	APIRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "luctbot", Name: "api_requests_total", Help: "Requests to the reporting API",
	}, []string{"endpoint", "status"})
	APILatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "luctbot", Name: "api_request_seconds", Help: "Reporting API latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
	ExportsWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "luctbot", Name: "exports_written_total", Help: "Spreadsheet exports written",
	})
	StorePing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "luctbot", Name: "store_ping_seconds", Help: "Credential store ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(BotUpdates, HandlerErrors, APIRequests, APILatency, ExportsWritten, StorePing)
}

func Handler() http.Handler { return promhttp.Handler() }

// ObserveAPI records one API round-trip. status 0 means the request never got a response.
func ObserveAPI(endpoint string, status int, d time.Duration) {
	APIRequests.WithLabelValues(endpoint, statusClass(status)).Inc()
	APILatency.WithLabelValues(endpoint).Observe(d.Seconds())
}

func ObserveStorePing(d time.Duration) { StorePing.Observe(d.Seconds()) }

func statusClass(status int) string {
	if status == 0 {
		return "transport_error"
	}
	return strconv.Itoa(status/100) + "xx"
}
