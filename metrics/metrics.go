package metrics

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Collector owns the recorder's metrics on a private registry.
type Collector struct {
	reg *prometheus.Registry

	Polls    *prometheus.CounterVec // result label: success|failure
	Failures *prometheus.CounterVec // condition label

	FeedEntities    prometheus.Gauge
	MatchedVehicles prometheus.Gauge
	RowsWritten     prometheus.Counter

	CycleDuration prometheus.Histogram

	LastSuccessEpoch prometheus.Gauge

	lastEpoch atomic.Int64
}

// NewCollector creates and registers all recorder metrics.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "busrecorder_polls_total",
			Help: "Total poll cycles by result.",
		}, []string{"result"}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "busrecorder_poll_failures_total",
			Help: "Failed poll cycles by condition.",
		}, []string{"condition"}),
		FeedEntities: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "busrecorder_feed_entities",
			Help: "Position-bearing entities in the last decoded feed.",
		}),
		MatchedVehicles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "busrecorder_matched_vehicles",
			Help: "Entities matching the tracked route in the last decoded feed.",
		}),
		RowsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "busrecorder_rows_written_total",
			Help: "Observations committed to the store.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "busrecorder_cycle_duration_seconds",
			Help:    "Duration of one fetch-decode-persist cycle.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		LastSuccessEpoch: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "busrecorder_last_success_epoch",
			Help: "Feed header timestamp of the last successful cycle.",
		}),
	}

	reg.MustRegister(
		c.Polls, c.Failures,
		c.FeedEntities, c.MatchedVehicles, c.RowsWritten,
		c.CycleDuration, c.LastSuccessEpoch,
	)
	return c
}

// RecordSuccessEpoch stores the feed timestamp of the latest successful
// cycle for both the gauge and the health endpoint.
func (c *Collector) RecordSuccessEpoch(ts int64) {
	c.lastEpoch.Store(ts)
	c.LastSuccessEpoch.Set(float64(ts))
}

type healthResponse struct {
	Status                  string `json:"status"`
	LatestGTFSRealtimeEpoch int64  `json:"latest_gtfsrt_epoch"`
}

func (c *Collector) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	resp := healthResponse{
		Status:                  "ok",
		LatestGTFSRealtimeEpoch: c.lastEpoch.Load(),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// Serve exposes /metrics and /healthz on addr. The returned server is
// already listening; the caller owns shutdown.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", c.handleHealth)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("metrics server stopped")
		}
	}()
	return srv
}
