package handlers

import (
	"fmt"
	"net/http"
	"sync/atomic"

	"knowyourclient/internal/engine/analytics"
)

// Metrics counts requests served by the classification endpoints.
type Metrics struct {
	Classified atomic.Int64
	Ingested   atomic.Int64
}

type recorderStats interface {
	Stats() analytics.RecorderStats
}

type MetricsHandler struct {
	metrics  *Metrics
	recorder recorderStats
}

func NewMetricsHandler(metrics *Metrics, recorder recorderStats) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, recorder: recorder}
}

// Export writes the counters in the Prometheus text format.
func (h *MetricsHandler) Export(w http.ResponseWriter, r *http.Request) {
	stats := h.recorder.Stats()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	metric(w, "knowyourclient_up", "gauge", "Is the server up", 1)
	metric(w, "knowyourclient_classifications_total", "counter", "Classify requests served", h.metrics.Classified.Load())
	metric(w, "knowyourclient_snapshots_ingested_total", "counter", "Snapshots accepted for recording", h.metrics.Ingested.Load())
	metric(w, "knowyourclient_snapshots_recorded_total", "counter", "Snapshots written to the store", stats.Recorded)
	metric(w, "knowyourclient_snapshots_dropped_total", "counter", "Snapshots rejected by a full or closed queue", stats.Dropped)
	metric(w, "knowyourclient_snapshots_failed_total", "counter", "Snapshots that failed to write", stats.Failed)
	metric(w, "knowyourclient_recorder_queue_depth", "gauge", "Snapshots waiting to be written", int64(stats.Queued))
}

func metric(w http.ResponseWriter, name, kind, help string, value int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
	fmt.Fprintf(w, "%s %d\n", name, value)
}
