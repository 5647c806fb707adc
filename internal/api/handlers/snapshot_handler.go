package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"
	apiContext "knowyourclient/internal/api/context"
	"knowyourclient/internal/api/middleware"
	"knowyourclient/internal/engine/analytics"
	"knowyourclient/internal/engine/clientinfo"
	"knowyourclient/internal/pkg/errors"
	"knowyourclient/internal/platform/models"
)

type snapshotQueue interface {
	Enqueue(rec *analytics.Record) bool
}

type SnapshotHandler struct {
	classifier clientinfo.Classifier
	queue      snapshotQueue
	metrics    *Metrics
}

func NewSnapshotHandler(classifier clientinfo.Classifier, queue snapshotQueue, metrics *Metrics) *SnapshotHandler {
	return &SnapshotHandler{classifier: classifier, queue: queue, metrics: metrics}
}

// Ingest classifies a collector's report and queues it for storage under the
// source of the authenticating API key.
func (h *SnapshotHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	key := r.Context().Value(apiContext.APIKey).(*models.APIKey)

	var in clientinfo.Input
	if err := decodeJSON(w, r, &in); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if err := normalizeInput(&in); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	rec := analytics.NewRecord(key.SourceID, middleware.ClientIP(r), h.classifier.Classify(in))
	if !h.queue.Enqueue(rec) {
		log.Warn().Str("source_id", key.SourceID).Msg("snapshot queue full, rejecting")
		w.Header().Set("Retry-After", "1")
		errors.WriteError(w, http.StatusServiceUnavailable, errors.ErrCodeQueueFull, "Snapshot queue is full", nil)
		return
	}

	h.metrics.Ingested.Add(1)
	errors.WriteJSON(w, http.StatusAccepted, rec)
}
