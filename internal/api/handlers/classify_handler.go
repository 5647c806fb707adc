package handlers

import (
	"net/http"

	"knowyourclient/internal/engine/clientinfo"
	"knowyourclient/internal/pkg/errors"
)

type ClassifyHandler struct {
	classifier clientinfo.Classifier
	metrics    *Metrics
}

func NewClassifyHandler(classifier clientinfo.Classifier, metrics *Metrics) *ClassifyHandler {
	return &ClassifyHandler{classifier: classifier, metrics: metrics}
}

// FromHeaders classifies the calling client from its own request headers.
func (h *ClassifyHandler) FromHeaders(w http.ResponseWriter, r *http.Request) {
	snap := h.classifier.Classify(clientinfo.FromRequest(r))
	h.metrics.Classified.Add(1)
	errors.WriteJSON(w, http.StatusOK, snap)
}

func (h *ClassifyHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var in clientinfo.Input
	if err := decodeJSON(w, r, &in); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if err := normalizeInput(&in); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	snap := h.classifier.Classify(in)
	h.metrics.Classified.Add(1)
	errors.WriteJSON(w, http.StatusOK, snap)
}
