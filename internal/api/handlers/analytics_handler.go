package handlers

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"knowyourclient/internal/engine/analytics"
	"knowyourclient/internal/pkg/errors"
)

const dateLayout = "2006-01-02"

type AnalyticsHandler struct {
	svc *analytics.Service
}

func NewAnalyticsHandler(svc *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

// timeRange reads start_ts and end_ts (unix millis), defaulting to the last 24 hours.
func timeRange(r *http.Request) (int64, int64, error) {
	now := time.Now().UnixMilli()
	start, err := queryInt64(r, "start_ts", now-24*60*60*1000)
	if err != nil {
		return 0, 0, err
	}
	end, err := queryInt64(r, "end_ts", now)
	if err != nil {
		return 0, 0, err
	}
	if start > end {
		return 0, 0, stderrors.New("start_ts must not be after end_ts")
	}
	return start, end, nil
}

func (h *AnalyticsHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	sourceID := param(r, "source_id")

	start, end, err := timeRange(r)
	if err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 50
	}
	offset := (page - 1) * limit

	records, err := h.svc.GetSnapshotHistory(sourceID, start, end, limit, offset)
	if err != nil {
		log.Error().Err(err).Str("source_id", sourceID).Msg("failed to list snapshots")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to list snapshots", nil)
		return
	}
	errors.WriteJSON(w, http.StatusOK, records)
}

func (h *AnalyticsHandler) Breakdown(w http.ResponseWriter, r *http.Request) {
	sourceID := param(r, "source_id")

	dimension := r.URL.Query().Get("dimension")
	if dimension == "" {
		dimension = "browser"
	}
	if !analytics.IsDimension(dimension) {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Unknown dimension "+dimension, nil)
		return
	}

	start, end, err := timeRange(r)
	if err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	includeUnknown, _ := strconv.ParseBool(r.URL.Query().Get("include_unknown"))

	entries, err := h.svc.GetBreakdown(sourceID, dimension, start, end, includeUnknown)
	if err != nil {
		log.Error().Err(err).Str("source_id", sourceID).Str("dimension", dimension).Msg("failed to compute breakdown")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to compute breakdown", nil)
		return
	}

	errors.WriteJSON(w, http.StatusOK, struct {
		Dimension string                     `json:"dimension"`
		Entries   []analytics.BreakdownEntry `json:"entries"`
	}{dimension, entries})
}

func (h *AnalyticsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	sourceID := param(r, "source_id")

	startDate := r.URL.Query().Get("start_date")
	endDate := r.URL.Query().Get("end_date")
	if startDate == "" || endDate == "" {
		now := time.Now().UTC()
		endDate = now.Format(dateLayout)
		startDate = now.AddDate(0, 0, -30).Format(dateLayout)
	}
	for _, d := range []string{startDate, endDate} {
		if _, err := time.Parse(dateLayout, d); err != nil {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Dates must be YYYY-MM-DD", nil)
			return
		}
	}

	stats, err := h.svc.GetStatsOverview(sourceID, startDate, endDate)
	if err != nil {
		log.Error().Err(err).Str("source_id", sourceID).Msg("failed to load daily stats")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load daily stats", nil)
		return
	}
	errors.WriteJSON(w, http.StatusOK, stats)
}
