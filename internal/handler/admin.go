package handler

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"elenchus/internal/httputil"
	"elenchus/internal/service/admin"
	"elenchus/internal/service/study"
)

// AdminHandler exposes the researcher surface: listings, full records,
// study-wide stats, CSV exports and the abandonment sweep. Routes sit
// behind the admin token middleware.
type AdminHandler struct {
	aggregator   *admin.Aggregator
	study        *study.Service
	abandonAfter time.Duration
	logger       *slog.Logger
}

func NewAdminHandler(aggregator *admin.Aggregator, studyService *study.Service, abandonAfter time.Duration, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		aggregator:   aggregator,
		study:        studyService,
		abandonAfter: abandonAfter,
		logger:       logger,
	}
}

// ListParticipants lists all participants with state and turn counts.
// GET /admin/api/participants
func (h *AdminHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.aggregator.ListParticipants(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, summaries)
}

// GetParticipant returns the full record for one participant.
// GET /admin/api/participants/{id}
func (h *AdminHandler) GetParticipant(w http.ResponseWriter, r *http.Request) {
	record, err := h.aggregator.FullRecord(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, record)
}

// Stats returns the study-wide dashboard summary.
// GET /admin/api/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.aggregator.Stats(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, stats)
}

// Export serves CSV. Without a table parameter the full denormalized
// dataset is exported; with one, just that table. The CSV is assembled
// before any headers go out so a store failure still gets a proper
// error status instead of a truncated 200.
// GET /admin/api/export[?table=participants|conversations|questionnaires]
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	table := r.URL.Query().Get("table")
	name := "study_export"
	if table != "" {
		name = table
	}

	var buf bytes.Buffer
	var err error
	if table == "" {
		err = h.aggregator.ExportAll(r.Context(), &buf)
	} else {
		err = h.aggregator.ExportTable(r.Context(), &buf, table)
	}
	if err != nil {
		h.logger.Error("csv export failed", "table", table, "error", err)
		handleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".csv"))
	w.Write(buf.Bytes())
}

type sweepRequest struct {
	OlderThan string `json:"older_than"`
}

type sweepResponse struct {
	Abandoned int64 `json:"abandoned"`
}

// Sweep marks stale active sessions abandoned. The staleness window defaults
// to the configured one and can be overridden per request.
// POST /admin/api/sweep
func (h *AdminHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	olderThan := h.abandonAfter

	var req sweepRequest
	if r.ContentLength != 0 {
		if err := httputil.ParseJSON(w, r, &req); err != nil {
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.OlderThan != "" {
			d, err := time.ParseDuration(req.OlderThan)
			if err != nil || d <= 0 {
				httputil.RespondError(w, http.StatusBadRequest, "older_than must be a positive duration")
				return
			}
			olderThan = d
		}
	}

	n, err := h.study.SweepAbandoned(r.Context(), olderThan)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, sweepResponse{Abandoned: n})
}
