package web

import (
	"net/http"

	"retail-pos/internal/core"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) reportForRequest(w http.ResponseWriter, r *http.Request) (*core.Report, bool) {
	period, err := core.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		writeServiceError(w, r, err)
		return nil, false
	}
	report, err := h.svc.GetReport(r.Context(), period)
	if err != nil {
		writeServiceError(w, r, err)
		return nil, false
	}
	return report, true
}

// comprehensiveReport handles GET /api/reports/comprehensive/{period}.
func (h *Handler) comprehensiveReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.reportForRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// salesReport handles GET /api/reports/sales/{period}.
func (h *Handler) salesReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.reportForRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report.Sales)
}

// inventoryReport handles GET /api/reports/inventory/{period}.
func (h *Handler) inventoryReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.reportForRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report.Inventory)
}

// cashReport handles GET /api/reports/cash/{period}.
func (h *Handler) cashReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.reportForRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report.Cash)
}
