package report

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/klokku/revenue/internal/csvtable"
	"github.com/klokku/revenue/internal/rest"
	"github.com/klokku/revenue/pkg/attendance"
	"github.com/klokku/revenue/pkg/period"
	log "github.com/sirupsen/logrus"
)

type ReportDTO struct {
	Run  Run      `json:"run"`
	Rows []Record `json:"rows"`
}

type Handler struct {
	service Service
	emitter *Emitter
}

func NewHandler(service Service, emitter *Emitter) *Handler {
	return &Handler{service: service, emitter: emitter}
}

// Generate runs the report of the month in the path and returns its Summary.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	month, ok := monthFromPath(w, r)
	if !ok {
		return
	}

	summary, err := h.service.Generate(r.Context(), month)
	if err != nil {
		log.Errorf("Report run for %s failed: %v", month, err)
		rest.WriteError(w, generateStatus(err), "Report run failed", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(summary); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Get returns the stored report of the month in the path, as CSV when the client asks
// for text/csv.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	month, ok := monthFromPath(w, r)
	if !ok {
		return
	}

	run, records, err := h.service.Report(r.Context(), month)
	if err != nil {
		switch {
		case errors.Is(err, ErrRunNotFound):
			rest.WriteError(w, http.StatusNotFound, "Report not found", err.Error())
		case errors.Is(err, ErrStoreDisabled):
			rest.WriteError(w, http.StatusServiceUnavailable, "Report store disabled", err.Error())
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	if r.Header.Get("Accept") == "text/csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		if err := h.emitter.Write(w, records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ReportDTO{Run: run, Rows: records}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func monthFromPath(w http.ResponseWriter, r *http.Request) (period.Month, bool) {
	month, err := period.ParseMonth(mux.Vars(r)["month"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid month", "month must be in YYYY-MM format")
		return period.Month{}, false
	}
	return month, true
}

// generateStatus maps input problems to 422 and everything else to 500.
func generateStatus(err error) int {
	var missing *csvtable.MissingColumnsError
	switch {
	case errors.As(err, &missing),
		errors.Is(err, attendance.ErrLedgerNotFound),
		errors.Is(err, attendance.ErrEmptyLedger),
		errors.Is(err, attendance.ErrCorruptDate):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
