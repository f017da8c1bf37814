package transport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"retail-ledger/internal/domain"
	"retail-ledger/internal/middleware"
	"retail-ledger/internal/service"
)

// ReportHandler serves sales reports
type ReportHandler struct {
	weekly *service.GetWeeklyReportUseCase
	logger *zap.Logger
}

func NewReportHandler(weekly *service.GetWeeklyReportUseCase, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{weekly: weekly, logger: logger}
}

// RegisterRoutes registers all report routes
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/reports", func(r chi.Router) {
		r.Get("/weekly", h.Weekly)
	})
}

// Weekly returns the per-product report. Without query parameters it covers
// the trailing window; from and to (RFC 3339) select an explicit range.
func (h *ReportHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, h.weekly.Execute(r.Context(), rng))
}

type rangeError string

func (e rangeError) Error() string { return string(e) }

func parseRange(r *http.Request) (*domain.ReportRange, error) {
	q := r.URL.Query()
	fromRaw, toRaw := q.Get("from"), q.Get("to")
	if fromRaw == "" && toRaw == "" {
		return nil, nil
	}
	if fromRaw == "" {
		return nil, rangeError("from is required when to is given")
	}

	from, err := time.Parse(time.RFC3339, fromRaw)
	if err != nil {
		return nil, rangeError("from must be an RFC 3339 timestamp")
	}

	rng := &domain.ReportRange{From: from}
	if toRaw != "" {
		to, err := time.Parse(time.RFC3339, toRaw)
		if err != nil {
			return nil, rangeError("to must be an RFC 3339 timestamp")
		}
		if to.Before(from) {
			return nil, rangeError("from must not be after to")
		}
		rng.To = to
	}
	return rng, nil
}
