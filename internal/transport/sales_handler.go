package transport

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"retail-ledger/internal/domain"
	"retail-ledger/internal/middleware"
	"retail-ledger/internal/repository"
	"retail-ledger/internal/service"
)

// CheckoutRequest is the payload of POST /api/sales
type CheckoutRequest struct {
	ID    string             `json:"id" validate:"omitempty,max=64"`
	Items []service.CartLine `json:"items" validate:"required,min=1,dive"`
}

// WeeklyTotalResponse is the revenue of the trailing sales window
type WeeklyTotalResponse struct {
	Total      decimal.Decimal `json:"total"`
	WindowDays int             `json:"windowDays"`
}

// SalesHandler handles HTTP requests for sales
type SalesHandler struct {
	sales    repository.SalesRepository
	checkout *service.CheckoutUseCase
	window   time.Duration
	logger   *zap.Logger
}

func NewSalesHandler(
	sales repository.SalesRepository,
	checkout *service.CheckoutUseCase,
	window time.Duration,
	logger *zap.Logger,
) *SalesHandler {
	if window <= 0 {
		window = repository.DefaultWeeklyWindow
	}
	return &SalesHandler{
		sales:    sales,
		checkout: checkout,
		window:   window,
		logger:   logger,
	}
}

// RegisterRoutes registers all sales routes
func (h *SalesHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/sales", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Checkout)
		r.Get("/weekly-total", h.WeeklyTotal)
	})
}

func (h *SalesHandler) List(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.sales.List(r.Context()))
}

// Checkout prices the cart, records the sale and decrements stock
func (h *SalesHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Checkout validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	sale, err := h.checkout.Execute(r.Context(), req.ID, req.Items)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInsufficientStock):
			middleware.RespondWithError(w, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrProductNotFound):
			middleware.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, service.ErrEmptyCart), errors.Is(err, domain.ErrInvalidItemQuantity):
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrPartialSale):
			h.logger.Error("Sale recorded with incomplete stock update",
				zap.String("sale_id", sale.ID),
				zap.Error(err),
			)
			middleware.RespondWithErrorDetails(w, http.StatusInternalServerError,
				"sale recorded but stock update incomplete",
				map[string]interface{}{"sale_id": sale.ID},
			)
		default:
			h.logger.Error("Checkout failed", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to register sale")
		}
		return
	}

	h.logger.Info("Sale registered",
		zap.String("sale_id", sale.ID),
		zap.String("total", sale.Total.StringFixed(2)),
		zap.Int("items", len(sale.Items)),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, sale)
}

func (h *SalesHandler) WeeklyTotal(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, WeeklyTotalResponse{
		Total:      h.sales.GetWeeklyTotal(r.Context()),
		WindowDays: int(h.window / (24 * time.Hour)),
	})
}
