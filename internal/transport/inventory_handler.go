package transport

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"retail-ledger/internal/domain"
	"retail-ledger/internal/middleware"
	"retail-ledger/internal/repository"
	"retail-ledger/internal/service"
)

// ProductRequest is the payload of PUT /api/products/{id}
type ProductRequest struct {
	Name            string          `json:"name" validate:"required,max=120"`
	Unit            string          `json:"unit" validate:"max=16"`
	CurrentQuantity *int            `json:"currentQuantity" validate:"required,gte=0"`
	MinQuantity     *int            `json:"minQuantity" validate:"omitempty,gte=0"`
	Price           decimal.Decimal `json:"price"`
	Active          *bool           `json:"active"`
	Barcode         string          `json:"barcode" validate:"max=64"`
}

// AdjustmentRequest is the payload of POST /api/products/{id}/adjustments
type AdjustmentRequest struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason" validate:"max=200"`
}

// SeedResponse reports whether the seed wrote anything
type SeedResponse struct {
	Seeded   bool             `json:"seeded"`
	Products []domain.Product `json:"products"`
}

// InventoryHandler handles HTTP requests for products and stock
type InventoryHandler struct {
	inventory repository.InventoryRepository
	adjust    *service.AdjustInventoryUseCase
	lowStock  *service.GetLowStockAlertsUseCase
	seed      *service.SeedInventoryUseCase
	logger    *zap.Logger
}

func NewInventoryHandler(
	inventory repository.InventoryRepository,
	adjust *service.AdjustInventoryUseCase,
	lowStock *service.GetLowStockAlertsUseCase,
	seed *service.SeedInventoryUseCase,
	logger *zap.Logger,
) *InventoryHandler {
	return &InventoryHandler{
		inventory: inventory,
		adjust:    adjust,
		lowStock:  lowStock,
		seed:      seed,
		logger:    logger,
	}
}

// RegisterRoutes registers all product routes
func (h *InventoryHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/low-stock", h.LowStock)
		r.Post("/seed", h.Seed)
		r.Get("/barcode/{code}", h.GetByBarcode)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Save)
		r.Post("/{id}/adjustments", h.Adjust)
	})
}

func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.inventory.GetAll(r.Context()))
}

func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, ok := h.inventory.Get(r.Context(), chi.URLParam(r, "id"))
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *InventoryHandler) GetByBarcode(w http.ResponseWriter, r *http.Request) {
	product, ok := h.inventory.FindByBarcode(r.Context(), chi.URLParam(r, "code"))
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, "barcode not found")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Save creates or replaces the product with the id from the path
func (h *InventoryHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	product, err := domain.NewProduct(chi.URLParam(r, "id"), req.Name, req.Unit, *req.CurrentQuantity, req.Price)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.MinQuantity != nil {
		product.MinQuantity = *req.MinQuantity
	}
	if req.Active != nil {
		product.Active = *req.Active
	}
	product.Barcode = strings.TrimSpace(req.Barcode)

	if err := h.inventory.Save(r.Context(), *product); err != nil {
		h.logger.Error("Failed to save product", zap.String("product_id", product.ID), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to save product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Adjust applies a stock correction and returns the updated product
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req AdjustmentRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	if _, ok := h.inventory.Get(r.Context(), id); !ok {
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		return
	}

	if err := h.adjust.Execute(r.Context(), id, req.Delta, req.Reason); err != nil {
		h.logger.Error("Failed to adjust stock", zap.String("product_id", id), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to adjust stock")
		return
	}

	product, _ := h.inventory.Get(r.Context(), id)
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *InventoryHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.lowStock.Execute(r.Context()))
}

// Seed loads the starter catalogue into an empty inventory
func (h *InventoryHandler) Seed(w http.ResponseWriter, r *http.Request) {
	seeded, err := h.seed.Execute(r.Context(), service.DefaultSeed())
	if err != nil {
		var status = http.StatusInternalServerError
		if errors.Is(err, domain.ErrNegativePrice) || errors.Is(err, domain.ErrNegativeQuantity) {
			status = http.StatusBadRequest
		}
		h.logger.Error("Failed to seed inventory", zap.Error(err))
		middleware.RespondWithError(w, status, "failed to seed inventory")
		return
	}

	status := http.StatusOK
	if seeded {
		status = http.StatusCreated
	}
	middleware.RespondWithJSON(w, status, SeedResponse{
		Seeded:   seeded,
		Products: h.inventory.GetAll(r.Context()),
	})
}
