package products

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bengkel-erp/bengkel-erp/internal/platform/httpx"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/create", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{Search: q.Get("search"), Type: q.Get("type")}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	if raw := q.Get("supplier_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "INVALID_ID", "supplier_id must be a UUID")
			return
		}
		filter.SupplierID = &id
	}
	if raw := q.Get("is_consignment"); raw != "" {
		v := raw == "true" || raw == "1"
		filter.IsConsignment = &v
	}
	out, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": out})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "INVALID_ID", "product id must be a UUID")
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("get product", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

type productRequest struct {
	Name                  string          `json:"name" validate:"required"`
	Type                  string          `json:"type"`
	Price                 decimal.Decimal `json:"price"`
	Cost                  decimal.Decimal `json:"cost"`
	MinStock              decimal.Decimal `json:"min_stock"`
	BrandID               *uuid.UUID      `json:"brand_id"`
	SatuanID              *uuid.UUID      `json:"satuan_id"`
	CategoryID            *uuid.UUID      `json:"category_id"`
	SupplierID            *uuid.UUID      `json:"supplier_id"`
	IsConsignment         bool            `json:"is_consignment"`
	ConsignmentCommission decimal.Decimal `json:"consignment_commission"`
	IsInternalConsumption bool            `json:"is_internal_consumption"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Create(r.Context(), CreateInput{
		Name:                  req.Name,
		Type:                  req.Type,
		Price:                 req.Price,
		Cost:                  req.Cost,
		MinStock:              req.MinStock,
		BrandID:               req.BrandID,
		SatuanID:              req.SatuanID,
		CategoryID:            req.CategoryID,
		SupplierID:            req.SupplierID,
		IsConsignment:         req.IsConsignment,
		ConsignmentCommission: req.ConsignmentCommission,
		IsInternalConsumption: req.IsInternalConsumption,
	})
	if err != nil {
		h.logger.Error("create product", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "INVALID_ID", "product id must be a UUID")
		return
	}
	var req productRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Update(r.Context(), id, UpdateInput{
		Name:                  req.Name,
		Type:                  req.Type,
		Price:                 req.Price,
		MinStock:              req.MinStock,
		BrandID:               req.BrandID,
		SatuanID:              req.SatuanID,
		CategoryID:            req.CategoryID,
		SupplierID:            req.SupplierID,
		IsConsignment:         req.IsConsignment,
		ConsignmentCommission: req.ConsignmentCommission,
		IsInternalConsumption: req.IsInternalConsumption,
	})
	if err != nil {
		h.logger.Error("update product", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "INVALID_ID", "product id must be a UUID")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete product", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
