package inventory

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bengkel-erp/bengkel-erp/internal/platform/httpx"
	"github.com/bengkel-erp/bengkel-erp/internal/shared"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/stock", h.Stock)
	r.Get("/stock/below-minimum", h.BelowMinimum)
	r.Get("/history", h.History)
	r.Get("/cost-history/{productID}", h.CostHistory)
	r.Post("/adjustment", h.Adjust)
}

func (h *Handler) Stock(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Stock(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.logger.Error("list stock", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"stock": rows})
}

func (h *Handler) BelowMinimum(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.BelowMinimum(r.Context())
	if err != nil {
		h.logger.Error("list below minimum", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"stock": rows})
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	var filter HistoryFilter
	q := r.URL.Query()
	if raw := q.Get("product_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "INVALID_ID", "product_id must be a UUID")
			return
		}
		filter.ProductID = id
	}
	for _, p := range []struct {
		key string
		dst *time.Time
	}{{"start_date", &filter.Start}, {"end_date", &filter.End}} {
		if raw := q.Get(p.key); raw != "" {
			t, err := time.Parse("2006-01-02", raw)
			if err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "INVALID_DATE", p.key+" must be YYYY-MM-DD")
				return
			}
			*p.dst = t
		}
	}
	if raw := q.Get("limit"); raw != "" {
		filter.Limit, _ = strconv.Atoi(raw)
	}
	movements, err := h.service.History(r.Context(), filter)
	if err != nil {
		h.logger.Error("list history", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"history": movements})
}

func (h *Handler) CostHistory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "INVALID_ID", "product id must be a UUID")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	changes, err := h.service.CostHistory(r.Context(), id, limit)
	if err != nil {
		h.logger.Error("list cost history", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"history": changes})
}

type adjustRequest struct {
	ProductID     string          `json:"product_id" validate:"required,uuid"`
	Qty           decimal.Decimal `json:"quantity" validate:"required"`
	Notes         string          `json:"notes"`
	AllowNegative bool            `json:"allow_negative"`
}

func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "INVALID_ID", "product_id must be a UUID")
		return
	}
	movement, err := h.service.Adjust(r.Context(), MovementInput{
		ProductID:     productID,
		Qty:           req.Qty,
		Kind:          MovementAdjustment,
		Notes:         req.Notes,
		Actor:         shared.ActorFromContext(r.Context()),
		AllowNegative: req.AllowNegative,
	})
	if err != nil {
		h.logger.Error("adjust stock", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, movement)
}
