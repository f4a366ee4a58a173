package expenses

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

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
	r.Post("/{id}/pay", h.Pay)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{Status: q.Get("status"), Type: q.Get("type")}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	var err error
	if filter.Start, err = parseDate(q.Get("start_date")); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "INVALID_DATE", "start_date must be YYYY-MM-DD")
		return
	}
	if filter.End, err = parseDate(q.Get("end_date")); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "INVALID_DATE", "end_date must be YYYY-MM-DD")
		return
	}
	out, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list expenses", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"expenses": out})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "INVALID_ID", "expense id must be a UUID")
		return
	}
	e, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("get expense", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

type createRequest struct {
	Name        string          `json:"name" validate:"required"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	VAT         decimal.Decimal `json:"vat"`
	AccountCode string          `json:"account_code"`
	Date        string          `json:"date"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "INVALID_DATE", "date must be YYYY-MM-DD")
		return
	}
	e, err := h.service.Create(r.Context(), CreateInput{
		Name:        req.Name,
		Type:        req.Type,
		Amount:      req.Amount,
		VAT:         req.VAT,
		AccountCode: req.AccountCode,
		Date:        date,
	})
	if err != nil {
		h.logger.Error("create expense", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, e)
}

type payRequest struct {
	CashCode string `json:"cash_code"`
	Date     string `json:"date"`
}

func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "INVALID_ID", "expense id must be a UUID")
		return
	}
	var req payRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "INVALID_DATE", "date must be YYYY-MM-DD")
		return
	}
	result, err := h.service.Pay(r.Context(), PayInput{ExpenseID: id, CashCode: req.CashCode, Date: date})
	if err != nil {
		h.logger.Error("pay expense", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}
