package reports

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

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
	r.Post("/cash-book", h.CashBook)
	r.Post("/expenses", h.Expenses)
	r.Post("/profit-loss", h.ProfitLoss)
	r.Post("/cash-flow", h.CashFlow)
	r.Post("/receivable-payable", h.ReceivablePayable)
	r.Post("/consignment-payable", h.ConsignmentPayable)
	r.Post("/product-sales", h.ProductSales)
	r.Post("/service-sales", h.ServiceSales)
	r.Post("/product-moves", h.ProductMoves)
	r.Post("/daily", h.Daily)
}

type reportRequest struct {
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	AccountCode string `json:"account_code"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	ProductID   string `json:"product_id"`
	ServiceID   string `json:"service_id"`
	CustomerID  string `json:"customer_id"`
	Date        string `json:"date"`
}

func (r reportRequest) window() (Window, error) {
	var w Window
	var err error
	if w.Start, err = parseDate(r.StartDate); err != nil {
		return Window{}, err
	}
	if w.End, err = parseDate(r.EndDate); err != nil {
		return Window{}, err
	}
	return w, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}

func parseOptionalID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// decode reads the request body and resolves the window, reporting
// validation problems itself. The bool result signals success.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, req *reportRequest) (Window, bool) {
	if err := httpx.DecodeValid(r, req); err != nil {
		httpx.RespondError(w, err)
		return Window{}, false
	}
	window, err := req.window()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "INVALID_DATE", "dates must be YYYY-MM-DD")
		return Window{}, false
	}
	return window, true
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, name string, payload any, err error) {
	if err != nil {
		h.logger.Error(name, slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payload)
}

func (h *Handler) CashBook(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	window, ok := h.decode(w, r, &req)
	if !ok {
		return
	}
	report, err := h.service.CashBook(r.Context(), window, req.AccountCode)
	h.respond(w, r, "cash book report", report, err)
}

func (h *Handler) Expenses(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	window, ok := h.decode(w, r, &req)
	if !ok {
		return
	}
	report, err := h.service.ExpenseReport(r.Context(), window, req.Type, req.Status)
	h.respond(w, r, "expense report", report, err)
}

func (h *Handler) ProfitLoss(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	window, ok := h.decode(w, r, &req)
	if !ok {
		return
	}
	report, err := h.service.ProfitLoss(r.Context(), window)
	h.respond(w, r, "profit loss report", report, err)
}

func (h *Handler) CashFlow(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	window, ok := h.decode(w, r, &req)
	if !ok {
		return
	}
	report, err := h.service.CashReport(r.Context(), window)
	h.respond(w, r, "cash flow report", report, err)
}

func (h *Handler) ReceivablePayable(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	window, ok := h.decode(w, r, &req)
	if !ok {
		return
	}
	report, err := h.service.ReceivablePayable(r.Context(), window)
	h.respond(w, r, "receivable payable report", report, err)
}

func (h *Handler) ConsignmentPayable(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	window, ok := h.decode(w, r, &req)
	if !ok {
		return
	}
	report, err := h.service.ConsignmentPayable(r.Context(), window)
	h.respond(w, r, "consignment payable report", report, err)
}

func (h *Handler) ProductSales(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	window, ok := h.decode(w, r, &req)
	if !ok {
		return
	}
	productID, err := parseOptionalID(req.ProductID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "INVALID_ID", "product_id must be a UUID")
		return
	}
	customerID, err := parseOptionalID(req.CustomerID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "INVALID_ID", "customer_id must be a UUID")
		return
	}
	report, err := h.service.ProductSales(r.Context(), window, productID, customerID)
	h.respond(w, r, "product sales report", report, err)
}

func (h *Handler) ServiceSales(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	window, ok := h.decode(w, r, &req)
	if !ok {
		return
	}
	serviceID, err := parseOptionalID(req.ServiceID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "INVALID_ID", "service_id must be a UUID")
		return
	}
	customerID, err := parseOptionalID(req.CustomerID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "INVALID_ID", "customer_id must be a UUID")
		return
	}
	report, err := h.service.ServiceSales(r.Context(), window, serviceID, customerID)
	h.respond(w, r, "service sales report", report, err)
}

func (h *Handler) ProductMoves(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	window, ok := h.decode(w, r, &req)
	if !ok {
		return
	}
	productID, err := parseOptionalID(req.ProductID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "INVALID_ID", "product_id must be a UUID")
		return
	}
	moves, err := h.service.ProductMoves(r.Context(), window, productID)
	h.respond(w, r, "product move report", map[string]any{"moves": moves}, err)
}

func (h *Handler) Daily(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if _, ok := h.decode(w, r, &req); !ok {
		return
	}
	day, err := parseDate(req.Date)
	if err != nil || day.IsZero() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "INVALID_DATE", "date must be YYYY-MM-DD")
		return
	}
	report, err := h.service.Daily(r.Context(), day)
	h.respond(w, r, "daily report", report, err)
}
