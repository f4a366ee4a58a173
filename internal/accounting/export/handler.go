package export

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bengkel-erp/bengkel-erp/internal/accounting/reports"
	"github.com/bengkel-erp/bengkel-erp/internal/platform/httpx"
)

// Handler serves report downloads.
type Handler struct {
	service *reports.Service
	logger  *slog.Logger
}

func NewHandler(logger *slog.Logger, service *reports.Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/cash-book", h.CashBook)
	r.Post("/profit-loss", h.ProfitLoss)
	r.Post("/product-sales", h.ProductSales)
}

type exportRequest struct {
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	AccountCode string `json:"account_code"`
	Format      string `json:"format"` // csv (default) or xlsx
}

func (r exportRequest) window() (reports.Window, error) {
	parse := func(s string) (time.Time, error) {
		if s == "" {
			return time.Time{}, nil
		}
		return time.Parse("2006-01-02", s)
	}
	var w reports.Window
	var err error
	if w.Start, err = parse(r.StartDate); err != nil {
		return reports.Window{}, err
	}
	w.End, err = parse(r.EndDate)
	return w, err
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, req *exportRequest) (reports.Window, bool) {
	if err := httpx.DecodeValid(r, req); err != nil {
		httpx.RespondError(w, err)
		return reports.Window{}, false
	}
	window, err := req.window()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "INVALID_DATE", "dates must be YYYY-MM-DD")
		return reports.Window{}, false
	}
	return window, true
}

func setDownloadHeaders(w http.ResponseWriter, name, format string) {
	if format == "xlsx" {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.xlsx"`)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.csv"`)
}

func (h *Handler) CashBook(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	window, ok := h.decode(w, r, &req)
	if !ok {
		return
	}
	book, err := h.service.CashBook(r.Context(), window, req.AccountCode)
	if err != nil {
		h.logger.Error("export cash book", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	setDownloadHeaders(w, "cash-book-"+book.AccountCode, req.Format)
	if req.Format == "xlsx" {
		err = WriteCashBookXLSX(w, book)
	} else {
		err = WriteCashBookCSV(w, book)
	}
	if err != nil {
		h.logger.Error("write cash book export", slog.Any("error", err))
	}
}

func (h *Handler) ProfitLoss(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	window, ok := h.decode(w, r, &req)
	if !ok {
		return
	}
	pl, err := h.service.ProfitLoss(r.Context(), window)
	if err != nil {
		h.logger.Error("export profit loss", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	setDownloadHeaders(w, "profit-loss", req.Format)
	if req.Format == "xlsx" {
		err = WriteProfitLossXLSX(w, pl)
	} else {
		err = WriteProfitLossCSV(w, pl)
	}
	if err != nil {
		h.logger.Error("write profit loss export", slog.Any("error", err))
	}
}

func (h *Handler) ProductSales(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	window, ok := h.decode(w, r, &req)
	if !ok {
		return
	}
	report, err := h.service.ProductSales(r.Context(), window, nil, nil)
	if err != nil {
		h.logger.Error("export product sales", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	setDownloadHeaders(w, "product-sales", req.Format)
	if req.Format == "xlsx" {
		err = WriteSalesXLSX(w, report)
	} else {
		err = WriteSalesCSV(w, report)
	}
	if err != nil {
		h.logger.Error("write product sales export", slog.Any("error", err))
	}
}
