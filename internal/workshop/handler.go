package workshop

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
	r.Post("/{id}/settle", h.Settle)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var filter ListFilter
	q := r.URL.Query()
	if raw := q.Get("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "INVALID_ID", "customer_id must be a UUID")
			return
		}
		filter.CustomerID = id
	}
	filter.Status = q.Get("status")
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
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	workorders, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list workorders", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"workorders": workorders})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "INVALID_ID", "workorder id must be a UUID")
		return
	}
	wo, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("get workorder", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, wo)
}

type productLineRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Qty       decimal.Decimal `json:"qty" validate:"required"`
	Price     decimal.Decimal `json:"price" validate:"required"`
	Discount  decimal.Decimal `json:"discount"`
}

type serviceLineRequest struct {
	ServiceID string          `json:"service_id"`
	Name      string          `json:"name" validate:"required"`
	Qty       decimal.Decimal `json:"qty" validate:"required"`
	Price     decimal.Decimal `json:"price" validate:"required"`
	Discount  decimal.Decimal `json:"discount"`
}

type createRequest struct {
	NoWO       string               `json:"no_wo"`
	DateIn     string               `json:"date_in"`
	CustomerID string               `json:"customer_id" validate:"required,uuid"`
	VehicleNo  string               `json:"vehicle_no"`
	Tax        decimal.Decimal      `json:"tax"`
	Products   []productLineRequest `json:"products" validate:"dive"`
	Services   []serviceLineRequest `json:"services" validate:"dive"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "INVALID_ID", "customer_id must be a UUID")
		return
	}
	var dateIn time.Time
	if req.DateIn != "" {
		if dateIn, err = time.Parse("2006-01-02", req.DateIn); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "INVALID_DATE", "date_in must be YYYY-MM-DD")
			return
		}
	}
	input := CreateInput{
		NoWO:       req.NoWO,
		DateIn:     dateIn,
		CustomerID: customerID,
		VehicleNo:  req.VehicleNo,
		Tax:        req.Tax,
	}
	for _, l := range req.Products {
		productID, err := uuid.Parse(l.ProductID)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "INVALID_ID", "product_id must be a UUID")
			return
		}
		input.Products = append(input.Products, ProductLineInput{
			ProductID: productID, Qty: l.Qty, Price: l.Price, Discount: l.Discount,
		})
	}
	for _, l := range req.Services {
		line := ServiceLineInput{Name: l.Name, Qty: l.Qty, Price: l.Price, Discount: l.Discount}
		if l.ServiceID != "" {
			serviceID, err := uuid.Parse(l.ServiceID)
			if err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "INVALID_ID", "service_id must be a UUID")
				return
			}
			line.ServiceID = &serviceID
		}
		input.Services = append(input.Services, line)
	}
	wo, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.logger.Error("create workorder", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, wo)
}

type settleRequest struct {
	Date     string          `json:"date"`
	CashCode string          `json:"cash_code"`
	Discount decimal.Decimal `json:"discount"`
}

func (h *Handler) Settle(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "INVALID_ID", "workorder id must be a UUID")
		return
	}
	var req settleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var date time.Time
	if req.Date != "" {
		if date, err = time.Parse("2006-01-02", req.Date); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "INVALID_DATE", "date must be YYYY-MM-DD")
			return
		}
	}
	result, err := h.service.Settle(r.Context(), SettleInput{
		WorkorderID: id,
		Date:        date,
		CashCode:    req.CashCode,
		Discount:    req.Discount,
	})
	if err != nil {
		h.logger.Error("settle workorder", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}
