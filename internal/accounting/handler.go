package accounting

import (
	"context"
	"log/slog"
	"net/http"
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
	r.Post("/purchase", h.Purchase)
	r.Post("/sale", h.Sale)
	r.Post("/payment-ar", h.PaymentAR)
	r.Post("/payment-ap", h.PaymentAP)
	r.Post("/expense", h.Expense)
	r.Post("/consignment-payment", h.ConsignmentPayment)
	r.Post("/cash-in", h.CashIn)
	r.Post("/cash-out", h.CashOut)
	r.Post("/stock-loss", h.StockLoss)
}

// parseDate accepts ISO calendar dates; empty means "today" downstream.
func parseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func parseOptionalID(raw string) (*uuid.UUID, bool) {
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, false
	}
	return &id, true
}

func invalidField(w http.ResponseWriter, field string) {
	httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "INVALID_PAYLOAD", field+" is invalid")
}

type purchaseRequest struct {
	SupplierID    string          `json:"supplier_id"`
	PurchaseID    string          `json:"purchase_id"`
	Date          string          `json:"date"`
	Memo          string          `json:"memo"`
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	VAT           decimal.Decimal `json:"vat"`
	CashCode      string          `json:"cash_code"`
	InventoryCode string          `json:"inventory_code"`
	VATCode       string          `json:"vat_code"`
	PayableCode   string          `json:"payable_code"`
}

func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	date, ok := parseDate(req.Date)
	if !ok {
		invalidField(w, "date")
		return
	}
	supplierID, ok := parseOptionalID(req.SupplierID)
	if !ok {
		invalidField(w, "supplier_id")
		return
	}
	purchaseID, ok := parseOptionalID(req.PurchaseID)
	if !ok {
		invalidField(w, "purchase_id")
		return
	}
	entry, err := h.service.RecordPurchase(r.Context(), PurchaseInput{
		SupplierID:    supplierID,
		PurchaseID:    purchaseID,
		Date:          date,
		Memo:          req.Memo,
		Amount:        req.Amount,
		VAT:           req.VAT,
		CashCode:      req.CashCode,
		InventoryCode: req.InventoryCode,
		VATCode:       req.VATCode,
		PayableCode:   req.PayableCode,
	})
	if err != nil {
		h.logger.Error("record purchase", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

type saleRequest struct {
	CustomerID     string          `json:"customer_id"`
	WorkorderID    string          `json:"workorder_id"`
	Date           string          `json:"date"`
	Memo           string          `json:"memo"`
	Amount         decimal.Decimal `json:"amount" validate:"required"`
	VAT            decimal.Decimal `json:"vat"`
	COGS           decimal.Decimal `json:"cogs"`
	CashCode       string          `json:"cash_code"`
	SalesCode      string          `json:"sales_code"`
	ReceivableCode string          `json:"receivable_code"`
	OutputVATCode  string          `json:"output_vat_code"`
	COGSCode       string          `json:"cogs_code"`
	InventoryCode  string          `json:"inventory_code"`
}

func (h *Handler) Sale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	date, ok := parseDate(req.Date)
	if !ok {
		invalidField(w, "date")
		return
	}
	customerID, ok := parseOptionalID(req.CustomerID)
	if !ok {
		invalidField(w, "customer_id")
		return
	}
	workorderID, ok := parseOptionalID(req.WorkorderID)
	if !ok {
		invalidField(w, "workorder_id")
		return
	}
	result, err := h.service.RecordSale(r.Context(), SaleInput{
		CustomerID:     customerID,
		WorkorderID:    workorderID,
		Date:           date,
		Memo:           req.Memo,
		Amount:         req.Amount,
		VAT:            req.VAT,
		COGS:           req.COGS,
		CashCode:       req.CashCode,
		SalesCode:      req.SalesCode,
		ReceivableCode: req.ReceivableCode,
		OutputVATCode:  req.OutputVATCode,
		COGSCode:       req.COGSCode,
		InventoryCode:  req.InventoryCode,
	})
	if err != nil {
		h.logger.Error("record sale", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

type settlementRequest struct {
	CustomerID   string          `json:"customer_id"`
	SupplierID   string          `json:"supplier_id"`
	WorkorderID  string          `json:"workorder_id"`
	PurchaseID   string          `json:"purchase_id"`
	Date         string          `json:"date"`
	Memo         string          `json:"memo"`
	Amount       decimal.Decimal `json:"amount" validate:"required"`
	Discount     decimal.Decimal `json:"discount"`
	CashCode     string          `json:"cash_code"`
	DiscountCode string          `json:"discount_code"`
}

func (h *Handler) PaymentAR(w http.ResponseWriter, r *http.Request) {
	var req settlementRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	date, ok := parseDate(req.Date)
	if !ok {
		invalidField(w, "date")
		return
	}
	customerID, ok := parseOptionalID(req.CustomerID)
	if !ok {
		invalidField(w, "customer_id")
		return
	}
	workorderID, ok := parseOptionalID(req.WorkorderID)
	if !ok {
		invalidField(w, "workorder_id")
		return
	}
	entry, err := h.service.ReceiveAR(r.Context(), ARReceiptInput{
		CustomerID:   customerID,
		WorkorderID:  workorderID,
		Date:         date,
		Memo:         req.Memo,
		Amount:       req.Amount,
		Discount:     req.Discount,
		CashCode:     req.CashCode,
		DiscountCode: req.DiscountCode,
	})
	if err != nil {
		h.logger.Error("receive ar", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) PaymentAP(w http.ResponseWriter, r *http.Request) {
	var req settlementRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	date, ok := parseDate(req.Date)
	if !ok {
		invalidField(w, "date")
		return
	}
	supplierID, ok := parseOptionalID(req.SupplierID)
	if !ok {
		invalidField(w, "supplier_id")
		return
	}
	purchaseID, ok := parseOptionalID(req.PurchaseID)
	if !ok {
		invalidField(w, "purchase_id")
		return
	}
	entry, err := h.service.PayAP(r.Context(), APPaymentInput{
		SupplierID:   supplierID,
		PurchaseID:   purchaseID,
		Date:         date,
		Memo:         req.Memo,
		Amount:       req.Amount,
		Discount:     req.Discount,
		CashCode:     req.CashCode,
		DiscountCode: req.DiscountCode,
	})
	if err != nil {
		h.logger.Error("pay ap", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

type expenseRequest struct {
	ExpenseID   string          `json:"expense_id"`
	Date        string          `json:"date"`
	Memo        string          `json:"memo"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	VAT         decimal.Decimal `json:"vat"`
	ExpenseCode string          `json:"expense_code" validate:"required"`
	CashCode    string          `json:"cash_code"`
	VATCode     string          `json:"vat_code"`
	PayableCode string          `json:"payable_code"`
}

func (h *Handler) Expense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	date, ok := parseDate(req.Date)
	if !ok {
		invalidField(w, "date")
		return
	}
	expenseID, ok := parseOptionalID(req.ExpenseID)
	if !ok {
		invalidField(w, "expense_id")
		return
	}
	entry, err := h.service.RecordExpense(r.Context(), ExpenseInput{
		ExpenseID:   expenseID,
		Date:        date,
		Memo:        req.Memo,
		Amount:      req.Amount,
		VAT:         req.VAT,
		ExpenseCode: req.ExpenseCode,
		CashCode:    req.CashCode,
		VATCode:     req.VATCode,
		PayableCode: req.PayableCode,
	})
	if err != nil {
		h.logger.Error("record expense", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) ConsignmentPayment(w http.ResponseWriter, r *http.Request) {
	var req settlementRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	date, ok := parseDate(req.Date)
	if !ok {
		invalidField(w, "date")
		return
	}
	supplierID, ok := parseOptionalID(req.SupplierID)
	if !ok {
		invalidField(w, "supplier_id")
		return
	}
	entry, err := h.service.ConsignmentPayment(r.Context(), ConsignmentPaymentInput{
		SupplierID:   supplierID,
		Date:         date,
		Memo:         req.Memo,
		Amount:       req.Amount,
		Discount:     req.Discount,
		CashCode:     req.CashCode,
		DiscountCode: req.DiscountCode,
	})
	if err != nil {
		h.logger.Error("consignment payment", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

type cashRequest struct {
	Date        string          `json:"date"`
	Memo        string          `json:"memo"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	CashCode    string          `json:"cash_code"`
	CounterCode string          `json:"counter_code" validate:"required"`
}

func (h *Handler) CashIn(w http.ResponseWriter, r *http.Request) {
	h.cash(w, r, h.service.CashIn)
}

func (h *Handler) CashOut(w http.ResponseWriter, r *http.Request) {
	h.cash(w, r, h.service.CashOut)
}

func (h *Handler) cash(w http.ResponseWriter, r *http.Request, post func(ctx context.Context, in CashMovementInput) (Entry, error)) {
	var req cashRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	date, ok := parseDate(req.Date)
	if !ok {
		invalidField(w, "date")
		return
	}
	entry, err := post(r.Context(), CashMovementInput{
		Date:        date,
		Memo:        req.Memo,
		Amount:      req.Amount,
		CashCode:    req.CashCode,
		CounterCode: req.CounterCode,
	})
	if err != nil {
		h.logger.Error("cash movement", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

type lossRequest struct {
	ProductID     string          `json:"product_id" validate:"required,uuid"`
	Date          string          `json:"date"`
	Memo          string          `json:"memo"`
	Qty           decimal.Decimal `json:"quantity" validate:"required"`
	LossCode      string          `json:"loss_code"`
	InventoryCode string          `json:"inventory_code"`
}

func (h *Handler) StockLoss(w http.ResponseWriter, r *http.Request) {
	var req lossRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	date, ok := parseDate(req.Date)
	if !ok {
		invalidField(w, "date")
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		invalidField(w, "product_id")
		return
	}
	entry, err := h.service.RecordLoss(r.Context(), LossInput{
		ProductID:     productID,
		Date:          date,
		Memo:          req.Memo,
		Actor:         shared.ActorFromContext(r.Context()),
		Qty:           req.Qty,
		LossCode:      req.LossCode,
		InventoryCode: req.InventoryCode,
	})
	if err != nil {
		h.logger.Error("record loss", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}
