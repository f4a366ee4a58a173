package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/bengkel-erp/bengkel-erp/internal/accounting"
	"github.com/bengkel-erp/bengkel-erp/internal/accounting/accounts"
	"github.com/bengkel-erp/bengkel-erp/internal/accounting/export"
	"github.com/bengkel-erp/bengkel-erp/internal/accounting/journals"
	"github.com/bengkel-erp/bengkel-erp/internal/accounting/reports"
	"github.com/bengkel-erp/bengkel-erp/internal/expenses"
	"github.com/bengkel-erp/bengkel-erp/internal/inventory"
	"github.com/bengkel-erp/bengkel-erp/internal/masterdata/customers"
	"github.com/bengkel-erp/bengkel-erp/internal/masterdata/products"
	"github.com/bengkel-erp/bengkel-erp/internal/masterdata/suppliers"
	"github.com/bengkel-erp/bengkel-erp/internal/procurement"
	"github.com/bengkel-erp/bengkel-erp/internal/workshop"
	"github.com/bengkel-erp/bengkel-erp/jobs"
)

// ReportInvalidator bumps the report cache after a write commits.
type ReportInvalidator interface {
	Invalidate(ctx context.Context)
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	AccountingHandler *accounting.Handler
	AccountsHandler   *accounts.Handler
	JournalsHandler   *journals.Handler
	ReportsHandler    *reports.Handler
	ExportHandler     *export.Handler
	InventoryHandler  *inventory.Handler
	PurchaseHandler   *procurement.Handler
	WorkshopHandler   *workshop.Handler
	ExpensesHandler   *expenses.Handler
	ProductsHandler   *products.Handler
	CustomersHandler  *customers.Handler
	SuppliersHandler  *suppliers.Handler
	JobHandler        *jobs.Handler

	// Reports stays fresh: any successful write on a posting route
	// bumps the cache version.
	Reports ReportInvalidator
}

// NewRouter constructs the chi.Router for the API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	bump := invalidateAfterWrite(params.Reports)

	r.Route("/accounting", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(bump)
			params.AccountingHandler.MountRoutes(r)
			if params.AccountsHandler != nil {
				r.Route("/account", params.AccountsHandler.MountRoutes)
			}
			if params.JournalsHandler != nil {
				r.Route("/journals", params.JournalsHandler.MountRoutes)
			}
		})
		// Report queries use POST bodies; they must not bump the cache.
		if params.ReportsHandler != nil {
			r.Route("/reports", params.ReportsHandler.MountRoutes)
		}
		if params.ExportHandler != nil {
			r.Route("/export", params.ExportHandler.MountRoutes)
		}
	})
	r.Group(func(r chi.Router) {
		r.Use(bump)
		r.Route("/inventory", params.InventoryHandler.MountRoutes)
		r.Route("/purchase-orders", params.PurchaseHandler.MountRoutes)
		r.Route("/workorders", params.WorkshopHandler.MountRoutes)
		r.Route("/expenses", params.ExpensesHandler.MountRoutes)
		r.Route("/products", params.ProductsHandler.MountRoutes)
		r.Route("/customers", params.CustomersHandler.MountRoutes)
		r.Route("/suppliers", params.SuppliersHandler.MountRoutes)
	})
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	return r
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(data []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(data)
}

func invalidateAfterWrite(inv ReportInvalidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if inv == nil || r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r)
			if sw.status == 0 || sw.status < http.StatusBadRequest {
				inv.Invalidate(r.Context())
			}
		})
	}
}
