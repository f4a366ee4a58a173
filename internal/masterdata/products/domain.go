package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bengkel-erp/bengkel-erp/internal/shared"
)

var (
	ErrNotFound     = shared.NewNotFound("PRODUCT_NOT_FOUND", "products: product not found")
	ErrEmptyName    = shared.NewValidation("PRODUCT_EMPTY_NAME", "products: name is required")
	ErrNegativeCost = shared.NewValidation("PRODUCT_NEGATIVE_COST", "products: cost must not be negative")
	ErrInUse        = shared.NewConflict("PRODUCT_IN_USE", "products: product is referenced by other records")
)

// Product is the stock master record. Cost is maintained by the
// inventory ledger; updates here only touch descriptive fields and
// the selling price.
type Product struct {
	ID                    uuid.UUID       `json:"id"`
	Name                  string          `json:"name"`
	Type                  string          `json:"type"`
	Price                 decimal.Decimal `json:"price"`
	Cost                  decimal.Decimal `json:"cost"`
	MinStock              decimal.Decimal `json:"min_stock"`
	BrandID               *uuid.UUID      `json:"brand_id,omitempty"`
	SatuanID              *uuid.UUID      `json:"satuan_id,omitempty"`
	CategoryID            *uuid.UUID      `json:"category_id,omitempty"`
	SupplierID            *uuid.UUID      `json:"supplier_id,omitempty"`
	IsConsignment         bool            `json:"is_consignment"`
	ConsignmentCommission decimal.Decimal `json:"consignment_commission"`
	IsInternalConsumption bool            `json:"is_internal_consumption"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// CreateInput carries the writable product fields. Cost seeds the
// initial unit cost before any receipt recalculates it.
type CreateInput struct {
	Name                  string
	Type                  string
	Price                 decimal.Decimal
	Cost                  decimal.Decimal
	MinStock              decimal.Decimal
	BrandID               *uuid.UUID
	SatuanID              *uuid.UUID
	CategoryID            *uuid.UUID
	SupplierID            *uuid.UUID
	IsConsignment         bool
	ConsignmentCommission decimal.Decimal
	IsInternalConsumption bool
}

// UpdateInput mirrors CreateInput but never touches cost.
type UpdateInput struct {
	Name                  string
	Type                  string
	Price                 decimal.Decimal
	MinStock              decimal.Decimal
	BrandID               *uuid.UUID
	SatuanID              *uuid.UUID
	CategoryID            *uuid.UUID
	SupplierID            *uuid.UUID
	IsConsignment         bool
	ConsignmentCommission decimal.Decimal
	IsInternalConsumption bool
}

// ListFilter narrows the product listing.
type ListFilter struct {
	Search        string
	Type          string
	SupplierID    *uuid.UUID
	IsConsignment *bool
	Limit         int
}
