package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	Name     string          `json:"name"     validate:"required,min=1,max=100"`
	Category string          `json:"category" validate:"required,oneof=meat vegetable"`
	Price    decimal.Decimal `json:"price"    validate:"required,gt=0"`
	Barcode  string          `json:"barcode"  validate:"required,min=1,max=20"`
	Stock    int             `json:"stock"    validate:"min=0"`
	Image    string          `json:"image"    validate:"omitempty,url,max=500"`
}

// UpdateProductRequest only touches the fields that are present.
// Stock is changed through AdjustStockRequest so every change is audited.
type UpdateProductRequest struct {
	Name     *string          `json:"name"     validate:"omitempty,min=1,max=100"`
	Category *string          `json:"category" validate:"omitempty,oneof=meat vegetable"`
	Price    *decimal.Decimal `json:"price"`
	Barcode  *string          `json:"barcode"  validate:"omitempty,min=1,max=20"`
	Image    *string          `json:"image"    validate:"omitempty,max=500"`
}

// AdjustStockRequest applies a signed delta to stock. The result may not go
// below zero.
type AdjustStockRequest struct {
	Delta  int    `json:"delta"  validate:"required"`
	Reason string `json:"reason" validate:"omitempty,max=255"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductFilter struct {
	Barcode  string `form:"barcode"`
	Name     string `form:"name"`
	Category string `form:"category"`
	InStock  bool   `form:"in_stock"`
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=50" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Barcode  string          `json:"barcode"`
	Image    string          `json:"image"`
	Stock    int             `json:"stock"`
}

type ProductListResponse struct {
	Data       []ProductResponse `json:"data"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

// PriceCheckResponse is returned by the public price check endpoint (no auth required).
type PriceCheckResponse struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Category string          `json:"category"`
}

type StockMovementResponse struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Delta       int     `json:"delta"`
	StockBefore int     `json:"stock_before"`
	StockAfter  int     `json:"stock_after"`
	Reason      string  `json:"reason"`
	ReferenceID *string `json:"reference_id"`
	CreatedAt   string  `json:"created_at"`
}

type PriceHistoryResponse struct {
	OldPrice  decimal.Decimal `json:"old_price"`
	NewPrice  decimal.Decimal `json:"new_price"`
	ChangedBy *string         `json:"changed_by"`
	CreatedAt string          `json:"created_at"`
}
