package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CardDetailsRequest is checked by the service (invalid_card_details).
type CardDetailsRequest struct {
	Number string `json:"number"`
	Expiry string `json:"expiry"`
}

// CommitTransactionRequest turns the caller's cart into a transaction.
// PaymentMethod is checked by the service, after the empty-cart check, so a
// missing or unknown value surfaces as invalid_payment_method.
type CommitTransactionRequest struct {
	PaymentMethod   string              `json:"payment_method"`
	CustomerContact *string             `json:"customer_contact" validate:"omitempty,max=100"`
	Card            *CardDetailsRequest `json:"card"`
}

type SetStatusRequest struct {
	Status string `json:"status"`
}

// ─── Filter / List ──────────────────────────────────────────────────────────

// TransactionFilter is bound from query string of GET /v1/transactions.
// From/To are YYYY-MM-DD, inclusive; empty means the last 30 days.
type TransactionFilter struct {
	Status        string `form:"status"`         // pending | completed | cancelled | all
	PaymentMethod string `form:"payment_method"` // cash | card | wallet | all
	From          string `form:"from"`
	To            string `form:"to"`
	CashierID     string `form:"cashier_id"`
	Page          int    `form:"page,default=1"   validate:"min=1"`
	Limit         int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type TransactionItemResponse struct {
	ProductID *string         `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Barcode   string          `json:"barcode"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type CardDetailResponse struct {
	Last4  string `json:"last4"`
	Expiry string `json:"expiry"`
}

type WalletReceiptResponse struct {
	ContentType string `json:"content_type"`
	UploadedAt  string `json:"uploaded_at"`
}

type TransactionResponse struct {
	ID              string                    `json:"id"`
	CashierID       *string                   `json:"cashier_id"`
	CashierName     string                    `json:"cashier_name,omitempty"`
	Timestamp       string                    `json:"timestamp"`
	Total           decimal.Decimal           `json:"total"`
	PaymentMethod   string                    `json:"payment_method"`
	Status          string                    `json:"status"`
	CustomerContact *string                   `json:"customer_contact"`
	Items           []TransactionItemResponse `json:"items"`
	Card            *CardDetailResponse       `json:"card,omitempty"`
	WalletReceipt   *WalletReceiptResponse    `json:"wallet_receipt,omitempty"`
}

type TransactionListResponse struct {
	Data  []TransactionResponse `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}
