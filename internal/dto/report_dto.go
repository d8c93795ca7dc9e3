package dto

import "github.com/shopspring/decimal"

// ReportFilter selects the reporting window, YYYY-MM-DD inclusive.
// Empty values default to the last 30 days.
type ReportFilter struct {
	From string `form:"from"`
	To   string `form:"to"`
}

type PaymentMethodTotal struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type TopProduct struct {
	ProductID *string         `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Sales     decimal.Decimal `json:"sales"`
}

// SalesSummary aggregates completed transactions in a date range.
type SalesSummary struct {
	From              string                        `json:"from"`
	To                string                        `json:"to"`
	Total             decimal.Decimal               `json:"total"`
	TransactionCount  int                           `json:"transaction_count"`
	ByPaymentMethod   map[string]PaymentMethodTotal `json:"by_payment_method"`
	TopProducts       []TopProduct                  `json:"top_products"`
	AverageTicketSize decimal.Decimal               `json:"average_ticket_size"`
}
