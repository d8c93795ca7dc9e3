package service

import (
	"context"
	"io"
	"sort"

	"github.com/RainierLopez/pos-3l-variety-store-90/internal/dto"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/infra"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/model"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/repository"

	"github.com/shopspring/decimal"
)

const topProductsLimit = 10

// ReportService aggregates completed sales.
type ReportService interface {
	SalesSummary(ctx context.Context, filter dto.ReportFilter) (*dto.SalesSummary, error)
	ExportSalesXLSX(ctx context.Context, filter dto.ReportFilter, w io.Writer) error
}

type reportService struct {
	repo repository.TransactionRepository
}

func NewReportService(repo repository.TransactionRepository) ReportService {
	return &reportService{repo: repo}
}

func (s *reportService) SalesSummary(ctx context.Context, filter dto.ReportFilter) (*dto.SalesSummary, error) {
	summary, _, err := s.load(ctx, filter)
	return summary, err
}

func (s *reportService) ExportSalesXLSX(ctx context.Context, filter dto.ReportFilter, w io.Writer) error {
	summary, txs, err := s.load(ctx, filter)
	if err != nil {
		return err
	}
	return infra.WriteSalesReportXLSX(w, summary, txs)
}

func (s *reportService) load(ctx context.Context, filter dto.ReportFilter) (*dto.SalesSummary, []model.Transaction, error) {
	from, to, err := parseDateRange(filter.From, filter.To)
	if err != nil {
		return nil, nil, err
	}
	txs, err := s.repo.ListForReport(ctx, repository.TransactionQuery{
		Status: model.StatusCompleted,
		From:   from,
		To:     to,
	})
	if err != nil {
		return nil, nil, err
	}
	summary := summarize(txs)
	summary.From = from.Format("2006-01-02")
	summary.To = to.AddDate(0, 0, -1).Format("2006-01-02")
	return summary, txs, nil
}

// summarize folds completed transactions into totals, a per-method breakdown
// and the top products by sales. Items of deleted products are grouped by
// their recorded name.
func summarize(txs []model.Transaction) *dto.SalesSummary {
	out := &dto.SalesSummary{
		Total:             decimal.Zero,
		ByPaymentMethod:   make(map[string]dto.PaymentMethodTotal),
		TopProducts:       []dto.TopProduct{},
		AverageTicketSize: decimal.Zero,
	}

	// every method is listed, with zeros when it has no sales
	for _, m := range model.PaymentMethods {
		out.ByPaymentMethod[m] = dto.PaymentMethodTotal{Total: decimal.Zero}
	}

	type acc struct {
		productID *string
		name      string
		qty       int
		sales     decimal.Decimal
	}
	products := make(map[string]*acc)

	for _, t := range txs {
		out.Total = out.Total.Add(t.Total)
		out.TransactionCount++

		pm := out.ByPaymentMethod[t.PaymentMethod]
		pm.Count++
		pm.Total = pm.Total.Add(t.Total)
		out.ByPaymentMethod[t.PaymentMethod] = pm

		for _, it := range t.Items {
			key := "name:" + it.Name
			var pid *string
			if it.ProductID != nil {
				id := it.ProductID.String()
				key, pid = "id:"+id, &id
			}
			a, ok := products[key]
			if !ok {
				a = &acc{productID: pid, name: it.Name, sales: decimal.Zero}
				products[key] = a
			}
			a.qty += it.Quantity
			a.sales = a.sales.Add(it.Subtotal())
		}
	}

	if out.TransactionCount > 0 {
		out.AverageTicketSize = out.Total.Div(decimal.NewFromInt(int64(out.TransactionCount))).Round(2)
	}

	for _, a := range products {
		out.TopProducts = append(out.TopProducts, dto.TopProduct{
			ProductID: a.productID, Name: a.name, Quantity: a.qty, Sales: a.sales,
		})
	}
	sort.Slice(out.TopProducts, func(i, j int) bool {
		pi, pj := out.TopProducts[i], out.TopProducts[j]
		if !pi.Sales.Equal(pj.Sales) {
			return pi.Sales.GreaterThan(pj.Sales)
		}
		return pi.Name < pj.Name
	})
	if len(out.TopProducts) > topProductsLimit {
		out.TopProducts = out.TopProducts[:topProductsLimit]
	}
	return out
}
