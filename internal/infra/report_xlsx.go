package infra

import (
	"fmt"
	"io"
	"sort"

	"github.com/RainierLopez/pos-3l-variety-store-90/internal/dto"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/model"

	"github.com/xuri/excelize/v2"
)

// WriteSalesReportXLSX renders a two-sheet workbook: the summary (totals,
// payment method breakdown, top products) and one row per transaction.
func WriteSalesReportXLSX(w io.Writer, summary *dto.SalesSummary, txs []model.Transaction) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const summarySheet = "Summary"
	const txSheet = "Transactions"

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("xlsx: rename sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Sales report", summary.From + " to " + summary.To},
		{},
		{"Total sales", summary.Total.StringFixed(2)},
		{"Transactions", summary.TransactionCount},
		{"Average ticket", summary.AverageTicketSize.StringFixed(2)},
		{},
		{"Payment method", "Count", "Total"},
	}

	methods := make([]string, 0, len(summary.ByPaymentMethod))
	for m := range summary.ByPaymentMethod {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	for _, m := range methods {
		pm := summary.ByPaymentMethod[m]
		rows = append(rows, []interface{}{m, pm.Count, pm.Total.StringFixed(2)})
	}

	rows = append(rows, []interface{}{}, []interface{}{"Top products", "Quantity", "Sales"})
	for _, p := range summary.TopProducts {
		rows = append(rows, []interface{}{p.Name, p.Quantity, p.Sales.StringFixed(2)})
	}
	if err := writeRows(f, summarySheet, rows); err != nil {
		return err
	}

	if _, err := f.NewSheet(txSheet); err != nil {
		return fmt.Errorf("xlsx: create sheet: %w", err)
	}
	txRows := [][]interface{}{{"Receipt no.", "Timestamp", "Payment", "Status", "Items", "Total"}}
	for _, t := range txs {
		count := 0
		for _, it := range t.Items {
			count += it.Quantity
		}
		txRows = append(txRows, []interface{}{
			t.ID.String(), t.Timestamp.Format("2006-01-02 15:04:05"),
			t.PaymentMethod, t.Status, count, t.Total.StringFixed(2),
		})
	}
	if err := writeRows(f, txSheet, txRows); err != nil {
		return err
	}

	return f.Write(w)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx: write row %d: %w", i+1, err)
		}
	}
	return nil
}
