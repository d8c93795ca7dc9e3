package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/RainierLopez/pos-3l-variety-store-90/internal/dto"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func item(pid *uuid.UUID, name, price string, qty int) model.TransactionItem {
	return model.TransactionItem{ProductID: pid, Name: name, Price: dec(price), Quantity: qty}
}

func TestSummarize(t *testing.T) {
	pork := uuid.New()
	beef := uuid.New()
	txs := []model.Transaction{
		{Total: dec("250.00"), PaymentMethod: model.PaymentCash, Items: []model.TransactionItem{
			item(&pork, "Pork", "100.00", 2),
			item(nil, "Old Cabbage", "50.00", 1),
		}},
		{Total: dec("100.00"), PaymentMethod: model.PaymentWallet, Items: []model.TransactionItem{
			item(&beef, "Beef", "100.00", 1),
		}},
		{Total: dec("50.00"), PaymentMethod: model.PaymentCash, Items: []model.TransactionItem{
			item(nil, "Old Cabbage", "50.00", 1),
		}},
	}

	s := summarize(txs)
	assert.True(t, dec("400.00").Equal(s.Total))
	assert.Equal(t, 3, s.TransactionCount)
	assert.True(t, dec("133.33").Equal(s.AverageTicketSize), s.AverageTicketSize.String())

	assert.Equal(t, 2, s.ByPaymentMethod[model.PaymentCash].Count)
	assert.True(t, dec("300.00").Equal(s.ByPaymentMethod[model.PaymentCash].Total))
	assert.Equal(t, 1, s.ByPaymentMethod[model.PaymentWallet].Count)
	assert.Zero(t, s.ByPaymentMethod[model.PaymentCard].Count)

	require.Len(t, s.TopProducts, 3)
	assert.Equal(t, "Pork", s.TopProducts[0].Name)
	assert.True(t, dec("200.00").Equal(s.TopProducts[0].Sales))
	// ties on sales break by name
	assert.Equal(t, "Beef", s.TopProducts[1].Name)
	assert.Equal(t, "Old Cabbage", s.TopProducts[2].Name)
	assert.Equal(t, 2, s.TopProducts[2].Quantity)
	assert.Nil(t, s.TopProducts[2].ProductID)
}

func TestSummarize_Empty(t *testing.T) {
	s := summarize(nil)
	assert.True(t, s.Total.IsZero())
	require.Len(t, s.ByPaymentMethod, 3)
	for _, m := range model.PaymentMethods {
		assert.Zero(t, s.ByPaymentMethod[m].Count, m)
		assert.True(t, s.ByPaymentMethod[m].Total.IsZero(), m)
	}
	assert.True(t, s.AverageTicketSize.IsZero())
	assert.Empty(t, s.TopProducts)
	assert.NotNil(t, s.TopProducts)
}

func TestSummarize_CapsTopProducts(t *testing.T) {
	var items []model.TransactionItem
	for i := 0; i < 15; i++ {
		id := uuid.New()
		items = append(items, item(&id, string(rune('A'+i)), "1.00", i+1))
	}
	s := summarize([]model.Transaction{{Total: dec("120.00"), PaymentMethod: model.PaymentCash, Items: items}})
	require.Len(t, s.TopProducts, topProductsLimit)
	assert.Equal(t, "O", s.TopProducts[0].Name)
}

func TestSalesSummary_CountsCompletedOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cashier := f.user(t, "cashier", model.RoleCashier)
	p := f.product(t, "Chayote", "20.00", 10)

	for _, m := range []string{model.PaymentCash, model.PaymentWallet, model.PaymentCash} {
		_, err := f.cart.Add(ctx, cashier.UserID, p.ID, 1)
		require.NoError(t, err)
		_, err = f.tx.Commit(ctx, cashier, dto.CommitTransactionRequest{PaymentMethod: m})
		require.NoError(t, err)
	}

	s, err := f.reports.SalesSummary(ctx, dto.ReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, s.TransactionCount)
	assert.True(t, dec("40.00").Equal(s.Total))
	require.Contains(t, s.ByPaymentMethod, model.PaymentWallet)
	assert.Zero(t, s.ByPaymentMethod[model.PaymentWallet].Count)
	assert.True(t, s.ByPaymentMethod[model.PaymentWallet].Total.IsZero())

	_, err = f.reports.SalesSummary(ctx, dto.ReportFilter{From: "2024-02-10", To: "2024-02-01"})
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestExportSalesXLSX(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cashier := f.user(t, "cashier", model.RoleCashier)
	p := f.product(t, "Chayote", "20.00", 10)
	_, err := f.cart.Add(ctx, cashier.UserID, p.ID, 2)
	require.NoError(t, err)
	_, err = f.tx.Commit(ctx, cashier, dto.CommitTransactionRequest{PaymentMethod: model.PaymentCash})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.reports.ExportSalesXLSX(ctx, dto.ReportFilter{}, &buf))

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer book.Close()
	assert.Equal(t, []string{"Summary", "Transactions"}, book.GetSheetList())

	rows, err := book.GetRows("Transactions")
	require.NoError(t, err)
	assert.Len(t, rows, 2) // header + one transaction
}
