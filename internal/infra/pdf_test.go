package infra

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/RainierLopez/pos-3l-variety-store-90/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTransaction() *model.Transaction {
	return &model.Transaction{
		ID:            uuid.New(),
		Timestamp:     time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		Total:         decimal.RequireFromString("245.50"),
		PaymentMethod: model.PaymentCard,
		Status:        model.StatusCompleted,
		Cashier:       &model.User{FullName: "Ana Reyes"},
		CardDetail:    &model.CardDetail{Last4: "4242", Expiry: "08/27"},
		Items: []model.TransactionItem{
			{Name: "Pork Belly (per kilo, skin-on, premium)", Quantity: 1, Price: decimal.RequireFromString("220.00")},
			{Name: "Onion", Quantity: 3, Price: decimal.RequireFromString("8.50")},
		},
	}
}

var testLayout = ReceiptLayout{StoreName: "3L Variety Store", CurrencySymbol: "PHP "}

func TestWriteReceiptPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReceiptPDF(&buf, sampleTransaction(), testLayout))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 500)
}

func TestGenerateReceiptPDF(t *testing.T) {
	dir := t.TempDir() + "/nested"
	tx := sampleTransaction()

	path, err := GenerateReceiptPDF(tx, testLayout, dir)
	require.NoError(t, err)
	assert.Contains(t, path, tx.ID.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}
