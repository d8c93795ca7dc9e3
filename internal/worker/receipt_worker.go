package worker

// receipt_worker.go
// Renders the PDF receipt of a completed transaction and e-mails it to the
// customer contact captured at commit.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/RainierLopez/pos-3l-variety-store-90/internal/infra"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ReceiptJobPayload is the job envelope sent to QueueReceiptEmail.
type ReceiptJobPayload struct {
	TransactionID string `json:"transaction_id"`
	ToEmail       string `json:"to_email"`
}

// TransactionLoader is the read side the worker needs.
type TransactionLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
}

// ReceiptSender delivers a rendered receipt.
type ReceiptSender interface {
	Enabled() bool
	SendReceipt(to, subject, body, pdfPath string) error
}

// ReceiptWorker processes jobs from QueueReceiptEmail.
type ReceiptWorker struct {
	txs     TransactionLoader
	sender  ReceiptSender
	layout  infra.ReceiptLayout
	pdfPath string
}

func NewReceiptWorker(txs TransactionLoader, sender ReceiptSender, layout infra.ReceiptLayout, pdfPath string) *ReceiptWorker {
	return &ReceiptWorker{txs: txs, sender: sender, layout: layout, pdfPath: pdfPath}
}

// errPermanent marks payloads that can never succeed; they are logged and
// dropped instead of retried.
var errPermanent = errors.New("permanent job failure")

// Process is a HandlerFunc.
func (w *ReceiptWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReceiptJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("receipt_worker: invalid payload")
		return nil
	}
	if payload.ToEmail == "" {
		log.Warn().Str("transaction_id", payload.TransactionID).Msg("receipt_worker: empty to_email, skipping")
		return nil
	}
	if !w.sender.Enabled() {
		log.Debug().Msg("receipt_worker: SMTP not configured, skipping")
		return nil
	}

	err := w.send(ctx, payload)
	if errors.Is(err, errPermanent) {
		log.Error().Err(err).Str("transaction_id", payload.TransactionID).Msg("receipt_worker: dropping job")
		return nil
	}
	return err
}

func (w *ReceiptWorker) send(ctx context.Context, payload ReceiptJobPayload) error {
	id, err := uuid.Parse(payload.TransactionID)
	if err != nil {
		return fmt.Errorf("%w: bad transaction id %q", errPermanent, payload.TransactionID)
	}
	t, err := w.txs.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// jobs are enqueued after the commit, so the row can only be gone
		return fmt.Errorf("%w: transaction %s not found", errPermanent, id)
	}
	if err != nil {
		return fmt.Errorf("load transaction %s: %w", id, err)
	}
	if t.Status != model.StatusCompleted {
		return fmt.Errorf("%w: transaction %s is %s", errPermanent, id, t.Status)
	}

	path, err := infra.GenerateReceiptPDF(t, w.layout, w.pdfPath)
	if err != nil {
		return fmt.Errorf("render receipt: %w", err)
	}
	defer func() { _ = os.Remove(path) }()

	subject := fmt.Sprintf("%s receipt %s", w.layout.StoreName, t.ID.String()[:8])
	body := fmt.Sprintf("Thank you for shopping at %s.\nYour receipt for %s%s is attached.",
		w.layout.StoreName, w.layout.CurrencySymbol, t.Total.StringFixed(2))

	if err := w.sender.SendReceipt(payload.ToEmail, subject, body, path); err != nil {
		return fmt.Errorf("send receipt: %w", err)
	}
	log.Info().Str("to", payload.ToEmail).Str("transaction_id", payload.TransactionID).Msg("receipt_worker: receipt sent")
	return nil
}
