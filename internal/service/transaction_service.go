package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/RainierLopez/pos-3l-variety-store-90/internal/cart"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/dto"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/infra"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/model"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/repository"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/worker"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// TransactionService turns carts into transactions and drives their status.
type TransactionService interface {
	Commit(ctx context.Context, actor model.Identity, req dto.CommitTransactionRequest) (*dto.TransactionResponse, error)
	AttachWalletReceipt(ctx context.Context, id uuid.UUID, image []byte) (*dto.TransactionResponse, error)
	AttachCardDetail(ctx context.Context, id uuid.UUID, req dto.CardDetailsRequest) (*dto.TransactionResponse, error)
	SetStatus(ctx context.Context, actor model.Identity, id uuid.UUID, status string) (*dto.TransactionResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.TransactionResponse, error)
	List(ctx context.Context, filter dto.TransactionFilter) (*dto.TransactionListResponse, error)
	WriteReceipt(ctx context.Context, id uuid.UUID, w io.Writer) error
}

// ReceiptQueue schedules receipt e-mails. *worker.Dispatcher satisfies it.
type ReceiptQueue interface {
	EnqueueReceipt(ctx context.Context, payload worker.ReceiptJobPayload) error
}

// TransactionOptions carries the tunables of TransactionService.
type TransactionOptions struct {
	MaxReceiptBytes int64
	Layout          infra.ReceiptLayout
	// Prices is told about every barcode whose stock a sale or a
	// cancellation changed. Optional.
	Prices PriceCache
}

type transactionService struct {
	repo      repository.TransactionRepository
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	carts     cart.Store
	receipts  infra.ReceiptStorage
	events    infra.EventPublisher
	queue     ReceiptQueue // optional
	opts      TransactionOptions
}

func NewTransactionService(
	repo repository.TransactionRepository,
	products repository.ProductRepository,
	movements repository.StockMovementRepository,
	carts cart.Store,
	receipts infra.ReceiptStorage,
	events infra.EventPublisher,
	queue ReceiptQueue,
	opts TransactionOptions,
) TransactionService {
	if events == nil {
		events = infra.NoopPublisher{}
	}
	if opts.MaxReceiptBytes <= 0 {
		opts.MaxReceiptBytes = 5 << 20
	}
	return &transactionService{
		repo:      repo,
		products:  products,
		movements: movements,
		carts:     carts,
		receipts:  receipts,
		events:    events,
		queue:     queue,
		opts:      opts,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── Commit ───────────────────────────────────────────────────────────────────
// One database transaction, all-or-nothing:
//   1. Re-check every cart line against stock read inside the tx
//   2. Insert the transaction row with total = Σ snapshot price × qty
//   3. Per line, in product-id order: insert the item, guarded stock decrement,
//      sale movement
//   4. Card details, when supplied for a card payment
//   5. COMMIT, then clear the cart (best-effort), publish the event and
//      enqueue the e-mail receipt

func (s *transactionService) Commit(ctx context.Context, actor model.Identity, req dto.CommitTransactionRequest) (*dto.TransactionResponse, error) {
	c, err := s.carts.Load(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if !model.ValidPaymentMethod(req.PaymentMethod) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, req.PaymentMethod)
	}

	var card *model.CardDetail
	if req.PaymentMethod == model.PaymentCard && req.Card != nil {
		card, err = parseCard(*req.Card)
		if err != nil {
			return nil, err
		}
	}

	contact := normalizeContact(req.CustomerContact)

	// Stable lock order: two commits touching the same products update the
	// rows in the same sequence.
	lines := make([]cart.Line, len(c.Lines))
	copy(lines, c.Lines)
	sort.Slice(lines, func(i, j int) bool {
		return bytes.Compare(lines[i].ProductID[:], lines[j].ProductID[:]) < 0
	})

	status := model.StatusPending
	switch {
	case req.PaymentMethod == model.PaymentCash:
		status = model.StatusCompleted
	case req.PaymentMethod == model.PaymentCard && card != nil:
		status = model.StatusCompleted
	}

	cashierID := actor.UserID
	t := &model.Transaction{
		CashierID:       &cashierID,
		Timestamp:       time.Now().UTC(),
		Total:           c.Total(),
		PaymentMethod:   req.PaymentMethod,
		Status:          status,
		CustomerContact: contact,
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		for _, l := range lines {
			p, err := s.products.FindByIDTx(tx, l.ProductID)
			if err != nil {
				return mapReadErr(err, "product "+l.Name)
			}
			if p.Stock < l.Quantity {
				return &StockError{ProductID: p.ID, Name: p.Name, Requested: l.Quantity, Available: p.Stock}
			}
		}

		if err := s.repo.CreateTx(tx, t); err != nil {
			return err
		}

		for _, l := range lines {
			pid := l.ProductID
			item := model.TransactionItem{
				TransactionID: t.ID,
				ProductID:     &pid,
				Name:          l.Name,
				Quantity:      l.Quantity,
				Price:         l.UnitPrice,
				Barcode:       l.Barcode,
			}
			if err := s.repo.CreateItemTx(tx, &item); err != nil {
				return err
			}
			t.Items = append(t.Items, item)

			after, err := s.decrement(tx, l)
			if err != nil {
				return err
			}
			txID := t.ID
			if err := s.movements.CreateTx(tx, &model.StockMovement{
				ProductID:   l.ProductID,
				Type:        model.MovementSale,
				Delta:       -l.Quantity,
				StockBefore: after + l.Quantity,
				StockAfter:  after,
				Reason:      "sale " + t.ID.String(),
				ReferenceID: &txID,
			}); err != nil {
				return err
			}
		}

		if card != nil {
			card.TransactionID = t.ID
			if err := s.repo.CreateCardDetailTx(tx, card); err != nil {
				return err
			}
			t.CardDetail = card
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	// The sale is recorded; a stale cart is an annoyance, not an error.
	if err := s.releaseCommitted(ctx, actor.UserID, lines); err != nil {
		log.Warn().Err(err).Str("transaction_id", t.ID.String()).Msg("commit: failed to clear cart")
	}
	s.invalidatePrices(ctx, lineBarcodes(lines))

	s.publish(infra.EventTransactionCommitted, t)
	if t.Status == model.StatusCompleted {
		s.enqueueReceipt(ctx, t)
	}

	log.Info().
		Str("transaction_id", t.ID.String()).
		Str("cashier", actor.Username).
		Str("payment_method", t.PaymentMethod).
		Str("status", t.Status).
		Str("total", t.Total.StringFixed(2)).
		Msg("transaction committed")

	return transactionToResponse(t), nil
}

// releaseCommitted takes the committed units out of the cashier's cart.
// Lines added after the commit loaded the cart are left in place.
func (s *transactionService) releaseCommitted(ctx context.Context, cashierID uuid.UUID, lines []cart.Line) error {
	c, err := s.carts.Load(ctx, cashierID)
	if err != nil {
		return err
	}
	for _, l := range lines {
		c.SetQuantity(l.ProductID, c.Quantity(l.ProductID)-l.Quantity)
	}
	if c.IsEmpty() {
		return s.carts.Delete(ctx, cashierID)
	}
	return s.carts.Save(ctx, cashierID, c)
}

func (s *transactionService) invalidatePrices(ctx context.Context, barcodes []string) {
	if s.opts.Prices != nil && len(barcodes) > 0 {
		s.opts.Prices.Invalidate(ctx, barcodes...)
	}
}

func lineBarcodes(lines []cart.Line) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Barcode)
	}
	return out
}

// decrement applies the guarded stock update for one line and returns the
// stock left. Zero rows affected means a concurrent commit took the units.
func (s *transactionService) decrement(tx *gorm.DB, l cart.Line) (int, error) {
	ok, err := s.products.AdjustStockTx(tx, l.ProductID, -l.Quantity)
	if err != nil {
		return 0, err
	}
	p, err := s.products.FindByIDTx(tx, l.ProductID)
	if err != nil {
		return 0, mapReadErr(err, "product "+l.Name)
	}
	if !ok {
		return 0, &StockError{ProductID: l.ProductID, Name: p.Name, Requested: l.Quantity, Available: p.Stock}
	}
	return p.Stock, nil
}

// ── Payment details ──────────────────────────────────────────────────────────

func (s *transactionService) AttachWalletReceipt(ctx context.Context, id uuid.UUID, image []byte) (*dto.TransactionResponse, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapReadErr(err, "transaction")
	}
	if t.PaymentMethod != model.PaymentWallet {
		return nil, ErrWrongPaymentMethod
	}
	if t.WalletReceipt != nil {
		return nil, ErrAlreadyAttached
	}
	if model.IsTerminal(t.Status) {
		return nil, ErrTerminalState
	}

	if len(image) == 0 || int64(len(image)) > s.opts.MaxReceiptBytes {
		return nil, fmt.Errorf("%w: size %d bytes", ErrInvalidImage, len(image))
	}
	mt := mimetype.Detect(image)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: detected %s", ErrInvalidImage, mt.String())
	}

	path, err := s.receipts.Save(fmt.Sprintf("%s-%s%s", t.ID, uuid.NewString()[:8], mt.Extension()), image)
	if err != nil {
		return nil, err
	}

	rec := &model.EWalletReceipt{
		TransactionID: t.ID,
		ImagePath:     path,
		ContentType:   mt.String(),
		UploadedAt:    time.Now().UTC(),
	}
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateWalletReceiptTx(tx, rec); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyAttached
			}
			return err
		}
		return s.complete(tx, t.ID)
	})
	if err != nil {
		if rmErr := s.receipts.Remove(path); rmErr != nil {
			log.Warn().Err(rmErr).Str("path", path).Msg("wallet receipt: orphaned file")
		}
		return nil, err
	}

	t.WalletReceipt = rec
	t.Status = model.StatusCompleted
	s.publish(infra.EventTransactionStatusChanged, t)
	s.enqueueReceipt(ctx, t)
	return transactionToResponse(t), nil
}

func (s *transactionService) AttachCardDetail(ctx context.Context, id uuid.UUID, req dto.CardDetailsRequest) (*dto.TransactionResponse, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapReadErr(err, "transaction")
	}
	if t.PaymentMethod != model.PaymentCard {
		return nil, ErrWrongPaymentMethod
	}
	if t.CardDetail != nil {
		return nil, ErrAlreadyAttached
	}
	if model.IsTerminal(t.Status) {
		return nil, ErrTerminalState
	}
	card, err := parseCard(req)
	if err != nil {
		return nil, err
	}
	card.TransactionID = t.ID

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateCardDetailTx(tx, card); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyAttached
			}
			return err
		}
		return s.complete(tx, t.ID)
	})
	if err != nil {
		return nil, err
	}

	t.CardDetail = card
	t.Status = model.StatusCompleted
	s.publish(infra.EventTransactionStatusChanged, t)
	s.enqueueReceipt(ctx, t)
	return transactionToResponse(t), nil
}

// complete moves a pending transaction to completed inside tx.
func (s *transactionService) complete(tx *gorm.DB, id uuid.UUID) error {
	ok, err := s.repo.TransitionTx(tx, id, model.StatusPending, model.StatusCompleted)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTerminalState
	}
	return nil
}

// ── Status override ──────────────────────────────────────────────────────────

// SetStatus is the admin override. Only pending transactions move; wallet
// transactions complete exclusively through their receipt. Cancelling puts
// the sold units back on the shelf.
func (s *transactionService) SetStatus(ctx context.Context, actor model.Identity, id uuid.UUID, status string) (*dto.TransactionResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if !model.ValidStatus(status) || status == model.StatusPending {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	var (
		t        *model.Transaction
		restored []string
	)
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		t, err = s.repo.FindByIDTx(tx, id)
		if err != nil {
			return mapReadErr(err, "transaction")
		}
		if model.IsTerminal(t.Status) {
			return ErrTerminalState
		}
		if status == model.StatusCompleted && t.PaymentMethod == model.PaymentWallet {
			return ErrWrongPaymentMethod
		}

		ok, err := s.repo.TransitionTx(tx, id, model.StatusPending, status)
		if err != nil {
			return err
		}
		if !ok {
			return ErrTerminalState
		}
		t.Status = status

		if status == model.StatusCancelled {
			restored, err = s.restock(tx, t)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidatePrices(ctx, restored)

	log.Info().
		Str("transaction_id", id.String()).
		Str("status", status).
		Str("by", actor.Username).
		Msg("transaction status changed")

	s.publish(infra.EventTransactionStatusChanged, t)
	if status == model.StatusCompleted {
		s.enqueueReceipt(ctx, t)
	}
	return transactionToResponse(t), nil
}

// restock returns the units of every item whose product still exists and
// reports the current barcodes of the products it touched.
func (s *transactionService) restock(tx *gorm.DB, t *model.Transaction) ([]string, error) {
	var barcodes []string
	for _, it := range t.Items {
		if it.ProductID == nil {
			continue
		}
		ok, err := s.products.AdjustStockTx(tx, *it.ProductID, it.Quantity)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		p, err := s.products.FindByIDTx(tx, *it.ProductID)
		if err != nil {
			return nil, err
		}
		barcodes = append(barcodes, p.Barcode)
		ref := t.ID
		if err := s.movements.CreateTx(tx, &model.StockMovement{
			ProductID:   p.ID,
			Type:        model.MovementCancellation,
			Delta:       it.Quantity,
			StockBefore: p.Stock - it.Quantity,
			StockAfter:  p.Stock,
			Reason:      "cancelled " + t.ID.String(),
			ReferenceID: &ref,
		}); err != nil {
			return nil, err
		}
	}
	return barcodes, nil
}

// ── Reads ────────────────────────────────────────────────────────────────────

func (s *transactionService) Get(ctx context.Context, id uuid.UUID) (*dto.TransactionResponse, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapReadErr(err, "transaction")
	}
	return transactionToResponse(t), nil
}

func (s *transactionService) List(ctx context.Context, filter dto.TransactionFilter) (*dto.TransactionListResponse, error) {
	from, to, err := parseDateRange(filter.From, filter.To)
	if err != nil {
		return nil, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}
	q := repository.TransactionQuery{
		Status:        filter.Status,
		PaymentMethod: filter.PaymentMethod,
		From:          from,
		To:            to,
		Page:          filter.Page,
		Limit:         filter.Limit,
	}
	if filter.CashierID != "" {
		cid, err := uuid.Parse(filter.CashierID)
		if err != nil {
			return nil, fmt.Errorf("%w: cashier_id", ErrInvalidFilter)
		}
		q.CashierID = &cid
	}

	txs, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}
	data := make([]dto.TransactionResponse, len(txs))
	for i := range txs {
		data[i] = *transactionToResponse(&txs[i])
	}
	return &dto.TransactionListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// WriteReceipt renders the printable receipt of a transaction into w.
func (s *transactionService) WriteReceipt(ctx context.Context, id uuid.UUID, w io.Writer) error {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return mapReadErr(err, "transaction")
	}
	return infra.WriteReceiptPDF(w, t, s.opts.Layout)
}

// ── Side effects ─────────────────────────────────────────────────────────────

func (s *transactionService) publish(eventType string, t *model.Transaction) {
	payload := map[string]interface{}{
		"transaction_id": t.ID.String(),
		"status":         t.Status,
		"payment_method": t.PaymentMethod,
		"total":          t.Total.StringFixed(2),
		"items":          len(t.Items),
	}
	if t.CashierID != nil {
		payload["cashier_id"] = t.CashierID.String()
	}
	s.events.Publish(t.ID.String(), infra.Event{
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
}

// enqueueReceipt schedules the e-mail receipt when the customer left an
// e-mail address. Best-effort, like every post-commit step.
func (s *transactionService) enqueueReceipt(ctx context.Context, t *model.Transaction) {
	if s.queue == nil || t.CustomerContact == nil || !strings.Contains(*t.CustomerContact, "@") {
		return
	}
	err := s.queue.EnqueueReceipt(ctx, worker.ReceiptJobPayload{
		TransactionID: t.ID.String(),
		ToEmail:       *t.CustomerContact,
	})
	if err != nil {
		log.Warn().Err(err).Str("transaction_id", t.ID.String()).Msg("failed to enqueue receipt e-mail")
	}
}

// ── helpers ──────────────────────────────────────────────────────────────────

var expiryRe = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)

// parseCard validates the card number and expiry and keeps only the last
// four digits.
func parseCard(req dto.CardDetailsRequest) (*model.CardDetail, error) {
	digits := strings.NewReplacer(" ", "", "-", "").Replace(req.Number)
	if len(digits) < 12 || len(digits) > 19 {
		return nil, fmt.Errorf("%w: card number must have 12-19 digits", ErrInvalidCardDetails)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("%w: card number must be numeric", ErrInvalidCardDetails)
		}
	}
	expiry := strings.TrimSpace(req.Expiry)
	if !expiryRe.MatchString(expiry) {
		return nil, fmt.Errorf("%w: expiry must be MM/YY", ErrInvalidCardDetails)
	}
	return &model.CardDetail{Last4: digits[len(digits)-4:], Expiry: expiry}, nil
}

func normalizeContact(contact *string) *string {
	if contact == nil {
		return nil
	}
	v := strings.TrimSpace(*contact)
	if v == "" {
		return nil
	}
	return &v
}

// parseDateRange parses inclusive YYYY-MM-DD bounds into [from, to) instants.
// Missing bounds default to the last 30 days.
func parseDateRange(fromStr, toStr string) (time.Time, time.Time, error) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	to := today
	if toStr != "" {
		d, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: to must be YYYY-MM-DD", ErrInvalidFilter)
		}
		to = d
	}
	from := to.AddDate(0, 0, -29)
	if fromStr != "" {
		d, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: from must be YYYY-MM-DD", ErrInvalidFilter)
		}
		from = d
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from is after to", ErrInvalidFilter)
	}
	return from, to.AddDate(0, 0, 1), nil
}

func transactionToResponse(t *model.Transaction) *dto.TransactionResponse {
	resp := &dto.TransactionResponse{
		ID:              t.ID.String(),
		Timestamp:       t.Timestamp.UTC().Format(time.RFC3339),
		Total:           t.Total,
		PaymentMethod:   t.PaymentMethod,
		Status:          t.Status,
		CustomerContact: t.CustomerContact,
		Items:           make([]dto.TransactionItemResponse, len(t.Items)),
	}
	if t.CashierID != nil {
		cid := t.CashierID.String()
		resp.CashierID = &cid
	}
	if t.Cashier != nil {
		resp.CashierName = t.Cashier.FullName
	}
	for i, it := range t.Items {
		var pid *string
		if it.ProductID != nil {
			p := it.ProductID.String()
			pid = &p
		}
		resp.Items[i] = dto.TransactionItemResponse{
			ProductID: pid,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     it.Price,
			Barcode:   it.Barcode,
			Subtotal:  it.Subtotal(),
		}
	}
	if t.CardDetail != nil {
		resp.Card = &dto.CardDetailResponse{Last4: t.CardDetail.Last4, Expiry: t.CardDetail.Expiry}
	}
	if t.WalletReceipt != nil {
		resp.WalletReceipt = &dto.WalletReceiptResponse{
			ContentType: t.WalletReceipt.ContentType,
			UploadedAt:  t.WalletReceipt.UploadedAt.UTC().Format(time.RFC3339),
		}
	}
	return resp
}
