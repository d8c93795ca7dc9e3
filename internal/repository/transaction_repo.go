package repository

import (
	"context"
	"time"

	"github.com/RainierLopez/pos-3l-variety-store-90/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionQuery filters the transaction list. Zero values mean "any".
type TransactionQuery struct {
	Status        string
	PaymentMethod string
	From          time.Time // inclusive
	To            time.Time // exclusive
	CashierID     *uuid.UUID
	Page          int
	Limit         int
}

type TransactionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	List(ctx context.Context, q TransactionQuery) ([]model.Transaction, int64, error)
	// ListForReport returns every transaction matching q with items preloaded,
	// ignoring pagination.
	ListForReport(ctx context.Context, q TransactionQuery) ([]model.Transaction, error)

	// Used inside transactions: callers must pass the tx instance
	CreateTx(tx *gorm.DB, t *model.Transaction) error
	CreateItemTx(tx *gorm.DB, item *model.TransactionItem) error
	CreateCardDetailTx(tx *gorm.DB, c *model.CardDetail) error
	CreateWalletReceiptTx(tx *gorm.DB, r *model.EWalletReceipt) error
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Transaction, error)
	// TransitionTx moves the status from "from" to "to" and reports whether
	// the row was still in "from".
	TransitionTx(tx *gorm.DB, id uuid.UUID, from, to string) (bool, error)

	// DB exposes the DB for transaction creation in service layer
	DB() *gorm.DB
}

type transactionRepo struct{ db *gorm.DB }

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db: db}
}

func (r *transactionRepo) DB() *gorm.DB { return r.db }

func (r *transactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), id)
}

func (r *transactionRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Transaction, error) {
	var t model.Transaction
	err := tx.Preload("Items").Preload("CardDetail").Preload("WalletReceipt").Preload("Cashier").
		Where("id = ?", id).First(&t).Error
	return &t, err
}

func (r *transactionRepo) filtered(ctx context.Context, q TransactionQuery) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&model.Transaction{})
	if q.Status != "" && q.Status != "all" {
		db = db.Where("status = ?", q.Status)
	}
	if q.PaymentMethod != "" && q.PaymentMethod != "all" {
		db = db.Where("payment_method = ?", q.PaymentMethod)
	}
	if !q.From.IsZero() {
		db = db.Where("timestamp >= ?", q.From.UTC())
	}
	if !q.To.IsZero() {
		db = db.Where("timestamp < ?", q.To.UTC())
	}
	if q.CashierID != nil {
		db = db.Where("cashier_id = ?", *q.CashierID)
	}
	return db
}

func (r *transactionRepo) List(ctx context.Context, q TransactionQuery) ([]model.Transaction, int64, error) {
	var out []model.Transaction
	var total int64

	db := r.filtered(ctx, q)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (q.Page - 1) * q.Limit
	err := db.Preload("Items").Preload("Cashier").
		Order("timestamp DESC").
		Offset(offset).Limit(q.Limit).
		Find(&out).Error
	return out, total, err
}

func (r *transactionRepo) ListForReport(ctx context.Context, q TransactionQuery) ([]model.Transaction, error) {
	var out []model.Transaction
	err := r.filtered(ctx, q).Preload("Items").Order("timestamp ASC").Find(&out).Error
	return out, err
}

// CreateTx inserts the transaction row alone; items are written one by one
// with CreateItemTx so each line is paired with its stock decrement.
func (r *transactionRepo) CreateTx(tx *gorm.DB, t *model.Transaction) error {
	return tx.Omit("Items", "CardDetail", "WalletReceipt", "Cashier").Create(t).Error
}

func (r *transactionRepo) CreateItemTx(tx *gorm.DB, item *model.TransactionItem) error {
	return tx.Create(item).Error
}

func (r *transactionRepo) CreateCardDetailTx(tx *gorm.DB, c *model.CardDetail) error {
	return tx.Create(c).Error
}

func (r *transactionRepo) CreateWalletReceiptTx(tx *gorm.DB, rec *model.EWalletReceipt) error {
	return tx.Create(rec).Error
}

func (r *transactionRepo) TransitionTx(tx *gorm.DB, id uuid.UUID, from, to string) (bool, error) {
	res := tx.Model(&model.Transaction{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
