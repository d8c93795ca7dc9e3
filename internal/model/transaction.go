package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PaymentCash   = "cash"
	PaymentCard   = "card"
	PaymentWallet = "wallet"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// PaymentMethods lists the accepted methods in display order.
var PaymentMethods = []string{PaymentCash, PaymentCard, PaymentWallet}

// ValidPaymentMethod reports whether m is a recognized payment method.
func ValidPaymentMethod(m string) bool {
	return m == PaymentCash || m == PaymentCard || m == PaymentWallet
}

// ValidStatus reports whether s is a recognized transaction status.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusCompleted || s == StatusCancelled
}

// IsTerminal reports whether no further status transition is allowed from s.
func IsTerminal(s string) bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Transaction is the immutable financial record produced by committing a cart.
// Its ID doubles as the receipt number, so it is a random UUID and never
// sequential. Only Status changes after creation.
type Transaction struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CashierID       *uuid.UUID      `gorm:"type:uuid;index"`
	Timestamp       time.Time       `gorm:"index;not null"`
	Total           decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	PaymentMethod   string          `gorm:"type:varchar(20);index;not null"`
	Status          string          `gorm:"type:varchar(20);index;not null;default:'pending'"`
	CustomerContact *string         `gorm:"type:varchar(100)"`

	Cashier       *User             `gorm:"foreignKey:CashierID;constraint:OnDelete:SET NULL"`
	Items         []TransactionItem `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE"`
	CardDetail    *CardDetail       `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE"`
	WalletReceipt *EWalletReceipt   `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE"`
}

func (t *Transaction) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TransactionItem is a sold line. Name, price and barcode are copied at sale
// time; ProductID is a weak reference that becomes NULL when the product is
// deleted.
type TransactionItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TransactionID uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductID     *uuid.UUID      `gorm:"type:uuid;index"`
	Name          string          `gorm:"type:varchar(100);not null"`
	Quantity      int             `gorm:"not null"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Barcode       string          `gorm:"type:varchar(20)"`
}

func (i *TransactionItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Subtotal is price × quantity.
func (i TransactionItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CardDetail holds the display part of a card payment. The full card number
// is never stored.
type CardDetail struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	TransactionID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Last4         string    `gorm:"type:varchar(4);not null"`
	Expiry        string    `gorm:"type:varchar(10);not null"`
	CreatedAt     time.Time
}

func (c *CardDetail) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// EWalletReceipt is the proof of payment uploaded for a wallet transaction.
// At most one per transaction, enforced by the unique index.
type EWalletReceipt struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	TransactionID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	ImagePath     string    `gorm:"type:varchar(500);not null"`
	ContentType   string    `gorm:"type:varchar(100)"`
	UploadedAt    time.Time `gorm:"not null"`
}

// TableName keeps the table name readable (e_wallet_receipts otherwise).
func (EWalletReceipt) TableName() string { return "wallet_receipts" }

func (r *EWalletReceipt) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
