package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PriceHistory records a price change for a product.
type PriceHistory struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	OldPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	NewPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	ChangedBy *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt time.Time
}

// TableName overrides GORM's default pluralization (price_histories).
func (PriceHistory) TableName() string { return "price_history" }

func (h *PriceHistory) BeforeCreate(_ *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
