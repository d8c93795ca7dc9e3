package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MovementSale         = "sale"
	MovementAdjustment   = "adjustment"
	MovementCancellation = "cancellation"
	MovementInitial      = "initial"
)

// StockMovement records every change to a product's stock.
// Created automatically on sale, manual adjustment, cancellation and creation.
type StockMovement struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ProductID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	Type        string     `gorm:"type:varchar(20);not null"`
	Delta       int        `gorm:"not null"` // positive = in, negative = out
	StockBefore int        `gorm:"not null"`
	StockAfter  int        `gorm:"not null"`
	Reason      string     `gorm:"type:varchar(255)"`
	ReferenceID *uuid.UUID `gorm:"type:uuid;index"` // transaction id when applicable
	CreatedAt   time.Time
}

func (m *StockMovement) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
