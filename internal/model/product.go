package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product categories sold by the store.
const (
	CategoryMeat      = "meat"
	CategoryVegetable = "vegetable"
)

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c string) bool {
	return c == CategoryMeat || c == CategoryVegetable
}

// Product is a sellable catalog entry. Stock never drops below zero:
// every decrement is a guarded UPDATE (see repository.ProductRepository).
type Product struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name      string          `gorm:"type:varchar(100);index;not null"`
	Category  string          `gorm:"type:varchar(20);index;not null"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Barcode   string          `gorm:"type:varchar(20);uniqueIndex;not null"`
	Image     string          `gorm:"type:varchar(500)"`
	Stock     int             `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
