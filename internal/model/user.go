package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

// User stores system users with role-based access.
// Role: "admin" | "cashier"
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username     string    `gorm:"type:varchar(150);uniqueIndex;not null"`
	FullName     string    `gorm:"type:varchar(150);not null"`
	Phone        *string   `gorm:"type:varchar(20)"`
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"type:varchar(20);not null;default:'cashier'"`
	Active       bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Identity is the authenticated caller of an operation, as vouched for by
// the identity provider (a verified JWT). It carries the role explicitly so
// admin-only operations can refuse with a PermissionDenied error.
type Identity struct {
	UserID   uuid.UUID
	Username string
	Role     string
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }
