// cmd/seed/main.go: creates or refreshes the demo admin and cashier and a
// starter catalog. Safe to run repeatedly.
// Usage: go run ./cmd/seed
package main

import (
	"errors"
	"os"
	"time"

	"github.com/RainierLopez/pos-3l-variety-store-90/internal/config"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/infra"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/model"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type seedUser struct {
	username, fullName, role, envPassword, defaultPassword string
}

var users = []seedUser{
	{"admin", "Store Administrator", model.RoleAdmin, "SEED_ADMIN_PASSWORD", "admin1234"},
	{"cashier", "Front Counter", model.RoleCashier, "SEED_CASHIER_PASSWORD", "cashier1234"},
}

var products = []model.Product{
	{Name: "Pork Belly (1kg)", Category: model.CategoryMeat, Price: decimal.RequireFromString("380.00"), Barcode: "4800000000011", Stock: 25},
	{Name: "Chicken Breast (1kg)", Category: model.CategoryMeat, Price: decimal.RequireFromString("260.00"), Barcode: "4800000000028", Stock: 30},
	{Name: "Ground Beef (500g)", Category: model.CategoryMeat, Price: decimal.RequireFromString("210.50"), Barcode: "4800000000035", Stock: 20},
	{Name: "Pechay (bundle)", Category: model.CategoryVegetable, Price: decimal.RequireFromString("25.00"), Barcode: "4800000000042", Stock: 60},
	{Name: "Tomatoes (500g)", Category: model.CategoryVegetable, Price: decimal.RequireFromString("45.75"), Barcode: "4800000000059", Stock: 40},
	{Name: "Red Onion (500g)", Category: model.CategoryVegetable, Price: decimal.RequireFromString("70.00"), Barcode: "4800000000066", Stock: 35},
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect error")
	}

	for _, u := range users {
		password := os.Getenv(u.envPassword)
		if password == "" {
			password = u.defaultPassword
		}
		hash, err := service.HashPassword(password)
		if err != nil {
			log.Fatal().Err(err).Msg("bcrypt error")
		}
		row := model.User{Username: u.username, FullName: u.fullName, Role: u.role, PasswordHash: hash, Active: true}
		err = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "username"}},
			DoUpdates: clause.AssignmentColumns([]string{"full_name", "password_hash", "role", "active"}),
		}).Create(&row).Error
		if err != nil {
			log.Fatal().Err(err).Str("username", u.username).Msg("user upsert error")
		}
		log.Info().Str("username", u.username).Str("role", u.role).Msg("user ready")
	}

	for _, p := range products {
		err := db.Transaction(func(tx *gorm.DB) error {
			var existing model.Product
			err := tx.Where("barcode = ?", p.Barcode).First(&existing).Error
			if err == nil {
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			p := p
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
			return tx.Create(&model.StockMovement{
				ProductID:  p.ID,
				Type:       model.MovementInitial,
				Delta:      p.Stock,
				StockAfter: p.Stock,
				Reason:     "seed",
			}).Error
		})
		if err != nil {
			log.Fatal().Err(err).Str("barcode", p.Barcode).Msg("product seed error")
		}
	}
	log.Info().Int("products", len(products)).Msg("catalog seeded")
}
