package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/RainierLopez/pos-3l-variety-store-90/internal/dto"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/model"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CatalogService defines the business logic contract for products and stock.
type CatalogService interface {
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	GetByBarcode(ctx context.Context, barcode string) (*dto.ProductResponse, error)
	List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	Update(ctx context.Context, actor model.Identity, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error

	AdjustStock(ctx context.Context, id uuid.UUID, req dto.AdjustStockRequest) (*dto.ProductResponse, error)
	LowStock(ctx context.Context, threshold int) ([]dto.ProductResponse, error)
	Movements(ctx context.Context, id uuid.UUID, page, limit int) ([]dto.StockMovementResponse, int64, error)
	PriceHistory(ctx context.Context, id uuid.UUID) ([]dto.PriceHistoryResponse, error)
}

type catalogService struct {
	repo      repository.ProductRepository
	movements repository.StockMovementRepository
	prices    repository.PriceHistoryRepository
	cache     PriceCache
}

func NewCatalogService(
	repo repository.ProductRepository,
	movements repository.StockMovementRepository,
	prices repository.PriceHistoryRepository,
	rdb *redis.Client,
) CatalogService {
	return &catalogService{repo: repo, movements: movements, prices: prices, cache: NewRedisPriceCache(rdb)}
}

func (s *catalogService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if !model.ValidCategory(req.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidProduct, req.Category)
	}
	if req.Stock < 0 {
		return nil, ErrInvalidQuantity
	}
	barcode := strings.TrimSpace(req.Barcode)
	if err := s.ensureBarcodeFree(ctx, barcode, uuid.Nil); err != nil {
		return nil, err
	}

	p := &model.Product{
		Name:     strings.TrimSpace(req.Name),
		Category: req.Category,
		Price:    req.Price.Round(2),
		Barcode:  barcode,
		Image:    req.Image,
		Stock:    req.Stock,
	}

	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, p); err != nil {
			return mapWriteErr(err)
		}
		if p.Stock > 0 {
			return s.movements.CreateTx(tx, &model.StockMovement{
				ProductID:  p.ID,
				Type:       model.MovementInitial,
				Delta:      p.Stock,
				StockAfter: p.Stock,
				Reason:     "initial stock",
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return productToResponse(p), nil
}

func (s *catalogService) Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapReadErr(err, "product")
	}
	return productToResponse(p), nil
}

func (s *catalogService) GetByBarcode(ctx context.Context, barcode string) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByBarcode(ctx, strings.TrimSpace(barcode))
	if err != nil {
		return nil, mapReadErr(err, "product")
	}
	return productToResponse(p), nil
}

func (s *catalogService) List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 50
	}
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ProductResponse, len(products))
	for i := range products {
		data[i] = *productToResponse(&products[i])
	}
	return &dto.ProductListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}

func (s *catalogService) Update(ctx context.Context, actor model.Identity, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	var p *model.Product
	var oldBarcode string

	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		p, err = s.repo.FindByIDTx(tx, id)
		if err != nil {
			return mapReadErr(err, "product")
		}
		oldBarcode = p.Barcode
		oldPrice := p.Price

		if req.Name != nil {
			p.Name = strings.TrimSpace(*req.Name)
		}
		if req.Category != nil {
			if !model.ValidCategory(*req.Category) {
				return fmt.Errorf("%w: unknown category %q", ErrInvalidProduct, *req.Category)
			}
			p.Category = *req.Category
		}
		if req.Image != nil {
			p.Image = *req.Image
		}
		if req.Barcode != nil && strings.TrimSpace(*req.Barcode) != p.Barcode {
			p.Barcode = strings.TrimSpace(*req.Barcode)
			if err := s.ensureBarcodeFreeTx(tx, p.Barcode, p.ID); err != nil {
				return err
			}
		}
		if req.Price != nil {
			if !req.Price.IsPositive() {
				return fmt.Errorf("%w: price must be greater than zero", ErrInvalidProduct)
			}
			p.Price = req.Price.Round(2)
		}

		if err := s.repo.UpdateTx(tx, p); err != nil {
			return mapWriteErr(err)
		}

		if !p.Price.Equal(oldPrice) {
			var changedBy *uuid.UUID
			if actor.UserID != uuid.Nil {
				uid := actor.UserID
				changedBy = &uid
			}
			return s.prices.CreateTx(tx, &model.PriceHistory{
				ProductID: p.ID,
				OldPrice:  oldPrice,
				NewPrice:  p.Price,
				ChangedBy: changedBy,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, oldBarcode, p.Barcode)
	return productToResponse(p), nil
}

func (s *catalogService) Delete(ctx context.Context, id uuid.UUID) error {
	var barcode string
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		p, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			return mapReadErr(err, "product")
		}
		barcode = p.Barcode
		if err := s.repo.DeleteTx(tx, id); err != nil {
			return mapReadErr(err, "product")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, barcode)
	return nil
}

// AdjustStock applies a signed delta. A result below zero is rejected,
// never clamped.
func (s *catalogService) AdjustStock(ctx context.Context, id uuid.UUID, req dto.AdjustStockRequest) (*dto.ProductResponse, error) {
	if req.Delta == 0 {
		return nil, ErrInvalidQuantity
	}
	var p *model.Product
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		before, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			return mapReadErr(err, "product")
		}
		ok, err := s.repo.AdjustStockTx(tx, id, req.Delta)
		if err != nil {
			return err
		}
		if !ok {
			return &StockError{ProductID: id, Name: before.Name, Requested: -req.Delta, Available: before.Stock}
		}

		p, err = s.repo.FindByIDTx(tx, id)
		if err != nil {
			return err
		}
		reason := req.Reason
		if reason == "" {
			reason = "manual adjustment"
		}
		return s.movements.CreateTx(tx, &model.StockMovement{
			ProductID:   id,
			Type:        model.MovementAdjustment,
			Delta:       req.Delta,
			StockBefore: p.Stock - req.Delta,
			StockAfter:  p.Stock,
			Reason:      reason,
		})
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, p.Barcode)
	return productToResponse(p), nil
}

func (s *catalogService) LowStock(ctx context.Context, threshold int) ([]dto.ProductResponse, error) {
	if threshold < 0 {
		threshold = 0
	}
	products, err := s.repo.ListLowStock(ctx, threshold)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProductResponse, len(products))
	for i := range products {
		out[i] = *productToResponse(&products[i])
	}
	return out, nil
}

func (s *catalogService) Movements(ctx context.Context, id uuid.UUID, page, limit int) ([]dto.StockMovementResponse, int64, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, 0, mapReadErr(err, "product")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	movs, total, err := s.movements.ListByProduct(ctx, id, page, limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.StockMovementResponse, len(movs))
	for i, m := range movs {
		var ref *string
		if m.ReferenceID != nil {
			r := m.ReferenceID.String()
			ref = &r
		}
		out[i] = dto.StockMovementResponse{
			ID:          m.ID.String(),
			Type:        m.Type,
			Delta:       m.Delta,
			StockBefore: m.StockBefore,
			StockAfter:  m.StockAfter,
			Reason:      m.Reason,
			ReferenceID: ref,
			CreatedAt:   m.CreatedAt.Format(time.RFC3339),
		}
	}
	return out, total, nil
}

func (s *catalogService) PriceHistory(ctx context.Context, id uuid.UUID) ([]dto.PriceHistoryResponse, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, mapReadErr(err, "product")
	}
	rows, err := s.prices.ListByProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PriceHistoryResponse, len(rows))
	for i, h := range rows {
		var by *string
		if h.ChangedBy != nil {
			b := h.ChangedBy.String()
			by = &b
		}
		out[i] = dto.PriceHistoryResponse{
			OldPrice:  h.OldPrice,
			NewPrice:  h.NewPrice,
			ChangedBy: by,
			CreatedAt: h.CreatedAt.Format(time.RFC3339),
		}
	}
	return out, nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (s *catalogService) ensureBarcodeFree(ctx context.Context, barcode string, self uuid.UUID) error {
	return s.ensureBarcodeFreeTx(s.repo.DB().WithContext(ctx), barcode, self)
}

// ensureBarcodeFreeTx is the friendly pre-check; the unique index remains the
// authority under concurrent writes (see mapWriteErr).
func (s *catalogService) ensureBarcodeFreeTx(tx *gorm.DB, barcode string, self uuid.UUID) error {
	var count int64
	if err := tx.Model(&model.Product{}).
		Where("barcode = ? AND id <> ?", barcode, self).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateBarcode, barcode)
	}
	return nil
}

// mapReadErr turns gorm's not-found into ErrNotFound.
func mapReadErr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

// mapWriteErr turns a unique-index violation on products into ErrDuplicateBarcode.
func mapWriteErr(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateBarcode
	}
	return err
}

func productToResponse(p *model.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:       p.ID.String(),
		Name:     p.Name,
		Category: p.Category,
		Price:    p.Price,
		Barcode:  p.Barcode,
		Image:    p.Image,
		Stock:    p.Stock,
	}
}
