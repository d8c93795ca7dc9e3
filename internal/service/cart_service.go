package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/RainierLopez/pos-3l-variety-store-90/internal/cart"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/model"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/repository"

	"github.com/google/uuid"
)

// CartService manages the cart of one cashier session. Every mutation loads
// the cart, applies the change and saves it back before returning.
type CartService interface {
	View(ctx context.Context, cashierID uuid.UUID) (*cart.Summary, error)
	Add(ctx context.Context, cashierID, productID uuid.UUID, qty int) (*cart.Summary, error)
	AddByBarcode(ctx context.Context, cashierID uuid.UUID, barcode string, qty int) (*cart.Summary, error)
	Update(ctx context.Context, cashierID, productID uuid.UUID, qty int) (*cart.Summary, error)
	Remove(ctx context.Context, cashierID, productID uuid.UUID) (*cart.Summary, error)
	Clear(ctx context.Context, cashierID uuid.UUID) error
}

type cartService struct {
	store    cart.Store
	products repository.ProductRepository
}

func NewCartService(store cart.Store, products repository.ProductRepository) CartService {
	return &cartService{store: store, products: products}
}

func (s *cartService) View(ctx context.Context, cashierID uuid.UUID) (*cart.Summary, error) {
	c, err := s.store.Load(ctx, cashierID)
	if err != nil {
		return nil, err
	}
	v := c.View()
	return &v, nil
}

func (s *cartService) Add(ctx context.Context, cashierID, productID uuid.UUID, qty int) (*cart.Summary, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, mapReadErr(err, "product")
	}
	return s.addProduct(ctx, cashierID, p, qty)
}

// AddByBarcode is the scanner flow: a missing quantity means one unit.
func (s *cartService) AddByBarcode(ctx context.Context, cashierID uuid.UUID, barcode string, qty int) (*cart.Summary, error) {
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return nil, ErrInvalidQuantity
	}
	p, err := s.products.FindByBarcode(ctx, strings.TrimSpace(barcode))
	if err != nil {
		return nil, mapReadErr(err, "product")
	}
	return s.addProduct(ctx, cashierID, p, qty)
}

func (s *cartService) addProduct(ctx context.Context, cashierID uuid.UUID, p *model.Product, qty int) (*cart.Summary, error) {
	c, err := s.store.Load(ctx, cashierID)
	if err != nil {
		return nil, err
	}
	// compared against the room left so a huge qty cannot wrap the sum
	room := max(p.Stock-c.Quantity(p.ID), 0)
	if qty > room {
		return nil, &StockError{ProductID: p.ID, Name: p.Name, Requested: qty, Available: room}
	}
	c.Add(cart.Line{
		ProductID: p.ID,
		Name:      p.Name,
		Barcode:   p.Barcode,
		Image:     p.Image,
		UnitPrice: p.Price,
		Quantity:  qty,
	})
	return s.save(ctx, cashierID, c)
}

// Update replaces a line's quantity. qty <= 0 removes the line; the price
// snapshot is never refreshed.
func (s *cartService) Update(ctx context.Context, cashierID, productID uuid.UUID, qty int) (*cart.Summary, error) {
	c, err := s.store.Load(ctx, cashierID)
	if err != nil {
		return nil, err
	}
	line, ok := c.Find(productID)
	if !ok {
		return nil, fmt.Errorf("cart line: %w", ErrNotFound)
	}
	if qty > 0 {
		p, err := s.products.FindByID(ctx, productID)
		if err != nil {
			return nil, mapReadErr(err, "product")
		}
		if qty > p.Stock {
			return nil, &StockError{ProductID: p.ID, Name: line.Name, Requested: qty, Available: p.Stock}
		}
	}
	c.SetQuantity(productID, qty)
	return s.save(ctx, cashierID, c)
}

func (s *cartService) Remove(ctx context.Context, cashierID, productID uuid.UUID) (*cart.Summary, error) {
	c, err := s.store.Load(ctx, cashierID)
	if err != nil {
		return nil, err
	}
	c.Remove(productID)
	return s.save(ctx, cashierID, c)
}

func (s *cartService) Clear(ctx context.Context, cashierID uuid.UUID) error {
	return s.store.Delete(ctx, cashierID)
}

func (s *cartService) save(ctx context.Context, cashierID uuid.UUID, c *cart.Cart) (*cart.Summary, error) {
	if err := s.store.Save(ctx, cashierID, c); err != nil {
		return nil, err
	}
	v := c.View()
	return &v, nil
}
