package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/RainierLopez/pos-3l-variety-store-90/internal/cart"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/infra"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/model"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/repository"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

// memCartStore is an in-memory cart.Store. Load hands out copies so a caller
// mutating its cart without saving does not leak into the store.
type memCartStore struct {
	mu    sync.Mutex
	carts map[uuid.UUID][]cart.Line
}

func newMemCartStore() *memCartStore {
	return &memCartStore{carts: make(map[uuid.UUID][]cart.Line)}
}

func (s *memCartStore) Load(_ context.Context, id uuid.UUID) (*cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := append([]cart.Line(nil), s.carts[id]...)
	return &cart.Cart{Lines: lines}, nil
}

func (s *memCartStore) Save(_ context.Context, id uuid.UUID, c *cart.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.IsEmpty() {
		delete(s.carts, id)
		return nil
	}
	s.carts[id] = append([]cart.Line(nil), c.Lines...)
	return nil
}

func (s *memCartStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, id)
	return nil
}

var _ cart.Store = (*memCartStore)(nil)

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []infra.Event
}

func (p *recordingPublisher) Publish(_ string, e infra.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// recordingQueue keeps every enqueued receipt job.
type recordingQueue struct {
	mu   sync.Mutex
	jobs []worker.ReceiptJobPayload
}

func (q *recordingQueue) EnqueueReceipt(_ context.Context, p worker.ReceiptJobPayload) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, p)
	return nil
}

// recordingPriceCache keeps every invalidated barcode.
type recordingPriceCache struct {
	mu       sync.Mutex
	barcodes []string
}

func (c *recordingPriceCache) Invalidate(_ context.Context, barcodes ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.barcodes = append(c.barcodes, barcodes...)
}

func (c *recordingPriceCache) invalidated() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.barcodes...)
}

// lateAddCartStore runs afterFirstLoad once, right after the first Load,
// to stand in for a second terminal editing the same cart.
type lateAddCartStore struct {
	*memCartStore
	afterFirstLoad func()
}

func (s *lateAddCartStore) Load(ctx context.Context, id uuid.UUID) (*cart.Cart, error) {
	c, err := s.memCartStore.Load(ctx, id)
	if hook := s.afterFirstLoad; hook != nil {
		s.afterFirstLoad = nil
		hook()
	}
	return c, err
}

// failingItemRepo fails CreateItemTx on the failOn-th call.
type failingItemRepo struct {
	repository.TransactionRepository
	calls  int
	failOn int
}

func (r *failingItemRepo) CreateItemTx(tx *gorm.DB, item *model.TransactionItem) error {
	r.calls++
	if r.calls == r.failOn {
		return fmt.Errorf("injected failure on item %d", r.calls)
	}
	return r.TransactionRepository.CreateItemTx(tx, item)
}

// ── Fixture ───────────────────────────────────────────────────────────────────

type fixture struct {
	db        *gorm.DB
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	prices    repository.PriceHistoryRepository
	txRepo    repository.TransactionRepository
	users     repository.UserRepository
	carts     *memCartStore
	events    *recordingPublisher
	queue     *recordingQueue
	priceKeys *recordingPriceCache

	catalog CatalogService
	cart    CartService
	tx      TransactionService
	reports ReportService
}

// newFixture opens a private in-memory SQLite database with the full schema.
// The single connection serializes transactions.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := infra.NewDatabase("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	f := &fixture{
		db:        db,
		products:  repository.NewProductRepository(db),
		movements: repository.NewStockMovementRepository(db),
		prices:    repository.NewPriceHistoryRepository(db),
		txRepo:    repository.NewTransactionRepository(db),
		users:     repository.NewUserRepository(db),
		carts:     newMemCartStore(),
		events:    &recordingPublisher{},
		queue:     &recordingQueue{},
		priceKeys: &recordingPriceCache{},
	}
	f.catalog = NewCatalogService(f.products, f.movements, f.prices, nil)
	f.cart = NewCartService(f.carts, f.products)
	f.tx = f.newTxService(t, f.txRepo)
	f.reports = NewReportService(f.txRepo)
	return f
}

func (f *fixture) newTxService(t *testing.T, repo repository.TransactionRepository) TransactionService {
	return f.newTxServiceWithCarts(t, repo, f.carts)
}

func (f *fixture) newTxServiceWithCarts(t *testing.T, repo repository.TransactionRepository, carts cart.Store) TransactionService {
	return NewTransactionService(repo, f.products, f.movements, carts,
		infra.NewFileReceiptStorage(t.TempDir()), f.events, f.queue,
		TransactionOptions{
			MaxReceiptBytes: 1 << 20,
			Layout:          infra.ReceiptLayout{StoreName: "Test Store", CurrencySymbol: "PHP "},
			Prices:          f.priceKeys,
		})
}

func (f *fixture) user(t *testing.T, username, role string) model.Identity {
	t.Helper()
	u := &model.User{Username: username, FullName: username, PasswordHash: "x", Role: role, Active: true}
	require.NoError(t, f.users.Create(context.Background(), u))
	return model.Identity{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func (f *fixture) product(t *testing.T, name, price string, stock int) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:     name,
		Category: model.CategoryVegetable,
		Price:    decimal.RequireFromString(price),
		Barcode:  uuid.NewString()[:12],
		Stock:    stock,
	}
	require.NoError(t, f.products.Create(context.Background(), p))
	return p
}

func (f *fixture) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	p, err := f.products.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) count(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(m).Count(&n).Error)
	return n
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}
