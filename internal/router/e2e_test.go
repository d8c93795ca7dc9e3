//go:build integration

package router_test

// End-to-end tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/RainierLopez/pos-3l-variety-store-90/internal/config"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/infra"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/model"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/router"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"gorm.io/gorm"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	decodeJSON(t, resp, &body)
	return body.Code
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	db     *gorm.DB
	admin  string // admin JWT
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	gin.SetMode(gin.TestMode)

	pgC, err := tcPostgres.Run(ctx, "postgres:15-alpine",
		tcPostgres.WithDatabase("pos_test"),
		tcPostgres.WithUsername("pos"),
		tcPostgres.WithPassword("pos"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		DatabaseDriver:     "postgres",
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		CartTTLHours:       1,
		ReceiptStoragePath: t.TempDir(),
		PDFStoragePath:     t.TempDir(),
		MaxReceiptBytes:    1 << 20,
		StoreName:          "E2E Store",
		CurrencySymbol:     "PHP ",
	}

	db, err := infra.NewDatabase(cfg.DatabaseDriver, cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	appCtx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)

	r := router.New(appCtx, cfg, db, rdb, infra.NoopPublisher{}, nil)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	env := &testEnv{server: srv, db: db}
	seedUser(t, db, "admin", model.RoleAdmin)
	env.admin = env.login(t, "admin")
	return env
}

func seedUser(t *testing.T, db *gorm.DB, username, role string) {
	t.Helper()
	hash, err := service.HashPassword("e2e-password")
	require.NoError(t, err)
	require.NoError(t, db.Create(&model.User{
		Username: username, FullName: username, PasswordHash: hash, Role: role, Active: true,
	}).Error)
}

func (e *testEnv) login(t *testing.T, username string) string {
	t.Helper()
	resp := do(t, e.server, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": username, "password": "e2e-password"}), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, resp, &body)
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}

func (e *testEnv) cashier(t *testing.T, username string) string {
	seedUser(t, e.db, username, model.RoleCashier)
	return e.login(t, username)
}

type productBody struct {
	ID    string          `json:"id"`
	Stock int             `json:"stock"`
	Price decimal.Decimal `json:"price"`
}

func (e *testEnv) createProduct(t *testing.T, barcode, price string, stock int) productBody {
	t.Helper()
	resp := do(t, e.server, "POST", "/v1/products", jsonBody(t, map[string]any{
		"name": "Product " + barcode, "category": "vegetable",
		"price": price, "barcode": barcode, "stock": stock,
	}), e.admin)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var p productBody
	decodeJSON(t, resp, &p)
	return p
}

func (e *testEnv) productStock(t *testing.T, id string) int {
	t.Helper()
	resp := do(t, e.server, "GET", "/v1/products/"+id, nil, e.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var p productBody
	decodeJSON(t, resp, &p)
	return p.Stock
}

type txBody struct {
	ID     string          `json:"id"`
	Total  decimal.Decimal `json:"total"`
	Status string          `json:"status"`
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_CashSale(t *testing.T) {
	env := setupTestEnv(t)
	token := env.cashier(t, "cashier1")
	p := env.createProduct(t, "123", "10.00", 5)

	resp := do(t, env.server, "POST", "/v1/cart/scan", jsonBody(t, map[string]any{"barcode": "123", "quantity": 3}), token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cartView struct {
		Total decimal.Decimal `json:"total"`
	}
	decodeJSON(t, resp, &cartView)
	assert.True(t, decimal.RequireFromString("30.00").Equal(cartView.Total))

	resp = do(t, env.server, "POST", "/v1/transactions", jsonBody(t, map[string]any{"payment_method": "cash"}), token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var tx txBody
	decodeJSON(t, resp, &tx)
	assert.Equal(t, "completed", tx.Status)
	assert.True(t, decimal.RequireFromString("30.00").Equal(tx.Total))

	assert.Equal(t, 2, env.productStock(t, p.ID))

	// the cart is gone, so a second commit fails
	resp = do(t, env.server, "POST", "/v1/transactions", jsonBody(t, map[string]any{"payment_method": "cash"}), token)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "empty_cart", errorCode(t, resp))

	resp = do(t, env.server, "GET", "/v1/transactions/"+tx.ID+"/receipt.pdf", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	resp.Body.Close()
}

func TestE2E_WalletReceiptCompletesOnce(t *testing.T) {
	env := setupTestEnv(t)
	token := env.cashier(t, "cashier1")
	p := env.createProduct(t, "456", "25.00", 4)

	resp := do(t, env.server, "POST", "/v1/cart/items", jsonBody(t, map[string]any{"product_id": p.ID, "quantity": 2}), token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, "POST", "/v1/transactions", jsonBody(t, map[string]any{"payment_method": "wallet"}), token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var tx txBody
	decodeJSON(t, resp, &tx)
	assert.Equal(t, "pending", tx.Status)

	upload := func() *http.Response {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("receipt_image", "receipt.png")
		require.NoError(t, err)
		_, _ = part.Write(append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...))
		require.NoError(t, mw.Close())

		req, err := http.NewRequest("POST", env.server.URL+"/v1/transactions/"+tx.ID+"/wallet-receipt", &body)
		require.NoError(t, err)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := env.server.Client().Do(req)
		require.NoError(t, err)
		return resp
	}

	resp = upload()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &tx)
	assert.Equal(t, "completed", tx.Status)

	resp = upload()
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "already_attached", errorCode(t, resp))
}

func TestE2E_ConcurrentLastUnit(t *testing.T) {
	env := setupTestEnv(t)
	p := env.createProduct(t, "789", "99.00", 1)
	tokens := []string{env.cashier(t, "c1"), env.cashier(t, "c2")}

	for _, tok := range tokens {
		resp := do(t, env.server, "POST", "/v1/cart/items", jsonBody(t, map[string]any{"product_id": p.ID, "quantity": 1}), tok)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	var wg sync.WaitGroup
	codes := make([]int, len(tokens))
	for i, tok := range tokens {
		wg.Add(1)
		go func(i int, tok string) {
			defer wg.Done()
			req, _ := http.NewRequest("POST", env.server.URL+"/v1/transactions",
				bytes.NewBufferString(`{"payment_method":"cash"}`))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+tok)
			resp, err := env.server.Client().Do(req)
			if err != nil {
				return
			}
			codes[i] = resp.StatusCode
			resp.Body.Close()
		}(i, tok)
	}
	wg.Wait()

	assert.ElementsMatch(t, []int{http.StatusCreated, http.StatusConflict}, codes)
	assert.Equal(t, 0, env.productStock(t, p.ID))
}

func TestE2E_OutOfStockAndPermissions(t *testing.T) {
	env := setupTestEnv(t)
	token := env.cashier(t, "cashier1")
	p := env.createProduct(t, "000", "5.00", 0)

	resp := do(t, env.server, "POST", "/v1/cart/items", jsonBody(t, map[string]any{"product_id": p.ID, "quantity": 1}), token)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "insufficient_stock", errorCode(t, resp))

	resp = do(t, env.server, "GET", "/v1/cart", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view struct {
		Lines []any `json:"lines"`
	}
	decodeJSON(t, resp, &view)
	assert.Empty(t, view.Lines)

	// cashiers cannot manage the catalog or read reports
	resp = do(t, env.server, "PATCH", "/v1/products/"+p.ID+"/stock", jsonBody(t, map[string]any{"delta": 5}), token)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
	resp = do(t, env.server, "GET", "/v1/reports/sales", nil, token)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// the admin can, and a negative result is rejected
	resp = do(t, env.server, "PATCH", "/v1/products/"+p.ID+"/stock", jsonBody(t, map[string]any{"delta": -1}), env.admin)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
	resp = do(t, env.server, "PATCH", "/v1/products/"+p.ID+"/stock", jsonBody(t, map[string]any{"delta": 5}), env.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, 5, env.productStock(t, p.ID))
}

func TestE2E_CancelRestoresStockAndReports(t *testing.T) {
	env := setupTestEnv(t)
	token := env.cashier(t, "cashier1")
	p := env.createProduct(t, "321", "40.00", 10)

	commit := func(method string, qty int) txBody {
		resp := do(t, env.server, "POST", "/v1/cart/items", jsonBody(t, map[string]any{"product_id": p.ID, "quantity": qty}), token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
		resp = do(t, env.server, "POST", "/v1/transactions", jsonBody(t, map[string]any{"payment_method": method}), token)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var tx txBody
		decodeJSON(t, resp, &tx)
		return tx
	}

	commit("cash", 2)
	pending := commit("card", 3)
	assert.Equal(t, 5, env.productStock(t, p.ID))

	resp := do(t, env.server, "PATCH", "/v1/transactions/"+pending.ID+"/status", jsonBody(t, map[string]any{"status": "cancelled"}), token)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, "PATCH", "/v1/transactions/"+pending.ID+"/status", jsonBody(t, map[string]any{"status": "cancelled"}), env.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, 8, env.productStock(t, p.ID))

	resp = do(t, env.server, "GET", "/v1/reports/sales", nil, env.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var summary struct {
		Total            decimal.Decimal `json:"total"`
		TransactionCount int             `json:"transaction_count"`
	}
	decodeJSON(t, resp, &summary)
	assert.Equal(t, 1, summary.TransactionCount)
	assert.True(t, decimal.RequireFromString("80.00").Equal(summary.Total), fmt.Sprint(summary.Total))
}
