package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/RainierLopez/pos-3l-variety-store-90/internal/cart"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/dto"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/middleware"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/model"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTxService answers Commit and SetStatus with a fixed error and keeps the
// request it was given.
type stubTxService struct {
	service.TransactionService
	err    error
	commit *dto.CommitTransactionRequest
	status *string
}

func (s *stubTxService) Commit(_ context.Context, _ model.Identity, req dto.CommitTransactionRequest) (*dto.TransactionResponse, error) {
	s.commit = &req
	return nil, s.err
}

func (s *stubTxService) SetStatus(_ context.Context, _ model.Identity, _ uuid.UUID, status string) (*dto.TransactionResponse, error) {
	s.status = &status
	return nil, s.err
}

type stubCartService struct {
	service.CartService
	err error
	qty *int
}

func (s *stubCartService) Add(_ context.Context, _, _ uuid.UUID, qty int) (*cart.Summary, error) {
	s.qty = &qty
	return nil, s.err
}

func withIdentity(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.IdentityKey, model.Identity{UserID: uuid.New(), Username: "tester", Role: role})
		c.Next()
	}
}

func send(r http.Handler, method, path, body string) (int, string) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	code, _ := resp["code"].(string)
	return w.Code, code
}

func TestCommit_ServiceOrdersTheChecks(t *testing.T) {
	svc := &stubTxService{err: service.ErrEmptyCart}
	r := gin.New()
	r.POST("/transactions", withIdentity(model.RoleCashier), NewTransactionsHandler(svc, 1<<20).Commit)

	status, code := send(r, http.MethodPost, "/transactions", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "empty_cart", code)
	require.NotNil(t, svc.commit, "a missing payment method reaches the service")
	assert.Empty(t, svc.commit.PaymentMethod)

	svc.err = service.ErrInvalidPaymentMethod
	status, code = send(r, http.MethodPost, "/transactions", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_payment_method", code)

	svc.err = service.ErrInvalidCardDetails
	status, code = send(r, http.MethodPost, "/transactions", `{"payment_method":"card","card":{}}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_card_details", code)
}

func TestSetStatus_EmptyStatusIsInvalidStatus(t *testing.T) {
	svc := &stubTxService{err: service.ErrInvalidStatus}
	r := gin.New()
	r.PATCH("/transactions/:id/status", withIdentity(model.RoleAdmin), NewTransactionsHandler(svc, 1<<20).SetStatus)

	status, code := send(r, http.MethodPatch, "/transactions/"+uuid.NewString()+"/status", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_status", code)
	require.NotNil(t, svc.status)
}

func TestCartAdd_ZeroQuantityIsInvalidQuantity(t *testing.T) {
	svc := &stubCartService{err: service.ErrInvalidQuantity}
	r := gin.New()
	r.POST("/cart/items", withIdentity(model.RoleCashier), NewCartHandler(svc).Add)

	status, code := send(r, http.MethodPost, "/cart/items", `{"product_id":"`+uuid.NewString()+`","quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_quantity", code)
	require.NotNil(t, svc.qty)
	assert.Zero(t, *svc.qty)
}
