package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/RainierLopez/pos-3l-variety-store-90/internal/apierror"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/dto"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/middleware"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/service"

	"github.com/gin-gonic/gin"
)

type TransactionsHandler struct {
	svc             service.TransactionService
	maxReceiptBytes int64
}

func NewTransactionsHandler(svc service.TransactionService, maxReceiptBytes int64) *TransactionsHandler {
	return &TransactionsHandler{svc: svc, maxReceiptBytes: maxReceiptBytes}
}

// Commit godoc
// @Summary      Commit the caller's cart as a transaction
// @Description  Atomic: re-checks stock, records items at their cart price, decrements stock. Cash settles immediately; card settles when card details are supplied; wallet waits for the receipt upload.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CommitTransactionRequest true "Payment"
// @Success      201  {object} dto.TransactionResponse
// @Failure      400  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/transactions [post]
func (h *TransactionsHandler) Commit(c *gin.Context) {
	var req dto.CommitTransactionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Commit(c.Request.Context(), middleware.GetIdentity(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary      List transactions, newest first
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Param        status         query string false "pending | completed | cancelled | all"
// @Param        payment_method query string false "cash | card | wallet | all"
// @Param        from           query string false "YYYY-MM-DD"
// @Param        to             query string false "YYYY-MM-DD"
// @Param        cashier_id     query string false "Cashier UUID"
// @Success      200  {object} dto.TransactionListResponse
// @Router       /v1/transactions [get]
func (h *TransactionsHandler) List(c *gin.Context) {
	var filter dto.TransactionFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TransactionsHandler) Get(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TransactionsHandler) ReceiptPDF(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.svc.WriteReceipt(c.Request.Context(), id, &buf); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=receipt_%s.pdf", id))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// WalletReceipt godoc
// @Summary      Upload the e-wallet payment screenshot; completes the transaction
// @Tags         transactions
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id            path     string true "Transaction UUID"
// @Param        receipt_image formData file   true "Receipt image"
// @Success      200  {object} dto.TransactionResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/transactions/{id}/wallet-receipt [post]
func (h *TransactionsHandler) WalletReceipt(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	fh, err := c.FormFile("receipt_image")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.WithCode("invalid_image", "receipt_image file is required"))
		return
	}
	if h.maxReceiptBytes > 0 && fh.Size > h.maxReceiptBytes {
		c.JSON(http.StatusBadRequest, apierror.WithCode("invalid_image", "receipt_image is too large"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.svc.AttachWalletReceipt(c.Request.Context(), id, data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TransactionsHandler) CardDetail(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.CardDetailsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AttachCardDetail(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SetStatus godoc
// @Summary      Admin override: complete or cancel a pending transaction
// @Description  Cancelling restores stock. Wallet transactions complete only through their receipt.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string               true "Transaction UUID"
// @Param        body body dto.SetStatusRequest true "Target status"
// @Success      200  {object} dto.TransactionResponse
// @Failure      403  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/transactions/{id}/status [patch]
func (h *TransactionsHandler) SetStatus(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.SetStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SetStatus(c.Request.Context(), middleware.GetIdentity(c), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
