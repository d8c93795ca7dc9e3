package handler

import (
	"net/http"

	"github.com/RainierLopez/pos-3l-variety-store-90/internal/apierror"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/dto"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/middleware"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CartHandler exposes the caller's own cart; the cashier is always the
// authenticated identity.
type CartHandler struct{ svc service.CartService }

func NewCartHandler(svc service.CartService) *CartHandler { return &CartHandler{svc: svc} }

func (h *CartHandler) View(c *gin.Context) {
	resp, err := h.svc.View(c.Request.Context(), middleware.GetIdentity(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Add godoc
// @Summary      Add a product to the cart
// @Tags         cart
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.AddCartItemRequest true "Product and quantity"
// @Success      200  {object} cart.Summary
// @Failure      409  {object} apierror.APIError
// @Router       /v1/cart/items [post]
func (h *CartHandler) Add(c *gin.Context) {
	var req dto.AddCartItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	pid, err := uuid.Parse(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.WithCode("invalid_id", "Invalid product_id"))
		return
	}
	resp, err := h.svc.Add(c.Request.Context(), middleware.GetIdentity(c).UserID, pid, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) Scan(c *gin.Context) {
	var req dto.ScanRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddByBarcode(c.Request.Context(), middleware.GetIdentity(c).UserID, req.Barcode, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) Update(c *gin.Context) {
	pid, ok := paramUUID(c, "product_id")
	if !ok {
		return
	}
	var req dto.UpdateCartItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), middleware.GetIdentity(c).UserID, pid, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) Remove(c *gin.Context) {
	pid, ok := paramUUID(c, "product_id")
	if !ok {
		return
	}
	resp, err := h.svc.Remove(c.Request.Context(), middleware.GetIdentity(c).UserID, pid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.svc.Clear(c.Request.Context(), middleware.GetIdentity(c).UserID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
