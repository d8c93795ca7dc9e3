package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/RainierLopez/pos-3l-variety-store-90/internal/dto"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// PriceCheckHandler serves the public price check endpoint.
// No authentication required and no side effects besides the cache.
type PriceCheckHandler struct {
	svc service.CatalogService
	rdb *redis.Client
}

func NewPriceCheckHandler(svc service.CatalogService, rdb *redis.Client) *PriceCheckHandler {
	return &PriceCheckHandler{svc: svc, rdb: rdb}
}

// GetByBarcode godoc
// @Summary Price check by barcode (no authentication)
// @Tags price
// @Produce json
// @Param barcode path string true "Barcode"
// @Success 200 {object} dto.PriceCheckResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/price/{barcode} [get]
func (h *PriceCheckHandler) GetByBarcode(c *gin.Context) {
	barcode := strings.TrimSpace(c.Param("barcode"))
	ctx := c.Request.Context()
	cacheKey := service.PriceCacheKey(barcode)

	if h.rdb != nil {
		if cached, err := h.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var resp dto.PriceCheckResponse
			if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
				c.JSON(http.StatusOK, resp)
				return
			}
		}
	}

	p, err := h.svc.GetByBarcode(ctx, barcode)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := dto.PriceCheckResponse{
		Name:     p.Name,
		Price:    p.Price,
		Stock:    p.Stock,
		Category: p.Category,
	}

	// Populate cache, best effort
	if h.rdb != nil {
		if b, jsonErr := json.Marshal(resp); jsonErr == nil {
			_ = h.rdb.Set(context.Background(), cacheKey, b, service.PriceCacheTTL).Err()
		}
	}
	c.JSON(http.StatusOK, resp)
}
