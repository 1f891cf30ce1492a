package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"revengepos/internal/core/apperror"
	"revengepos/internal/domain"
	"revengepos/internal/domain/catalogs/product"
	"revengepos/internal/infrastructure/http/v1/dto"
)

// ProductHandler serves the product catalog and manual stock adjustments.
type ProductHandler struct {
	*CatalogHandler[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]
	service *product.Service
}

// NewProductHandler creates a new product handler.
func NewProductHandler(base *BaseHandler, service *product.Service) *ProductHandler {
	crud := NewCatalogHandler(base, CatalogHandlerConfig[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]{
		Service:      service,
		MapCreateDTO: (*dto.CreateProductRequest).ToEntity,
		MapUpdateDTO: (*dto.UpdateProductRequest).ApplyTo,
	})
	return &ProductHandler{CatalogHandler: crud, service: service}
}

// Get handles GET /products/:id through the read cache.
func (h *ProductHandler) Get(c *gin.Context) {
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.Get(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// GetByCode handles GET /products/code/:code
func (h *ProductHandler) GetByCode(c *gin.Context) {
	p, err := h.service.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// Search handles GET /products/search?q=
func (h *ProductHandler) Search(c *gin.Context) {
	term := c.Query("q")
	if term == "" {
		h.Error(c, apperror.NewValidation("search term is required").WithDetail("field", "q"))
		return
	}

	items, err := h.service.Search(c.Request.Context(), term, h.ParseIntQuery(c, "limit", 20))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ItemsResponse{Items: items})
}

// LowStock handles GET /products/low-stock
func (h *ProductHandler) LowStock(c *gin.Context) {
	items, err := h.service.LowStock(c.Request.Context(), h.ParseIntQuery(c, "limit", 100))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ItemsResponse{Items: items})
}

// Valuation handles GET /products/valuation
func (h *ProductHandler) Valuation(c *gin.Context) {
	v, err := h.service.Valuation(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, v)
}

// Movements handles GET /products/:id/movements
func (h *ProductHandler) Movements(c *gin.Context) {
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	items, err := h.service.Movements(c.Request.Context(), productID, h.ParseIntQuery(c, "limit", 200))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ItemsResponse{Items: items})
}

// AdjustStock handles POST /products/:id/adjust
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	ctx := c.Request.Context()

	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	var req dto.AdjustStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	movement, err := h.service.AdjustStock(ctx, req.ToDomain(productID, domain.ActorID(ctx)))
	if err != nil {
		h.Error(c, err)
		return
	}

	// An ajuste to the current stock records nothing.
	if movement == nil {
		h.NoContent(c)
		return
	}

	h.Created(c, movement)
}
