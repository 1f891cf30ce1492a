// Package handlers provides HTTP request handlers.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"revengepos/internal/core/apperror"
	"revengepos/internal/core/entity"
	"revengepos/internal/core/id"
	"revengepos/internal/domain"
	domainFilter "revengepos/internal/domain/filter"
	"revengepos/internal/infrastructure/http/v1/dto"
)

// CatalogCRUD is the service surface the generic handler drives.
// *domain.CatalogService and the services embedding it satisfy it.
type CatalogCRUD[T domain.CatalogEntity] interface {
	Create(ctx context.Context, e T) error
	GetByID(ctx context.Context, entityID id.ID) (T, error)
	Update(ctx context.Context, e T) error
	Delete(ctx context.Context, entityID id.ID) error
	SetLifecycle(ctx context.Context, entityID id.ID, next entity.Lifecycle) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error)
}

// CatalogHandler provides generic HTTP handlers for catalog entities.
type CatalogHandler[T domain.CatalogEntity, CreateDTO any, UpdateDTO any] struct {
	*BaseHandler
	service CatalogCRUD[T]

	mapCreateDTO func(req *CreateDTO) (T, error)
	mapUpdateDTO func(req *UpdateDTO, existing T) error
}

// CatalogHandlerConfig configures the catalog handler.
type CatalogHandlerConfig[T domain.CatalogEntity, CreateDTO any, UpdateDTO any] struct {
	Service      CatalogCRUD[T]
	MapCreateDTO func(req *CreateDTO) (T, error)
	MapUpdateDTO func(req *UpdateDTO, existing T) error
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler[T domain.CatalogEntity, CreateDTO any, UpdateDTO any](
	base *BaseHandler,
	cfg CatalogHandlerConfig[T, CreateDTO, UpdateDTO],
) *CatalogHandler[T, CreateDTO, UpdateDTO] {
	return &CatalogHandler[T, CreateDTO, UpdateDTO]{
		BaseHandler:  base,
		service:      cfg.Service,
		mapCreateDTO: cfg.MapCreateDTO,
		mapUpdateDTO: cfg.MapUpdateDTO,
	}
}

// ListFilter builds a domain.ListFilter from the common query parameters.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) ListFilter(c *gin.Context) (domain.ListFilter, error) {
	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "name")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	if raw := c.Query("lifecycle"); raw != "" {
		l, err := entity.ParseLifecycle(raw)
		if err != nil {
			return filter, apperror.NewValidation("invalid lifecycle").WithDetail("value", raw)
		}
		filter.Lifecycle = &l
	}

	if raw := c.Query("categoryId"); raw != "" {
		categoryID, err := dto.ParseID("categoryId", raw)
		if err != nil {
			return filter, err
		}
		filter.CategoryID = &categoryID
	}

	if raw := c.Query("filter"); raw != "" {
		var advFilters []domainFilter.Item
		if err := json.Unmarshal([]byte(raw), &advFilters); err != nil {
			return filter, apperror.NewValidation("invalid filter format (json expected)")
		}
		filter.AdvancedFilters = advFilters
	}
	return filter, nil
}

// List handles GET /{entity} - list with filtering and pagination.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) List(c *gin.Context) {
	filter, err := h.ListFilter(c)
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      result.Items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /{entity}/:id
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) Get(c *gin.Context) {
	entityID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	e, err := h.service.GetByID(c.Request.Context(), entityID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, e)
}

// Create handles POST /{entity}
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) Create(c *gin.Context) {
	var req CreateDTO
	if !h.BindJSON(c, &req) {
		return
	}

	e, err := h.mapCreateDTO(&req)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(c.Request.Context(), e); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, e)
}

// Update handles PUT /{entity}/:id
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) Update(c *gin.Context) {
	ctx := c.Request.Context()

	entityID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	var req UpdateDTO
	if !h.BindJSON(c, &req) {
		return
	}

	existing, err := h.service.GetByID(ctx, entityID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.mapUpdateDTO(&req, existing); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Update(ctx, existing); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, existing)
}

// Delete handles DELETE /{entity}/:id (soft delete).
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) Delete(c *gin.Context) {
	entityID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), entityID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// SetLifecycle handles POST /{entity}/:id/lifecycle
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) SetLifecycle(c *gin.Context) {
	entityID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	var req dto.SetLifecycleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetLifecycle(c.Request.Context(), entityID, req.Value()); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "lifecycle updated")
}
