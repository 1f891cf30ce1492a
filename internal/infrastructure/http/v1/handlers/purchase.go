package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"revengepos/internal/core/apperror"
	"revengepos/internal/domain/documents/purchase"
	"revengepos/internal/infrastructure/http/v1/dto"
)

// PurchaseHandler serves supplier receipts.
type PurchaseHandler struct {
	*BaseHandler
	service *purchase.Service
}

// NewPurchaseHandler creates a new purchase handler.
func NewPurchaseHandler(base *BaseHandler, service *purchase.Service) *PurchaseHandler {
	return &PurchaseHandler{BaseHandler: base, service: service}
}

// Create handles POST /purchases.
func (h *PurchaseHandler) Create(c *gin.Context) {
	actorID, ok := h.Actor(c)
	if !ok {
		return
	}

	var req dto.CreatePurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	domainReq, err := req.ToDomain(actorID)
	if err != nil {
		h.Error(c, err)
		return
	}

	receipt, err := h.service.Create(c.Request.Context(), domainReq)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, receipt)
}

// Get handles GET /purchases/:id
func (h *PurchaseHandler) Get(c *gin.Context) {
	purchaseID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.Get(c.Request.Context(), purchaseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// List handles GET /purchases
func (h *PurchaseHandler) List(c *gin.Context) {
	var q dto.ListPurchasesQuery
	if !h.BindQuery(c, &q) {
		return
	}

	filter, err := q.ToFilter()
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

// BySupplier handles GET /purchases/supplier/:id
func (h *PurchaseHandler) BySupplier(c *gin.Context) {
	supplierID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.BySupplier(c.Request.Context(), supplierID)
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

// MonthSummary handles GET /purchases/summary/month?year=&month=
// (default current month, UTC).
func (h *PurchaseHandler) MonthSummary(c *gin.Context) {
	now := time.Now().UTC()
	year := h.ParseIntQuery(c, "year", now.Year())
	month := h.ParseIntQuery(c, "month", int(now.Month()))
	if month < 1 || month > 12 {
		h.Error(c, apperror.NewValidation("month must be between 1 and 12").
			WithDetail("field", "month").
			WithDetail("value", strconv.Itoa(month)))
		return
	}

	summary, err := h.service.MonthSummary(c.Request.Context(), year, time.Month(month))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
