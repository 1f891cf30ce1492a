package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"revengepos/internal/domain/documents/sale"
	"revengepos/internal/infrastructure/http/v1/dto"
)

// SaleHandler serves checkout and sale queries.
type SaleHandler struct {
	*BaseHandler
	service *sale.Service
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(base *BaseHandler, service *sale.Service) *SaleHandler {
	return &SaleHandler{BaseHandler: base, service: service}
}

// Create handles POST /sales. The cashier is the authenticated user.
func (h *SaleHandler) Create(c *gin.Context) {
	cashierID, ok := h.Actor(c)
	if !ok {
		return
	}

	var req dto.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	domainReq, err := req.ToDomain(cashierID)
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

// Get handles GET /sales/:id
func (h *SaleHandler) Get(c *gin.Context) {
	saleID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	s, err := h.service.Get(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, s)
}

// GetByTicket handles GET /sales/ticket/:ticket
func (h *SaleHandler) GetByTicket(c *gin.Context) {
	s, err := h.service.GetByTicket(c.Request.Context(), c.Param("ticket"))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, s)
}

// List handles GET /sales
func (h *SaleHandler) List(c *gin.Context) {
	var q dto.ListSalesQuery
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

// ByCashier handles GET /sales/cashier/:id
func (h *SaleHandler) ByCashier(c *gin.Context) {
	cashierID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	from, to, err := dto.ParseDateRange(c.Query("from"), c.Query("to"))
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.ByCashier(c.Request.Context(), cashierID, from, to)
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

// DaySummary handles GET /sales/summary/day?date=YYYY-MM-DD (default today, UTC).
func (h *SaleHandler) DaySummary(c *gin.Context) {
	day, err := dto.ParseDate("date", c.Query("date"))
	if err != nil {
		h.Error(c, err)
		return
	}
	if day == nil {
		today := time.Now().UTC()
		day = &today
	}

	summary, err := h.service.DaySummary(c.Request.Context(), *day)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// TopSellers handles GET /sales/top-products
func (h *SaleHandler) TopSellers(c *gin.Context) {
	from, to, err := dto.ParseDateRange(c.Query("from"), c.Query("to"))
	if err != nil {
		h.Error(c, err)
		return
	}

	items, err := h.service.TopSellers(c.Request.Context(), from, to, h.ParseIntQuery(c, "limit", 10))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ItemsResponse{Items: items})
}

// Commission handles GET /sales/cashier/:id/commission
func (h *SaleHandler) Commission(c *gin.Context) {
	cashierID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	var q dto.CommissionQuery
	if !h.BindQuery(c, &q) {
		return
	}

	from, to, err := dto.ParseDateRange(q.From, q.To)
	if err != nil {
		h.Error(c, err)
		return
	}
	rate, err := q.ParseRate()
	if err != nil {
		h.Error(c, err)
		return
	}

	commission, err := h.service.Commission(c.Request.Context(), cashierID, from, to, rate)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, commission)
}
