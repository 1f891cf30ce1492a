package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"revengepos/internal/core/apperror"
	"revengepos/internal/domain/reports"
	"revengepos/internal/infrastructure/http/v1/dto"
	"revengepos/internal/infrastructure/render"
)

// ReportsHandler handles HTTP requests for reports.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Sales handles GET /reports/sales
func (h *ReportsHandler) Sales(c *gin.Context) {
	var q dto.ReportQuery
	if !h.BindQuery(c, &q) {
		return
	}
	format, from, to, ok := h.periodQuery(c, &q)
	if !ok {
		return
	}

	report, err := h.service.Sales(c.Request.Context(), from, to)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c, format, report)
}

// Purchases handles GET /reports/purchases
func (h *ReportsHandler) Purchases(c *gin.Context) {
	var q dto.ReportQuery
	if !h.BindQuery(c, &q) {
		return
	}
	format, from, to, ok := h.periodQuery(c, &q)
	if !ok {
		return
	}

	report, err := h.service.Purchases(c.Request.Context(), from, to)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c, format, report)
}

// Inventory handles GET /reports/inventory
func (h *ReportsHandler) Inventory(c *gin.Context) {
	format, err := render.ParseFormat(c.Query("format"))
	if err != nil {
		h.Error(c, err)
		return
	}

	report, err := h.service.Inventory(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c, format, report)
}

// Turnover handles GET /reports/stock-turnover
func (h *ReportsHandler) Turnover(c *gin.Context) {
	var q dto.TurnoverQuery
	if !h.BindQuery(c, &q) {
		return
	}
	format, err := render.ParseFormat(q.Format)
	if err != nil {
		h.Error(c, err)
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	report, err := h.service.Turnover(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c, format, report)
}

func (h *ReportsHandler) periodQuery(c *gin.Context, q *dto.ReportQuery) (render.Format, *time.Time, *time.Time, bool) {
	format, err := render.ParseFormat(q.Format)
	if err != nil {
		h.Error(c, err)
		return "", nil, nil, false
	}
	from, err := dto.ParseDate("from", q.From)
	if err != nil {
		h.Error(c, err)
		return "", nil, nil, false
	}
	to, err := dto.ParseDate("to", q.To)
	if err != nil {
		h.Error(c, err)
		return "", nil, nil, false
	}
	return format, from, to, true
}

// respond writes report as JSON or as a downloadable document.
func (h *ReportsHandler) respond(c *gin.Context, format render.Format, report any) {
	if format == render.FormatJSON {
		c.JSON(http.StatusOK, report)
		return
	}

	var buf bytes.Buffer
	if err := render.Write(&buf, format, report); err != nil {
		h.Error(c, apperror.NewInternal(fmt.Errorf("render %s report: %w", format, err)))
		return
	}

	name := format.FileName(render.BaseName(report), time.Now().UTC())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}
