// Package render turns report results into downloadable documents.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"revengepos/internal/core/apperror"
	"revengepos/internal/domain/reports"
)

// Format is an output document format.
type Format string

const (
	FormatJSON Format = "json"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ParseFormat maps the `format` query value. Empty means JSON; "excel" is
// accepted as an alias of xlsx.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "pdf":
		return FormatPDF, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	}
	return "", apperror.NewValidation("unsupported report format").
		WithDetail("field", "format").
		WithDetail("value", s)
}

// ContentType returns the MIME type of documents in this format.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/json"
}

// FileName builds the attachment name, e.g. "ventas_2025-03-15.pdf".
func (f Format) FileName(base string, at time.Time) string {
	return fmt.Sprintf("%s_%s.%s", base, at.Format(time.DateOnly), f)
}

// Write renders report into w. report must be one of the reports package
// result types.
func Write(w io.Writer, format Format, report any) error {
	switch format {
	case FormatPDF:
		return writePDF(w, report)
	case FormatXLSX:
		return writeXLSX(w, report)
	}
	return fmt.Errorf("render: format %q is not a document format", format)
}

// BaseName is the file name stem for a report value.
func BaseName(report any) string {
	switch report.(type) {
	case *reports.SalesReport:
		return "ventas"
	case *reports.PurchasesReport:
		return "compras"
	case *reports.InventoryReport:
		return "inventario"
	case *reports.TurnoverReport:
		return "movimientos"
	}
	return "reporte"
}

func period(p reports.Period) string {
	return p.From.Format(time.DateOnly) + " - " + p.To.Format(time.DateOnly)
}

// --- tabular projection shared by both formats ---

type table struct {
	title   string
	headers []string
	widths  []float64
	rows    [][]string
}

type document struct {
	title   string
	summary [][2]string
	tables  []table
}

func project(report any) (*document, error) {
	switch r := report.(type) {
	case *reports.SalesReport:
		return salesDocument(r), nil
	case *reports.PurchasesReport:
		return purchasesDocument(r), nil
	case *reports.InventoryReport:
		return inventoryDocument(r), nil
	case *reports.TurnoverReport:
		return turnoverDocument(r), nil
	}
	return nil, fmt.Errorf("render: unsupported report type %T", report)
}

func salesDocument(r *reports.SalesReport) *document {
	d := &document{
		title: "Reporte de ventas",
		summary: [][2]string{
			{"Periodo", period(r.Period)},
			{"Ventas", fmt.Sprint(r.Summary.SalesCount)},
			{"Monto total", r.Summary.Revenue.StringFixed(2)},
			{"Ticket promedio", r.Summary.Average.StringFixed(2)},
			{"Venta minima", r.Summary.Minimum.StringFixed(2)},
			{"Venta maxima", r.Summary.Maximum.StringFixed(2)},
		},
	}
	d.tables = append(d.tables,
		dayTable("Ventas por dia", r.ByDay),
		productTable("Productos mas vendidos", r.TopProducts),
		groupTable("Por metodo de pago", "Metodo", r.ByPayment),
		groupTable("Por cajero", "Cajero", r.ByCashier),
	)
	return d
}

func purchasesDocument(r *reports.PurchasesReport) *document {
	d := &document{
		title: "Reporte de compras",
		summary: [][2]string{
			{"Periodo", period(r.Period)},
			{"Compras", fmt.Sprint(r.Summary.PurchasesCount)},
			{"Monto total", r.Summary.Spent.StringFixed(2)},
			{"Promedio", r.Summary.Average.StringFixed(2)},
		},
	}
	d.tables = append(d.tables,
		groupTable("Por proveedor", "Proveedor", r.BySupplier),
		productTable("Productos mas comprados", r.TopProducts),
		dayTable("Compras por dia", r.ByDay),
	)
	return d
}

func inventoryDocument(r *reports.InventoryReport) *document {
	d := &document{
		title: "Reporte de inventario",
		summary: [][2]string{
			{"Generado", r.GeneratedAt.Format("2006-01-02 15:04")},
			{"Productos", fmt.Sprint(r.Summary.Products)},
			{"Valor al costo", r.Summary.CostValue.StringFixed(2)},
			{"Valor de venta", r.Summary.SaleValue.StringFixed(2)},
			{"Stock bajo", fmt.Sprint(r.Summary.LowStock)},
			{"Sin stock", fmt.Sprint(r.Summary.OutOfStock)},
		},
	}

	cat := table{
		title:   "Por categoria",
		headers: []string{"Categoria", "Productos", "Unidades", "Valor"},
		widths:  []float64{80, 30, 30, 40},
	}
	for _, c := range r.ByCategory {
		cat.rows = append(cat.rows, []string{c.CategoryName, fmt.Sprint(c.Products), fmt.Sprint(c.Units), c.CostValue.StringFixed(2)})
	}
	d.tables = append(d.tables, cat, stockTable("Stock bajo", r.LowStock), stockTable("Sin stock", r.OutOfStock))
	return d
}

func turnoverDocument(r *reports.TurnoverReport) *document {
	t := table{
		title:   "Movimientos por producto",
		headers: []string{"Codigo", "Producto", "Inicial", "Entradas", "Salidas", "Final"},
		widths:  []float64{28, 64, 22, 22, 22, 22},
	}
	for _, it := range r.Items {
		t.rows = append(t.rows, []string{
			it.ProductCode, it.ProductName,
			fmt.Sprint(it.Opening), fmt.Sprint(it.Receipt), fmt.Sprint(it.Expense), fmt.Sprint(it.Closing),
		})
	}
	t.rows = append(t.rows, []string{
		"", "Total",
		fmt.Sprint(r.TotalOpening), fmt.Sprint(r.TotalReceipt), fmt.Sprint(r.TotalExpense), fmt.Sprint(r.TotalClosing),
	})
	return &document{
		title:   "Movimientos de inventario",
		summary: [][2]string{{"Periodo", period(r.Period)}},
		tables:  []table{t},
	}
}

func dayTable(title string, days []reports.DayTotal) table {
	t := table{title: title, headers: []string{"Fecha", "Cantidad", "Total"}, widths: []float64{60, 40, 50}}
	for _, d := range days {
		t.rows = append(t.rows, []string{d.Day.Format(time.DateOnly), fmt.Sprint(d.Count), d.Total.StringFixed(2)})
	}
	return t
}

func productTable(title string, products []reports.ProductTotal) table {
	t := table{
		title:   title,
		headers: []string{"Codigo", "Producto", "Categoria", "Cantidad", "Total", "%"},
		widths:  []float64{28, 58, 36, 20, 28, 20},
	}
	for _, p := range products {
		t.rows = append(t.rows, []string{
			p.ProductCode, p.ProductName, p.CategoryName,
			fmt.Sprint(p.Quantity), p.Total.StringFixed(2), p.Share.StringFixed(2),
		})
	}
	return t
}

func groupTable(title, label string, groups []reports.GroupTotal) table {
	t := table{
		title:   title,
		headers: []string{label, "Cantidad", "Total", "Promedio", "%"},
		widths:  []float64{60, 25, 35, 35, 25},
	}
	for _, g := range groups {
		t.rows = append(t.rows, []string{
			g.Name, fmt.Sprint(g.Count), g.Total.StringFixed(2), g.Average.StringFixed(2), g.Share.StringFixed(2),
		})
	}
	return t
}

func stockTable(title string, items []reports.StockItem) table {
	t := table{
		title:   title,
		headers: []string{"Codigo", "Producto", "Categoria", "Stock", "Minimo"},
		widths:  []float64{30, 70, 40, 20, 20},
	}
	for _, it := range items {
		t.rows = append(t.rows, []string{it.Code, it.Name, it.CategoryName, fmt.Sprint(it.Stock), fmt.Sprint(it.StockMinimum)})
	}
	return t
}
