package render

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

const (
	pdfMargin = 12.0
	rowHeight = 6.0
)

func writePDF(w io.Writer, report any) error {
	doc, err := project(report)
	if err != nil {
		return err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont("Helvetica", "I", 7)
		pdf.CellFormat(0, 4, fmt.Sprintf("Pagina %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 2*pdfMargin

	// Header
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, tr(doc.title), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	// Summary
	pdf.SetFont("Helvetica", "", 9)
	for _, kv := range doc.summary {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(45, 5, tr(kv[0]+":"), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(contentW-45, 5, tr(kv[1]), "", 1, "L", false, 0, "")
	}

	for _, t := range doc.tables {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(contentW, 6, tr(t.title), "", 1, "L", false, 0, "")

		pdf.SetFillColor(230, 230, 230)
		pdf.SetFont("Helvetica", "B", 8)
		for i, h := range t.headers {
			pdf.CellFormat(t.widths[i], rowHeight, tr(h), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 8)
		if len(t.rows) == 0 {
			pdf.CellFormat(sum(t.widths), rowHeight, "Sin datos", "1", 1, "C", false, 0, "")
			continue
		}
		for _, row := range t.rows {
			for i, cell := range row {
				align := "R"
				if i == 0 || t.headers[i] == "Producto" || t.headers[i] == "Categoria" {
					align = "L"
				}
				pdf.CellFormat(t.widths[i], rowHeight, tr(fit(pdf, cell, t.widths[i])), "1", 0, align, false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: write: %w", err)
	}
	return nil
}

// fit truncates s so it fits in a cell of width w.
func fit(pdf *fpdf.Fpdf, s string, w float64) string {
	r := []rune(s)
	for len(r) > 1 && pdf.GetStringWidth(string(r)) > w-2 {
		r = r[:len(r)-1]
	}
	if len(r) < len([]rune(s)) && len(r) > 1 {
		r[len(r)-1] = '.'
	}
	return string(r)
}

func sum(v []float64) float64 {
	var t float64
	for _, x := range v {
		t += x
	}
	return t
}
