package dto

import (
	"revengepos/internal/core/id"
	"revengepos/internal/domain/reports"
)

// ReportQuery selects the period and output format of a report.
type ReportQuery struct {
	From   string `form:"from"`
	To     string `form:"to"`
	Format string `form:"format"`
}

// TurnoverQuery selects the turnover sheet.
type TurnoverQuery struct {
	From        string   `form:"from" binding:"required"`
	To          string   `form:"to" binding:"required"`
	ProductIDs  []string `form:"productId"`
	IncludeZero bool     `form:"includeZero"`
	Limit       int      `form:"limit" binding:"min=0,max=1000"`
	Offset      int      `form:"offset" binding:"min=0"`
	Format      string   `form:"format"`
}

// ToFilter converts the query. The period is closed on both ends.
func (q *TurnoverQuery) ToFilter() (reports.TurnoverFilter, error) {
	from, err := ParseDate("from", q.From)
	if err != nil {
		return reports.TurnoverFilter{}, err
	}
	to, err := ParseDate("to", q.To)
	if err != nil {
		return reports.TurnoverFilter{}, err
	}

	ids := make([]id.ID, 0, len(q.ProductIDs))
	for _, raw := range q.ProductIDs {
		v, err := ParseID("productId", raw)
		if err != nil {
			return reports.TurnoverFilter{}, err
		}
		ids = append(ids, v)
	}

	return reports.TurnoverFilter{
		Period:      reports.Period{From: *from, To: *to},
		ProductIDs:  ids,
		IncludeZero: q.IncludeZero,
		Limit:       q.Limit,
		Offset:      q.Offset,
	}, nil
}
