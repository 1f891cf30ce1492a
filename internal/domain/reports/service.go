package reports

import (
	"context"
	"fmt"
	"time"

	"revengepos/internal/core/apperror"
	"revengepos/internal/core/types"
)

const (
	defaultSalesDays     = 7
	defaultPurchasesDays = 30
	topProducts          = 10
)

var hundred = types.MoneyFromInt(100)

// Service provides report generation operations.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new reports service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// ResolvePeriod fills missing bounds: To defaults to today and From to
// days-1 before To. Both bounds are truncated to UTC days.
func ResolvePeriod(from, to *time.Time, days int, now time.Time) (Period, error) {
	p := Period{To: day(now)}
	if to != nil {
		p.To = day(*to)
	}
	p.From = p.To.AddDate(0, 0, -(days - 1))
	if from != nil {
		p.From = day(*from)
	}
	if p.From.After(p.To) {
		return Period{}, apperror.NewValidation("from must not be after to").
			WithDetail("from", p.From.Format(time.DateOnly)).
			WithDetail("to", p.To.Format(time.DateOnly))
	}
	return p, nil
}

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Sales builds the sales report. Without bounds it covers the last 7 days.
func (s *Service) Sales(ctx context.Context, from, to *time.Time) (*SalesReport, error) {
	period, err := ResolvePeriod(from, to, defaultSalesDays, s.now())
	if err != nil {
		return nil, err
	}
	start, end := period.Bounds()
	report, err := s.repo.Sales(ctx, start, end, topProducts)
	if err != nil {
		return nil, fmt.Errorf("get sales report: %w", err)
	}
	report.Period = period

	grand := report.Summary.Revenue
	for i := range report.TopProducts {
		report.TopProducts[i].Share = share(report.TopProducts[i].Total, grand)
	}
	fillGroups(report.ByPayment, grand)
	fillGroups(report.ByCashier, grand)
	return report, nil
}

// Purchases builds the purchases report. Without bounds it covers the last
// 30 days.
func (s *Service) Purchases(ctx context.Context, from, to *time.Time) (*PurchasesReport, error) {
	period, err := ResolvePeriod(from, to, defaultPurchasesDays, s.now())
	if err != nil {
		return nil, err
	}
	start, end := period.Bounds()
	report, err := s.repo.Purchases(ctx, start, end, topProducts)
	if err != nil {
		return nil, fmt.Errorf("get purchases report: %w", err)
	}
	report.Period = period

	grand := report.Summary.Spent
	for i := range report.TopProducts {
		report.TopProducts[i].Share = share(report.TopProducts[i].Total, grand)
	}
	fillGroups(report.BySupplier, grand)
	return report, nil
}

// Inventory builds the stock snapshot report.
func (s *Service) Inventory(ctx context.Context) (*InventoryReport, error) {
	report, err := s.repo.Inventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("get inventory report: %w", err)
	}
	report.GeneratedAt = s.now()
	return report, nil
}

// Turnover builds the movement sheet (opening, receipts, expenses, closing)
// per product.
func (s *Service) Turnover(ctx context.Context, filter TurnoverFilter) (*TurnoverReport, error) {
	if filter.Period.From.IsZero() || filter.Period.To.IsZero() {
		return nil, apperror.NewValidation("from and to are required")
	}
	if filter.Period.From.After(filter.Period.To) {
		return nil, apperror.NewValidation("from must not be after to")
	}
	filter.Period = Period{From: day(filter.Period.From), To: day(filter.Period.To)}

	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}

	items, err := s.repo.Turnover(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get stock turnover report: %w", err)
	}

	report := &TurnoverReport{Period: filter.Period, Items: items}
	for _, it := range items {
		report.TotalOpening += it.Opening
		report.TotalReceipt += it.Receipt
		report.TotalExpense += it.Expense
		report.TotalClosing += it.Closing
	}
	return report, nil
}

// share returns part as a percentage of whole with two decimals.
func share(part, whole types.Money) types.Money {
	if !whole.IsPositive() {
		return types.Zero()
	}
	return part.Mul(hundred).Div(whole).Round(2)
}

func fillGroups(groups []GroupTotal, grand types.Money) {
	for i := range groups {
		g := &groups[i]
		g.Share = share(g.Total, grand)
		g.Average = types.Zero()
		if g.Count > 0 {
			g.Average = types.RoundMoney(g.Total.Div(types.MoneyFromInt(g.Count)))
		}
	}
}
