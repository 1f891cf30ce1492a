package sale

import (
	"context"
	"fmt"
	"time"

	"revengepos/internal/core/apperror"
	"revengepos/internal/core/entity"
	"revengepos/internal/core/id"
	"revengepos/internal/core/numerator"
	"revengepos/internal/core/tx"
	"revengepos/internal/core/types"
	"revengepos/internal/domain"
	"revengepos/internal/domain/auth"
	"revengepos/internal/domain/catalogs/product"
	"revengepos/internal/domain/events"
	"revengepos/internal/domain/ledger"
	"revengepos/internal/domain/pricing"
	"revengepos/pkg/logger"
)

// DefaultCommissionRate is the cashier commission when none is given.
var DefaultCommissionRate = types.MustMoney("0.02")

// Products resolves catalog snapshots and drops them from the read cache.
type Products interface {
	Get(ctx context.Context, productID id.ID) (*product.Product, error)
	Invalidate(ctx context.Context, productIDs ...id.ID)
}

// StockLedger reads stored stock and applies movements in lock order.
type StockLedger interface {
	StoredStock(ctx context.Context, productID id.ID) (int64, error)
	ApplyAll(ctx context.Context, reqs []ledger.MovementRequest) ([]*ledger.Movement, error)
}

// Gate authorizes the acting user.
type Gate interface {
	Authorize(ctx context.Context, userID id.ID, perm auth.Permission) (*auth.User, error)
}

// Lookup reports whether a reference row exists.
type Lookup interface {
	Exists(ctx context.Context, entityID id.ID) (bool, error)
}

// Config wires the sale service. Events may be nil.
type Config struct {
	Repo           Repository
	TxManager      tx.Manager
	Products       Products
	Ledger         StockLedger
	Gate           Gate
	PaymentMethods Lookup
	Numerator      numerator.Generator
	Calculator     *pricing.Calculator
	Events         events.Publisher
}

// Service creates and queries sales.
type Service struct {
	repo      Repository
	txManager tx.Manager
	products  Products
	ledger    StockLedger
	gate      Gate
	payments  Lookup
	numerator numerator.Generator
	calc      *pricing.Calculator
	events    events.Publisher

	now func() time.Time
}

// NewService creates a sale service.
func NewService(cfg Config) *Service {
	s := &Service{
		repo:      cfg.Repo,
		txManager: cfg.TxManager,
		products:  cfg.Products,
		ledger:    cfg.Ledger,
		gate:      cfg.Gate,
		payments:  cfg.PaymentMethods,
		numerator: cfg.Numerator,
		calc:      cfg.Calculator,
		events:    cfg.Events,
		now:       func() time.Time { return time.Now().UTC() },
	}
	if s.calc == nil {
		s.calc = pricing.NewDefaultCalculator()
	}
	if s.events == nil {
		s.events = events.Nop{}
	}
	return s
}

type resolvedCart struct {
	lines    []Line
	products map[id.ID]*product.Product
	// order lists product ids by first appearance.
	order []id.ID
}

// Create registers a sale and returns its receipt.
//
// Everything that can be checked without locks is checked before the
// transaction opens. Inside it the ticket number is issued, header and lines
// are written and every line removes its units from stock. A concurrency
// conflict repeats the transaction once.
func (s *Service) Create(ctx context.Context, req Request) (*Receipt, error) {
	cashier, err := s.gate.Authorize(ctx, req.CashierID, auth.PermSaleCreate)
	if err != nil {
		return nil, err
	}
	if err := req.validateShape(ctx); err != nil {
		return nil, err
	}

	cart, err := s.resolveCart(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	ok, err := s.payments.Exists(ctx, req.PaymentMethodID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.NewNotFound("payment_method", req.PaymentMethodID.String())
	}

	in := pricing.Input{Discount: req.Discount, Tax: req.Tax}
	for _, l := range cart.lines {
		in.Lines = append(in.Lines, pricing.Line{Quantity: l.Quantity, UnitPrice: l.UnitPrice, UnitDiscount: l.UnitDiscount})
	}
	totals, err := s.calc.Calculate(in)
	if err != nil {
		return nil, err
	}

	sale := &Sale{
		BaseEntity:      entity.BaseEntity{ID: id.New(), CreatedAt: s.now()},
		CashierID:       cashier.ID,
		Subtotal:        totals.Subtotal,
		Discount:        totals.Discount,
		Tax:             totals.Tax,
		Total:           totals.Total,
		PaymentMethodID: req.PaymentMethodID,
		Notes:           req.Notes,
		Lines:           cart.lines,
	}
	for i := range sale.Lines {
		sale.Lines[i].SaleID = sale.ID
	}

	onRetry := func(err error) {
		logger.Warn(ctx, "sale hit a concurrent modification, retrying", "sale_id", sale.ID, "error", err)
	}
	err = tx.RunWithRetry(ctx, s.txManager, onRetry, func(ctx context.Context) error {
		return s.persist(ctx, sale, cart)
	})
	if err != nil {
		return nil, err
	}

	s.products.Invalidate(ctx, cart.order...)

	logger.Info(ctx, "sale created",
		"id", sale.ID,
		"ticket", sale.TicketNumber,
		"cashier_id", sale.CashierID,
		"total", sale.Total.StringFixed(types.MoneyPlaces),
		"lines", len(sale.Lines),
	)

	return &Receipt{
		SaleID:       sale.ID,
		TicketNumber: sale.TicketNumber,
		Total:        sale.Total,
		LineCount:    len(sale.Lines),
	}, nil
}

func (s *Service) persist(ctx context.Context, sale *Sale, cart *resolvedCart) error {
	number, err := s.numerator.Next(ctx, numerator.TicketConfig(), sale.CreatedAt)
	if err != nil {
		return fmt.Errorf("issue ticket number: %w", err)
	}
	sale.TicketNumber = number

	if err := s.repo.Insert(ctx, sale); err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	if err := s.repo.InsertLines(ctx, sale.Lines); err != nil {
		return fmt.Errorf("insert sale lines: %w", err)
	}

	cashierID := sale.CashierID
	reqs := make([]ledger.MovementRequest, 0, len(sale.Lines))
	for _, l := range sale.Lines {
		reqs = append(reqs, ledger.MovementRequest{
			ProductID: l.ProductID,
			Kind:      ledger.KindSalida,
			Delta:     -l.Quantity,
			Reference: &ledger.Reference{ID: sale.ID, Kind: ledger.RefVenta},
			Reason:    "sale " + number,
			ActorID:   &cashierID,
		})
	}
	moved, err := s.ledger.ApplyAll(ctx, reqs)
	if err != nil {
		return err
	}

	batch := []events.Event{{
		AggregateType: "sale",
		AggregateID:   sale.ID,
		EventType:     events.SaleCreated,
		Payload: events.DocumentCreatedPayload{
			ID:        sale.ID,
			Number:    number,
			ActorID:   cashierID,
			Total:     sale.Total.StringFixed(types.MoneyPlaces),
			LineCount: len(sale.Lines),
		},
	}}
	batch = append(batch, lowStockEvents(cart.order, cart.products, moved)...)
	return s.events.Publish(ctx, batch...)
}

// resolveCart loads every product, fixes line prices and checks the
// aggregated quantity per product against stored stock. Cached snapshots
// only supply prices and names. The ledger repeats the check under the row lock.
func (s *Service) resolveCart(ctx context.Context, items []CartItem) (*resolvedCart, error) {
	cart := &resolvedCart{
		lines:    make([]Line, 0, len(items)),
		products: make(map[id.ID]*product.Product, len(items)),
	}
	requested := make(map[id.ID]int64, len(items))

	for i, item := range items {
		p, ok := cart.products[item.ProductID]
		if !ok {
			var err error
			p, err = s.products.Get(ctx, item.ProductID)
			if err != nil {
				return nil, err
			}
			if p.Lifecycle != entity.LifecycleActive {
				return nil, apperror.NewNotFound("product", item.ProductID.String())
			}
			cart.products[p.ID] = p
			cart.order = append(cart.order, p.ID)
		}
		requested[p.ID] += item.Quantity

		price := p.SalePrice
		if item.UnitPrice != nil {
			price = *item.UnitPrice
		}
		if item.UnitDiscount.GreaterThan(price) {
			return nil, apperror.NewValidation("unit discount exceeds unit price").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1).
				WithDetail("product_id", p.ID.String())
		}

		cart.lines = append(cart.lines, Line{
			ID:           id.New(),
			LineNo:       i + 1,
			ProductID:    p.ID,
			ProductCode:  p.Code,
			ProductName:  p.Name,
			Quantity:     item.Quantity,
			UnitPrice:    price,
			UnitDiscount: item.UnitDiscount,
			LineTotal:    pricing.Line{Quantity: item.Quantity, UnitPrice: price, UnitDiscount: item.UnitDiscount}.Subtotal(),
		})
	}

	for _, pid := range cart.order {
		stock, err := s.ledger.StoredStock(ctx, pid)
		if err != nil {
			return nil, err
		}
		if stock < requested[pid] {
			return nil, apperror.NewInsufficientStock(pid.String(), cart.products[pid].Code, requested[pid], stock)
		}
	}
	return cart, nil
}

// lowStockEvents returns one stock.low event per product whose final stock
// reached its minimum.
func lowStockEvents(order []id.ID, products map[id.ID]*product.Product, moved []*ledger.Movement) []events.Event {
	final := make(map[id.ID]int64, len(order))
	for _, m := range moved {
		final[m.ProductID] = m.StockAfter
	}
	var out []events.Event
	for _, pid := range order {
		stock, ok := final[pid]
		if !ok {
			continue
		}
		p := products[pid]
		if ev, low := events.NewStockLow(events.StockLowPayload{
			ProductID:    pid,
			Code:         p.Code,
			Name:         p.Name,
			Stock:        stock,
			StockMinimum: p.StockMinimum,
		}); low {
			out = append(out, ev)
		}
	}
	return out
}

// --- queries ---

// Get returns a sale with its lines.
func (s *Service) Get(ctx context.Context, saleID id.ID) (*Sale, error) {
	sale, err := s.repo.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.GetLines(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	sale.Lines = lines
	return sale, nil
}

// GetByTicket returns a sale with its lines by ticket number.
func (s *Service) GetByTicket(ctx context.Context, ticketNumber string) (*Sale, error) {
	sale, err := s.repo.GetByTicket(ctx, ticketNumber)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, sale.ID)
}

// List returns sale headers newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Sale], error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return s.repo.List(ctx, filter)
}

// ByCashier lists the sales of one cashier, optionally within [from, to).
func (s *Service) ByCashier(ctx context.Context, cashierID id.ID, from, to *time.Time) (domain.ListResult[*Sale], error) {
	return s.List(ctx, ListFilter{CashierID: &cashierID, From: from, To: to, Limit: 1000})
}

// DaySummary aggregates the sales of the calendar day containing day.
func (s *Service) DaySummary(ctx context.Context, day time.Time) (DaySummary, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	sum, err := s.repo.DaySummary(ctx, from, from.AddDate(0, 0, 1))
	if err != nil {
		return DaySummary{}, err
	}
	sum.Date = from
	return sum, nil
}

// TopSellers ranks products by units sold. limit <= 0 means 10.
func (s *Service) TopSellers(ctx context.Context, from, to *time.Time, limit int) ([]TopSeller, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.repo.TopSellers(ctx, from, to, limit)
}

// Commission computes a cashier commission over [from, to). A zero rate
// means DefaultCommissionRate.
func (s *Service) Commission(ctx context.Context, cashierID id.ID, from, to *time.Time, rate types.Money) (Commission, error) {
	if rate.IsZero() {
		rate = DefaultCommissionRate
	}
	if rate.IsNegative() {
		return Commission{}, apperror.NewValidation("commission rate cannot be negative").WithDetail("field", "rate")
	}
	totals, err := s.repo.CashierTotals(ctx, cashierID, from, to)
	if err != nil {
		return Commission{}, err
	}
	return Commission{
		CashierID:   cashierID,
		SalesCount:  totals.SalesCount,
		Amount:      totals.Amount,
		RatePercent: rate.Mul(types.MoneyFromInt(100)),
		Commission:  types.RoundMoney(totals.Amount.Mul(rate)),
	}, nil
}
