package purchase

import (
	"context"
	"fmt"
	"time"

	"revengepos/internal/core/apperror"
	"revengepos/internal/core/entity"
	"revengepos/internal/core/id"
	"revengepos/internal/core/tx"
	"revengepos/internal/core/types"
	"revengepos/internal/domain"
	"revengepos/internal/domain/audit"
	"revengepos/internal/domain/auth"
	"revengepos/internal/domain/catalogs/product"
	"revengepos/internal/domain/events"
	"revengepos/internal/domain/ledger"
	"revengepos/internal/domain/pricing"
	"revengepos/pkg/logger"
)

// Products resolves catalog snapshots and drops them from the read cache.
type Products interface {
	Get(ctx context.Context, productID id.ID) (*product.Product, error)
	Invalidate(ctx context.Context, productIDs ...id.ID)
}

// CostPrices raises stored cost prices.
type CostPrices interface {
	RaiseCostPrice(ctx context.Context, productID id.ID, unitCost types.Money) (bool, error)
}

// StockLedger applies stock movements in lock order.
type StockLedger interface {
	ApplyAll(ctx context.Context, reqs []ledger.MovementRequest) ([]*ledger.Movement, error)
}

// Actors resolves the acting user.
type Actors interface {
	GetUser(ctx context.Context, userID id.ID) (*auth.User, error)
}

// Lookup reports whether a reference row exists.
type Lookup interface {
	Exists(ctx context.Context, entityID id.ID) (bool, error)
}

// Config wires the purchase service. Audit and Events may be nil.
type Config struct {
	Repo       Repository
	TxManager  tx.Manager
	Products   Products
	CostPrices CostPrices
	Ledger     StockLedger
	Actors     Actors
	Suppliers  Lookup
	Calculator *pricing.Calculator
	Audit      audit.Recorder
	Events     events.Publisher
}

// Service creates and queries purchases.
type Service struct {
	repo      Repository
	txManager tx.Manager
	products  Products
	costs     CostPrices
	ledger    StockLedger
	actors    Actors
	suppliers Lookup
	calc      *pricing.Calculator
	audit     audit.Recorder
	events    events.Publisher

	now func() time.Time
}

// NewService creates a purchase service.
func NewService(cfg Config) *Service {
	s := &Service{
		repo:      cfg.Repo,
		txManager: cfg.TxManager,
		products:  cfg.Products,
		costs:     cfg.CostPrices,
		ledger:    cfg.Ledger,
		actors:    cfg.Actors,
		suppliers: cfg.Suppliers,
		calc:      cfg.Calculator,
		audit:     cfg.Audit,
		events:    cfg.Events,
		now:       func() time.Time { return time.Now().UTC() },
	}
	if s.calc == nil {
		s.calc = pricing.NewDefaultCalculator()
	}
	if s.audit == nil {
		s.audit = audit.Nop{}
	}
	if s.events == nil {
		s.events = events.Nop{}
	}
	return s
}

// Create registers a purchase: header, lines, one entrada movement per line
// and a cost price raise wherever the invoice cost exceeds the stored one.
func (s *Service) Create(ctx context.Context, req Request) (*Receipt, error) {
	actor, err := s.actors.GetUser(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}
	if err := req.validateShape(); err != nil {
		return nil, err
	}

	ok, err := s.suppliers.Exists(ctx, req.SupplierID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.NewNotFound("supplier", req.SupplierID.String())
	}

	lines, products, order, err := s.resolveItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	calcLines := make([]pricing.Line, len(lines))
	for i, l := range lines {
		calcLines[i] = pricing.Line{Quantity: l.Quantity, UnitPrice: l.UnitCost}
	}
	totals, err := s.calc.CalculatePurchase(calcLines, req.Tax)
	if err != nil {
		return nil, err
	}

	p := &Purchase{
		BaseEntity:    entity.BaseEntity{ID: id.New(), CreatedAt: s.now()},
		InvoiceNumber: req.InvoiceNumber,
		SupplierID:    req.SupplierID,
		ActorID:       actor.ID,
		Subtotal:      totals.Subtotal,
		Tax:           totals.Tax,
		Total:         totals.Total,
		Notes:         req.Notes,
		Lines:         lines,
	}
	for i := range p.Lines {
		p.Lines[i].PurchaseID = p.ID
	}

	onRetry := func(err error) {
		logger.Warn(ctx, "purchase hit a concurrent modification, retrying", "purchase_id", p.ID, "error", err)
	}
	err = tx.RunWithRetry(ctx, s.txManager, onRetry, func(ctx context.Context) error {
		return s.persist(ctx, p, products)
	})
	if err != nil {
		return nil, err
	}

	s.products.Invalidate(ctx, order...)

	logger.Info(ctx, "purchase created",
		"id", p.ID,
		"invoice", p.InvoiceNumber,
		"supplier_id", p.SupplierID,
		"total", p.Total.StringFixed(types.MoneyPlaces),
		"lines", len(p.Lines),
	)

	return &Receipt{
		PurchaseID:    p.ID,
		InvoiceNumber: p.InvoiceNumber,
		Total:         p.Total,
		LineCount:     len(p.Lines),
	}, nil
}

func (s *Service) persist(ctx context.Context, p *Purchase, products map[id.ID]*product.Product) error {
	if err := s.repo.Insert(ctx, p); err != nil {
		return fmt.Errorf("insert purchase: %w", err)
	}
	if err := s.repo.InsertLines(ctx, p.Lines); err != nil {
		return fmt.Errorf("insert purchase lines: %w", err)
	}

	actorID := p.ActorID
	reqs := make([]ledger.MovementRequest, 0, len(p.Lines))
	for _, l := range p.Lines {
		reqs = append(reqs, ledger.MovementRequest{
			ProductID: l.ProductID,
			Kind:      ledger.KindEntrada,
			Delta:     l.Quantity,
			Reference: &ledger.Reference{ID: p.ID, Kind: ledger.RefCompra},
			Reason:    "purchase " + p.InvoiceNumber,
			ActorID:   &actorID,
		})
	}
	if _, err := s.ledger.ApplyAll(ctx, reqs); err != nil {
		return err
	}

	// cost follows each raise so repeated lines audit against the previous line
	cost := make(map[id.ID]types.Money, len(products))
	for pid, prod := range products {
		cost[pid] = prod.CostPrice
	}
	for _, l := range p.Lines {
		raised, err := s.costs.RaiseCostPrice(ctx, l.ProductID, l.UnitCost)
		if err != nil {
			return fmt.Errorf("raise cost price: %w", err)
		}
		if !raised {
			continue
		}
		prev := cost[l.ProductID]
		cost[l.ProductID] = l.UnitCost
		err = s.audit.LogChange(ctx, "product", l.ProductID, audit.ActionCostRaise,
			map[string]any{"cost_price": prev.StringFixed(types.MoneyPlaces)},
			map[string]any{"cost_price": l.UnitCost.StringFixed(types.MoneyPlaces), "purchase_id": p.ID.String()},
		)
		if err != nil {
			return err
		}
	}

	return s.events.Publish(ctx, events.Event{
		AggregateType: "purchase",
		AggregateID:   p.ID,
		EventType:     events.PurchaseCreated,
		Payload: events.DocumentCreatedPayload{
			ID:        p.ID,
			Number:    p.InvoiceNumber,
			ActorID:   actorID,
			Total:     p.Total.StringFixed(types.MoneyPlaces),
			LineCount: len(p.Lines),
		},
	})
}

func (s *Service) resolveItems(ctx context.Context, items []Item) ([]Line, map[id.ID]*product.Product, []id.ID, error) {
	lines := make([]Line, 0, len(items))
	products := make(map[id.ID]*product.Product, len(items))
	var order []id.ID

	for i, item := range items {
		p, ok := products[item.ProductID]
		if !ok {
			var err error
			p, err = s.products.Get(ctx, item.ProductID)
			if err != nil {
				return nil, nil, nil, err
			}
			products[p.ID] = p
			order = append(order, p.ID)
		}
		lines = append(lines, Line{
			ID:          id.New(),
			LineNo:      i + 1,
			ProductID:   p.ID,
			ProductCode: p.Code,
			ProductName: p.Name,
			Quantity:    item.Quantity,
			UnitCost:    item.UnitCost,
			LineTotal:   pricing.Line{Quantity: item.Quantity, UnitPrice: item.UnitCost}.Subtotal(),
		})
	}
	return lines, products, order, nil
}

// --- queries ---

// Get returns a purchase with its lines.
func (s *Service) Get(ctx context.Context, purchaseID id.ID) (*Purchase, error) {
	p, err := s.repo.GetByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.GetLines(ctx, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	p.Lines = lines
	return p, nil
}

// List returns purchase headers newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Purchase], error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return s.repo.List(ctx, filter)
}

// BySupplier lists the purchases of one supplier.
func (s *Service) BySupplier(ctx context.Context, supplierID id.ID) (domain.ListResult[*Purchase], error) {
	return s.List(ctx, ListFilter{SupplierID: &supplierID, Limit: 1000})
}

// MonthSummary aggregates the purchases of one calendar month (UTC).
func (s *Service) MonthSummary(ctx context.Context, year int, month time.Month) (MonthSummary, error) {
	if month < time.January || month > time.December {
		return MonthSummary{}, apperror.NewValidation("invalid month").WithDetail("field", "month")
	}
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	sum, err := s.repo.Summary(ctx, from, from.AddDate(0, 1, 0))
	if err != nil {
		return MonthSummary{}, err
	}
	sum.Year, sum.Month = year, int(month)
	return sum, nil
}

// CountBySupplier implements supplier.PurchaseCounter.
func (s *Service) CountBySupplier(ctx context.Context, supplierID id.ID) (int64, error) {
	return s.repo.CountBySupplier(ctx, supplierID)
}
