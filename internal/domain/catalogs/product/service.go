package product

import (
	"context"
	"fmt"
	"strings"

	"revengepos/internal/core/apperror"
	"revengepos/internal/core/id"
	"revengepos/internal/core/tx"
	"revengepos/internal/core/types"
	"revengepos/internal/domain"
	"revengepos/internal/domain/audit"
	"revengepos/internal/domain/events"
	"revengepos/internal/domain/ledger"
	"revengepos/pkg/logger"
)

const entityName = "product"

// StockLedger is the part of the inventory ledger the catalog uses.
type StockLedger interface {
	ApplyMovement(ctx context.Context, req ledger.MovementRequest) (*ledger.Movement, error)
	AdjustAbsolute(ctx context.Context, productID id.ID, newQuantity int64, kind ledger.Kind, reason string, actorID *id.ID) (*ledger.Movement, error)
	Movements(ctx context.Context, productID id.ID, limit int) ([]ledger.Movement, error)
}

// Config wires the product service. Cache, Audit and Events may be nil.
type Config struct {
	Repo      Repository
	TxManager tx.Manager
	Ledger    StockLedger
	Cache     Cache
	Audit     audit.Recorder
	Events    events.Publisher
}

// Service provides business logic for products.
type Service struct {
	*domain.CatalogService[*Product]

	repo      Repository
	txManager tx.Manager
	ledger    StockLedger
	cache     Cache
	audit     audit.Recorder
	events    events.Publisher
}

// NewService creates a product service.
func NewService(cfg Config) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       cfg.Repo,
		TxManager:  cfg.TxManager,
		EntityName: entityName,
	})

	svc := &Service{
		CatalogService: base,
		repo:           cfg.Repo,
		txManager:      cfg.TxManager,
		ledger:         cfg.Ledger,
		cache:          cfg.Cache,
		audit:          cfg.Audit,
		events:         cfg.Events,
	}
	if svc.audit == nil {
		svc.audit = audit.Nop{}
	}
	if svc.events == nil {
		svc.events = events.Nop{}
	}

	base.Hooks().OnBeforeDelete(svc.guardDelete)
	base.Hooks().OnAfterUpdate(svc.evict)
	base.Hooks().OnAfterDelete(svc.evict)
	return svc
}

// Create inserts a product. A positive opening stock is recorded as an
// inicial movement in the same transaction.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}
	if err := s.checkCode(ctx, p); err != nil {
		return err
	}

	opening := p.Stock
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p.Stock = 0
		if err := s.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		if opening > 0 {
			if _, err := s.ledger.ApplyMovement(ctx, ledger.MovementRequest{
				ProductID: p.ID,
				Kind:      ledger.KindInicial,
				Delta:     opening,
				Reason:    "opening stock",
				ActorID:   domain.ActorID(ctx),
			}); err != nil {
				return err
			}
		}
		return s.audit.LogChange(ctx, entityName, p.ID, audit.ActionCreate, nil, p.AuditSnapshot())
	})
	p.Stock = opening
	if err != nil {
		return err
	}

	logger.Info(ctx, "product created", "id", p.ID, "code", p.Code, "stock", p.Stock)
	return nil
}

// Update persists attribute changes. Stock in p is ignored and replaced with
// the stored value.
func (s *Service) Update(ctx context.Context, p *Product) error {
	current, err := s.CatalogService.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	p.Stock = current.Stock
	p.Lifecycle = current.Lifecycle
	p.CreatedAt = current.CreatedAt

	if err := p.Validate(ctx); err != nil {
		return err
	}
	if err := s.checkCode(ctx, p); err != nil {
		return err
	}

	p.Touch()
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, p); err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		return s.audit.LogChange(ctx, entityName, p.ID, audit.ActionUpdate, current.AuditSnapshot(), p.AuditSnapshot())
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, p.ID)
	return nil
}

// Get returns a visible product, from the cache when possible.
func (s *Service) Get(ctx context.Context, productID id.ID) (*Product, error) {
	var gen types.Generation
	if s.cache != nil {
		if p, ok := s.cache.GetProduct(ctx, productID); ok && p.Lifecycle.Visible() {
			return p, nil
		}
		gen = s.cache.ProductGeneration(ctx)
	}
	p, err := s.CatalogService.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.PutProduct(ctx, p, gen)
	}
	return p, nil
}

// GetByCode returns a visible product by its business code.
func (s *Service) GetByCode(ctx context.Context, code string) (*Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperror.NewValidation("code is required").WithDetail("field", "code")
	}
	var gen types.Generation
	if s.cache != nil {
		if p, ok := s.cache.GetProductByCode(ctx, code); ok && p.Lifecycle.Visible() {
			return p, nil
		}
		gen = s.cache.ProductGeneration(ctx)
	}
	p, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound(entityName, code)
		}
		return nil, err
	}
	if !p.Lifecycle.Visible() {
		return nil, apperror.NewNotFound(entityName, code)
	}
	if s.cache != nil {
		s.cache.PutProduct(ctx, p, gen)
	}
	return p, nil
}

// Search lists visible products whose name or code matches term.
func (s *Service) Search(ctx context.Context, term string, limit int) ([]*Product, error) {
	f := domain.DefaultListFilter()
	f.Search = strings.TrimSpace(term)
	if limit > 0 {
		f.Limit = limit
	}
	res, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// ListByCategory lists visible products of one category.
func (s *Service) ListByCategory(ctx context.Context, categoryID id.ID, limit, offset int) (domain.ListResult[*Product], error) {
	f := domain.DefaultListFilter()
	f.CategoryID = &categoryID
	if limit > 0 {
		f.Limit = limit
	}
	f.Offset = offset
	return s.repo.List(ctx, f)
}

// LowStock lists active products at or below their stock minimum.
func (s *Service) LowStock(ctx context.Context, limit int) ([]*Product, error) {
	return s.repo.ListLowStock(ctx, limit)
}

// Valuation returns Σ stock × cost over visible products.
func (s *Service) Valuation(ctx context.Context) (Valuation, error) {
	return s.repo.Valuation(ctx)
}

// Movements returns the stock history of a visible product, oldest first.
func (s *Service) Movements(ctx context.Context, productID id.ID, limit int) ([]ledger.Movement, error) {
	if _, err := s.CatalogService.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.ledger.Movements(ctx, productID, limit)
}

// AdjustKind is the type of a manual stock adjustment.
type AdjustKind string

const (
	// AdjustEntrada adds Quantity.
	AdjustEntrada AdjustKind = "entrada"
	// AdjustSalida removes Quantity and refuses to go below zero.
	AdjustSalida AdjustKind = "salida"
	// AdjustAjuste sets stock to Quantity.
	AdjustAjuste AdjustKind = "ajuste"
)

// AdjustRequest is a manual stock correction.
type AdjustRequest struct {
	ProductID id.ID
	Kind      AdjustKind
	Quantity  int64
	Reason    string
	ActorID   *id.ID
}

// AdjustStock applies a manual correction. An ajuste that leaves stock
// unchanged returns (nil, nil).
func (s *Service) AdjustStock(ctx context.Context, req AdjustRequest) (*ledger.Movement, error) {
	if req.Quantity < 0 {
		return nil, apperror.NewValidation("quantity cannot be negative").WithDetail("field", "quantity")
	}
	if req.Kind != AdjustAjuste && req.Quantity == 0 {
		return nil, apperror.NewValidation("quantity must be positive").WithDetail("field", "quantity")
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, apperror.NewValidation("reason is required").WithDetail("field", "reason")
	}

	p, err := s.CatalogService.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	var moved *ledger.Movement
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		switch req.Kind {
		case AdjustEntrada, AdjustSalida:
			delta, kind := req.Quantity, ledger.KindEntrada
			if req.Kind == AdjustSalida {
				delta, kind = -req.Quantity, ledger.KindSalida
			}
			moved, err = s.ledger.ApplyMovement(ctx, ledger.MovementRequest{
				ProductID: req.ProductID,
				Kind:      kind,
				Delta:     delta,
				Reference: &ledger.Reference{ID: req.ProductID, Kind: ledger.RefAjuste},
				Reason:    req.Reason,
				ActorID:   req.ActorID,
			})
		case AdjustAjuste:
			moved, err = s.ledger.AdjustAbsolute(ctx, req.ProductID, req.Quantity, ledger.KindAjuste, req.Reason, req.ActorID)
		default:
			return apperror.NewValidation("unknown adjustment kind").WithDetail("kind", string(req.Kind))
		}
		if err != nil || moved == nil {
			return err
		}
		if ev, low := events.NewStockLow(events.StockLowPayload{
			ProductID:    p.ID,
			Code:         p.Code,
			Name:         p.Name,
			Stock:        moved.StockAfter,
			StockMinimum: p.StockMinimum,
		}); low && moved.Delta < 0 {
			return s.events.Publish(ctx, ev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if moved != nil {
		s.invalidate(ctx, req.ProductID)
		logger.Info(ctx, "stock adjusted",
			"product_id", req.ProductID,
			"kind", string(req.Kind),
			"before", moved.StockBefore,
			"after", moved.StockAfter,
		)
	}
	return moved, nil
}

// Invalidate drops cached snapshots of the given products. Callers use it
// after their own transaction has committed.
func (s *Service) Invalidate(ctx context.Context, productIDs ...id.ID) {
	for _, pid := range productIDs {
		s.invalidate(ctx, pid)
	}
}

func (s *Service) invalidate(ctx context.Context, productID id.ID) {
	if s.cache != nil {
		s.cache.InvalidateProduct(ctx, productID)
	}
}

func (s *Service) evict(ctx context.Context, p *Product) error {
	s.invalidate(ctx, p.ID)
	return nil
}

// guardDelete keeps products with stock on hand out of the deleted state so
// that inventory valuation stays complete.
func (s *Service) guardDelete(_ context.Context, p *Product) error {
	if p.Stock > 0 {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "product still has stock").
			WithDetail("product_id", p.ID.String()).
			WithDetail("stock", p.Stock)
	}
	return nil
}

func (s *Service) checkCode(ctx context.Context, p *Product) error {
	existing, err := s.repo.GetByCode(ctx, p.Code)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != p.ID {
		return apperror.NewDuplicate(entityName, "code", p.Code)
	}
	return nil
}
