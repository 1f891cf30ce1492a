package supplier

import (
	"context"

	"revengepos/internal/core/apperror"
	"revengepos/internal/core/tx"
	"revengepos/internal/domain"
)

// Service provides business logic for suppliers.
type Service struct {
	*domain.CatalogService[*Supplier]
	purchases PurchaseCounter
}

// NewService creates a supplier service. Suppliers with purchases cannot be deleted.
func NewService(repo Repository, txManager tx.Manager, purchases PurchaseCounter) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Supplier]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "supplier",
	})
	svc := &Service{CatalogService: base, purchases: purchases}
	base.Hooks().OnBeforeDelete(svc.guardDelete)
	return svc
}

func (s *Service) guardDelete(ctx context.Context, sup *Supplier) error {
	n, err := s.purchases.CountBySupplier(ctx, sup.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "supplier has recorded purchases").
			WithDetail("supplier_id", sup.ID.String()).
			WithDetail("purchases", n)
	}
	return nil
}
