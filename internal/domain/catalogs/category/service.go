package category

import (
	"context"

	"revengepos/internal/core/apperror"
	"revengepos/internal/core/tx"
	"revengepos/internal/domain"
)

// Service provides business logic for categories.
type Service struct {
	*domain.CatalogService[*Category]
	products ProductCounter
}

// NewService creates a category service. A category with live products cannot be deleted.
func NewService(repo Repository, txManager tx.Manager, products ProductCounter) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Category]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "category",
	})
	svc := &Service{CatalogService: base, products: products}
	base.Hooks().OnBeforeDelete(svc.guardDelete)
	return svc
}

func (s *Service) guardDelete(ctx context.Context, c *Category) error {
	n, err := s.products.CountByCategory(ctx, c.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "category still has products").
			WithDetail("category_id", c.ID.String()).
			WithDetail("products", n)
	}
	return nil
}
