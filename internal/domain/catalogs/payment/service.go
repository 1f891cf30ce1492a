package payment

import (
	"revengepos/internal/core/tx"
	"revengepos/internal/domain"
)

// Repository defines the interface for payment method persistence.
type Repository interface {
	domain.CatalogRepository[*Method]
}

// Service provides business logic for payment methods.
type Service struct {
	*domain.CatalogService[*Method]
}

// NewService creates a payment method service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{CatalogService: domain.NewCatalogService(domain.CatalogServiceConfig[*Method]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "payment_method",
	})}
}
