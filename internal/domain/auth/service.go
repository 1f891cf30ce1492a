package auth

import (
	"context"

	"revengepos/internal/core/apperror"
	"revengepos/internal/core/tx"
	"revengepos/internal/domain"
)

// Service manages staff users.
type Service struct {
	*domain.CatalogService[*User]
	repo UserRepository
}

// NewService creates a user service that evicts cached snapshots after every change.
func NewService(repo UserRepository, txManager tx.Manager, cache UserCache) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*User]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "user",
	})
	svc := &Service{CatalogService: base, repo: repo}

	base.Hooks().OnBeforeCreate(svc.checkUsername)
	base.Hooks().OnBeforeUpdate(svc.checkUsername)

	if cache != nil {
		evict := func(ctx context.Context, u *User) error {
			cache.InvalidateUser(ctx, u.ID)
			return nil
		}
		base.Hooks().OnAfterUpdate(evict)
		base.Hooks().OnAfterDelete(evict)
	}
	return svc
}

func (s *Service) checkUsername(ctx context.Context, u *User) error {
	existing, err := s.repo.GetByUsername(ctx, u.Username)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != u.ID {
		return apperror.NewDuplicate("user", "username", u.Username)
	}
	return nil
}

// ListCashiers returns users with the cashier role.
func (s *Service) ListCashiers(ctx context.Context) ([]*User, error) {
	return s.repo.ListByRole(ctx, RoleCashier)
}
