package domain

import (
	"context"
	"fmt"

	"revengepos/internal/core/apperror"
	"revengepos/internal/core/entity"
	"revengepos/internal/core/id"
	"revengepos/internal/core/tx"
	"revengepos/pkg/logger"
)

// CatalogService provides CRUD for catalog entities.
//
// Before-hooks run outside the transaction and may reject the operation.
// After-hooks run only once the transaction has committed (cache invalidation
// is registered there); their failures are logged, never returned.
type CatalogService[T CatalogEntity] struct {
	repo      CatalogRepository[T]
	txManager tx.Manager
	hooks     *HookRegistry[T]

	entityName string
}

// CatalogServiceConfig configures the catalog service.
type CatalogServiceConfig[T CatalogEntity] struct {
	Repo       CatalogRepository[T]
	TxManager  tx.Manager
	EntityName string
}

// NewCatalogService creates a new catalog service.
func NewCatalogService[T CatalogEntity](cfg CatalogServiceConfig[T]) *CatalogService[T] {
	return &CatalogService[T]{
		repo:       cfg.Repo,
		txManager:  cfg.TxManager,
		hooks:      NewHookRegistry[T](),
		entityName: cfg.EntityName,
	}
}

// Hooks returns the hook registry for external registration.
func (s *CatalogService[T]) Hooks() *HookRegistry[T] {
	return s.hooks
}

// EntityName is used in error details.
func (s *CatalogService[T]) EntityName() string {
	return s.entityName
}

func (s *CatalogService[T]) normalizeValidationErr(err error) error {
	if _, ok := apperror.AsAppError(err); ok {
		return err
	}
	return apperror.NewValidation(err.Error())
}

func (s *CatalogService[T]) runAfter(ctx context.Context, event HookEvent, e T) {
	if err := s.hooks.Run(ctx, event, e); err != nil {
		logger.Warn(ctx, "after hook failed",
			"entity", s.entityName, "event", string(event), "id", e.GetID(), "error", err)
	}
}

// Create validates and inserts a new entity.
func (s *CatalogService[T]) Create(ctx context.Context, e T) error {
	if err := e.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}
	if err := s.hooks.Run(ctx, BeforeCreate, e); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, e); err != nil {
			return fmt.Errorf("create %s: %w", s.entityName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.runAfter(ctx, AfterCreate, e)
	return nil
}

// GetByID returns a visible entity. Deleted rows are reported as not found.
func (s *CatalogService[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	e, err := s.repo.GetByID(ctx, entityID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return e, apperror.NewNotFound(s.entityName, entityID.String())
		}
		return e, err
	}
	if !e.GetLifecycle().Visible() {
		var zero T
		return zero, apperror.NewNotFound(s.entityName, entityID.String())
	}
	return e, nil
}

// Update validates and persists changes to an existing entity.
func (s *CatalogService[T]) Update(ctx context.Context, e T) error {
	if _, err := s.GetByID(ctx, e.GetID()); err != nil {
		return err
	}
	if err := e.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}
	if err := s.hooks.Run(ctx, BeforeUpdate, e); err != nil {
		return err
	}

	e.Touch()
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, e); err != nil {
			return fmt.Errorf("update %s: %w", s.entityName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.runAfter(ctx, AfterUpdate, e)
	return nil
}

// Delete moves the entity to the terminal deleted state after the delete guards pass.
func (s *CatalogService[T]) Delete(ctx context.Context, entityID id.ID) error {
	e, err := s.GetByID(ctx, entityID)
	if err != nil {
		return err
	}
	if err := s.hooks.Run(ctx, BeforeDelete, e); err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.SetLifecycle(ctx, entityID, entity.LifecycleDeleted); err != nil {
			return fmt.Errorf("delete %s: %w", s.entityName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.SetLifecycle(entity.LifecycleDeleted)
	s.runAfter(ctx, AfterDelete, e)
	return nil
}

// SetLifecycle activates or deactivates an entity. Deleting goes through Delete.
func (s *CatalogService[T]) SetLifecycle(ctx context.Context, entityID id.ID, next entity.Lifecycle) error {
	if next == entity.LifecycleDeleted {
		return s.Delete(ctx, entityID)
	}

	e, err := s.GetByID(ctx, entityID)
	if err != nil {
		return err
	}
	if !e.GetLifecycle().CanTransitionTo(next) {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "lifecycle transition not allowed").
			WithDetail("entity", s.entityName).
			WithDetail("from", string(e.GetLifecycle())).
			WithDetail("to", string(next))
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.SetLifecycle(ctx, entityID, next)
	})
	if err != nil {
		return err
	}

	e.SetLifecycle(next)
	s.runAfter(ctx, AfterUpdate, e)
	return nil
}

// List retrieves entities with filtering.
func (s *CatalogService[T]) List(ctx context.Context, filter ListFilter) (ListResult[T], error) {
	return s.repo.List(ctx, filter)
}

// Exists reports whether a non-deleted entity exists.
func (s *CatalogService[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	return s.repo.Exists(ctx, entityID)
}
