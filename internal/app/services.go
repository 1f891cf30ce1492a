// Package app assembles repositories and domain services over one database.
// The HTTP server, the seed tool and the integration tests share it.
package app

import (
	"context"
	"fmt"

	"revengepos/internal/core/types"
	"revengepos/internal/domain"
	"revengepos/internal/domain/auth"
	"revengepos/internal/domain/catalogs/category"
	"revengepos/internal/domain/catalogs/payment"
	"revengepos/internal/domain/catalogs/product"
	"revengepos/internal/domain/catalogs/supplier"
	"revengepos/internal/domain/documents/purchase"
	"revengepos/internal/domain/documents/sale"
	"revengepos/internal/domain/ledger"
	"revengepos/internal/domain/pricing"
	"revengepos/internal/domain/readcache"
	"revengepos/internal/domain/reports"
	"revengepos/internal/infrastructure/cache"
	"revengepos/internal/infrastructure/numerator"
	"revengepos/internal/infrastructure/storage/postgres"
	"revengepos/internal/infrastructure/storage/postgres/auth_repo"
	"revengepos/internal/infrastructure/storage/postgres/catalog_repo"
	"revengepos/internal/infrastructure/storage/postgres/document_repo"
	"revengepos/internal/infrastructure/storage/postgres/register_repo"
	"revengepos/internal/infrastructure/storage/postgres/report_repo"
)

// Deps are the shared infrastructure handles.
type Deps struct {
	TxManager *postgres.TxManager
	// Cache defaults to an in-process cache.Memory.
	Cache readcache.Cache
	// TaxRate defaults to pricing.DefaultTaxRate when nil.
	TaxRate *types.Money
}

// Services is the wired domain layer.
type Services struct {
	Cache readcache.Cache

	Users          *auth.Service
	Gate           *auth.Gate
	Categories     *category.Service
	Suppliers      *supplier.Service
	PaymentMethods *payment.Service
	Products       *product.Service
	Ledger         *ledger.Ledger
	Sales          *sale.Service
	Purchases      *purchase.Service
	Reports        *reports.Service

	Events *postgres.OutboxPublisher
	Audit  *postgres.AuditService
}

// NewServices builds every repository and service over deps.TxManager.
func NewServices(deps Deps) (*Services, error) {
	txm := deps.TxManager
	if txm == nil {
		return nil, fmt.Errorf("app: tx manager is required")
	}
	readCache := deps.Cache
	if readCache == nil {
		readCache = cache.NewMemory()
	}

	auditService, err := postgres.NewAuditService(txm)
	if err != nil {
		return nil, fmt.Errorf("create audit service: %w", err)
	}
	outbox := postgres.NewOutboxPublisher(txm)

	userRepo := auth_repo.NewUserRepo(txm)
	categoryRepo := catalog_repo.NewCategoryRepo(txm)
	supplierRepo := catalog_repo.NewSupplierRepo(txm)
	paymentRepo := catalog_repo.NewPaymentMethodRepo(txm)
	productRepo := catalog_repo.NewProductRepo(txm)
	saleRepo := document_repo.NewSaleRepo(txm)
	purchaseRepo := document_repo.NewPurchaseRepo(txm)

	stockLedger := ledger.NewLedger(register_repo.NewLedgerRepo(txm), txm, readCache)
	gate := auth.NewGate(userRepo, readCache)
	calculator := pricing.NewDefaultCalculator()
	if deps.TaxRate != nil {
		calculator = pricing.NewCalculator(*deps.TaxRate)
	}

	products := product.NewService(product.Config{
		Repo:      productRepo,
		TxManager: txm,
		Ledger:    stockLedger,
		Cache:     readCache,
		Audit:     auditService,
		Events:    outbox,
	})

	tickets := numerator.NewWithResolver(func(ctx context.Context) numerator.Querier {
		return txm.GetQuerier(ctx)
	})

	return &Services{
		Cache:          readCache,
		Users:          auth.NewService(userRepo, txm, readCache),
		Gate:           gate,
		Categories:     category.NewService(categoryRepo, txm, productRepo),
		Suppliers:      supplier.NewService(supplierRepo, txm, purchaseRepo),
		PaymentMethods: payment.NewService(paymentRepo, txm),
		Products:       products,
		Ledger:         stockLedger,
		Sales: sale.NewService(sale.Config{
			Repo:           saleRepo,
			TxManager:      txm,
			Products:       products,
			Ledger:         stockLedger,
			Gate:           gate,
			PaymentMethods: domain.LookupFunc(paymentRepo.ExistsActive),
			Numerator:      tickets,
			Calculator:     calculator,
			Events:         outbox,
		}),
		Purchases: purchase.NewService(purchase.Config{
			Repo:       purchaseRepo,
			TxManager:  txm,
			Products:   products,
			CostPrices: productRepo,
			Ledger:     stockLedger,
			Actors:     gate,
			Suppliers:  domain.LookupFunc(supplierRepo.Exists),
			Calculator: calculator,
			Audit:      auditService,
			Events:     outbox,
		}),
		Reports: reports.NewService(report_repo.NewReportRepo(txm)),
		Events:  outbox,
		Audit:   auditService,
	}, nil
}
