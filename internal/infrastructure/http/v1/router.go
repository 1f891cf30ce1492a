// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"revengepos/internal/app"
	"revengepos/internal/domain/auth"
	"revengepos/internal/domain/catalogs/category"
	"revengepos/internal/domain/catalogs/payment"
	"revengepos/internal/domain/catalogs/supplier"
	"revengepos/internal/infrastructure/http/v1/dto"
	"revengepos/internal/infrastructure/http/v1/handlers"
	"revengepos/internal/infrastructure/http/v1/middleware"
	"revengepos/internal/infrastructure/storage/postgres"
	"revengepos/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool backs the readiness probe
	Pool *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	Services *app.Services

	// Idempotency is consulted for POST/PUT/PATCH when IdempotencyEnabled is set
	Idempotency        middleware.IdempotencyStore
	IdempotencyEnabled bool

	// Development enables gin debug mode
	Development bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	if cfg.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := dto.RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace(cfg.Logger))
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Services.Cache)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	v1 := router.Group("/api/v1")
	protected := v1.Group("")
	protected.Use(middleware.Auth(cfg.JWTValidator))
	if cfg.IdempotencyEnabled && cfg.Idempotency != nil {
		protected.Use(middleware.Idempotency(cfg.Idempotency))
	}

	base := handlers.NewBaseHandler()
	registerUserRoutes(protected, base, cfg.Services)
	registerCatalogRoutes(protected, base, cfg.Services)
	registerProductRoutes(protected, base, cfg.Services)
	registerSaleRoutes(protected, base, cfg.Services)
	registerPurchaseRoutes(protected, base, cfg.Services)
	registerReportRoutes(protected, base, cfg.Services)

	return router, nil
}

func registerUserRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	h := handlers.NewUserHandler(base, svc.Users, svc.Gate)

	rg.GET("/auth/me", h.Me)

	users := rg.Group("/users")
	users.GET("/cashiers", middleware.RequireAnyPermission(auth.PermUserManage, auth.PermReportRead), h.Cashiers)
	RegisterCatalogRoutes(users, h, auth.PermUserManage, auth.PermUserManage)
}

// registerCatalogRoutes registers the lookup catalogs.
func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	// --- CATEGORIES ---
	{
		h := handlers.NewCatalogHandler(base, handlers.CatalogHandlerConfig[*category.Category, dto.CategoryRequest, dto.CategoryRequest]{
			Service: svc.Categories,
			MapCreateDTO: func(req *dto.CategoryRequest) (*category.Category, error) {
				return req.ToEntity(), nil
			},
			MapUpdateDTO: func(req *dto.CategoryRequest, c *category.Category) error {
				req.ApplyTo(c)
				return nil
			},
		})
		RegisterCatalogRoutes(rg.Group("/categories"), h, auth.PermCategoryRead, auth.PermCategoryManage)
	}

	// --- SUPPLIERS ---
	{
		h := handlers.NewCatalogHandler(base, handlers.CatalogHandlerConfig[*supplier.Supplier, dto.SupplierRequest, dto.SupplierRequest]{
			Service: svc.Suppliers,
			MapCreateDTO: func(req *dto.SupplierRequest) (*supplier.Supplier, error) {
				return req.ToEntity(), nil
			},
			MapUpdateDTO: func(req *dto.SupplierRequest, s *supplier.Supplier) error {
				req.ApplyTo(s)
				return nil
			},
		})
		RegisterCatalogRoutes(rg.Group("/suppliers"), h, auth.PermPurchaseRead, auth.PermSupplierManage)
	}

	// --- PAYMENT METHODS ---
	{
		h := handlers.NewCatalogHandler(base, handlers.CatalogHandlerConfig[*payment.Method, dto.PaymentMethodRequest, dto.PaymentMethodRequest]{
			Service: svc.PaymentMethods,
			MapCreateDTO: func(req *dto.PaymentMethodRequest) (*payment.Method, error) {
				return req.ToEntity(), nil
			},
			MapUpdateDTO: func(req *dto.PaymentMethodRequest, m *payment.Method) error {
				req.ApplyTo(m)
				return nil
			},
		})
		// Every signed-in user may read payment methods; the checkout needs them.
		RegisterCatalogRoutes(rg.Group("/payment-methods"), h, "", auth.PermPaymentManage)
	}
}

func registerProductRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	h := handlers.NewProductHandler(base, svc.Products)
	products := rg.Group("/products")

	read := middleware.RequireAnyPermission(auth.PermProductRead, auth.PermProductManage)
	products.GET("/search", read, h.Search)
	products.GET("/code/:code", read, h.GetByCode)
	products.GET("/low-stock", read, h.LowStock)
	products.GET("/valuation", middleware.RequireAnyPermission(auth.PermProductManage, auth.PermReportRead), h.Valuation)
	products.GET("/:id/movements", read, h.Movements)
	products.POST("/:id/adjust", middleware.RequirePermission(auth.PermInventoryManage), h.AdjustStock)
	RegisterCatalogRoutes(products, h, auth.PermProductRead, auth.PermProductManage)
}

func registerSaleRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	h := handlers.NewSaleHandler(base, svc.Sales)
	sales := rg.Group("/sales")
	read := middleware.RequirePermission(auth.PermSaleRead)

	sales.POST("", middleware.RequirePermission(auth.PermSaleCreate), h.Create)
	sales.GET("", read, h.List)
	sales.GET("/summary/day", read, h.DaySummary)
	sales.GET("/top-products", read, h.TopSellers)
	sales.GET("/ticket/:ticket", read, h.GetByTicket)
	sales.GET("/cashier/:id", read, h.ByCashier)
	sales.GET("/cashier/:id/commission", read, h.Commission)
	sales.GET("/:id", read, h.Get)
}

func registerPurchaseRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	h := handlers.NewPurchaseHandler(base, svc.Purchases)
	purchases := rg.Group("/purchases")
	read := middleware.RequirePermission(auth.PermPurchaseRead)

	purchases.POST("", middleware.RequirePermission(auth.PermPurchaseCreate), h.Create)
	purchases.GET("", read, h.List)
	purchases.GET("/summary/month", read, h.MonthSummary)
	purchases.GET("/supplier/:id", read, h.BySupplier)
	purchases.GET("/:id", read, h.Get)
}

func registerReportRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	h := handlers.NewReportsHandler(base, svc.Reports)
	rep := rg.Group("/reports")
	rep.Use(middleware.RequirePermission(auth.PermReportRead))

	rep.GET("/sales", h.Sales)
	rep.GET("/purchases", h.Purchases)
	rep.GET("/inventory", h.Inventory)
	rep.GET("/stock-turnover", h.Turnover)
}
