// Package main provides a CLI tool for seeding the database with initial data.
//
// It creates the admin user and, with SEED_DEMO_DATA=true, a small demo
// catalog with opening stock and one supplier purchase. It prints a signed
// access token for the admin when JWT_SECRET is available.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"revengepos/internal/app"
	"revengepos/internal/config"
	"revengepos/internal/core/apperror"
	"revengepos/internal/core/id"
	"revengepos/internal/core/types"
	"revengepos/internal/domain"
	"revengepos/internal/domain/auth"
	"revengepos/internal/domain/catalogs/category"
	"revengepos/internal/domain/catalogs/product"
	"revengepos/internal/domain/catalogs/supplier"
	"revengepos/internal/domain/documents/purchase"
	"revengepos/internal/infrastructure/storage/postgres"
	"revengepos/internal/infrastructure/storage/postgres/auth_repo"
	"revengepos/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
		Service:     "seed",
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Database.URL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)
	services, err := app.NewServices(app.Deps{TxManager: txManager, TaxRate: &cfg.Pricing.TaxRate})
	if err != nil {
		log.Fatalw("failed to build services", "error", err)
	}

	admin, err := seedAdminUser(ctx, services, auth_repo.NewUserRepo(txManager), log)
	if err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, services, admin.ID, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	token, err := issueToken(cfg.JWT.Secret, admin)
	if err != nil {
		log.Warnw("failed to sign admin token", "error", err)
	} else {
		fmt.Printf("admin access token (24h):\n%s\n", token)
	}

	log.Info("seeding completed successfully")
}

func seedAdminUser(ctx context.Context, services *app.Services, users *auth_repo.UserRepo, log *logger.Logger) (*auth.User, error) {
	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}

	existing, err := users.GetByUsername(ctx, username)
	if err == nil {
		log.Infow("admin user already exists", "username", username, "user_id", existing.ID)
		return existing, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, fmt.Errorf("check admin exists: %w", err)
	}

	admin := auth.NewUser(username, "Administrador", auth.RoleAdmin)
	if err := services.Users.Create(ctx, admin); err != nil {
		return nil, fmt.Errorf("create admin user: %w", err)
	}

	log.Infow("admin user created", "username", username, "user_id", admin.ID)
	return admin, nil
}

type productSeed struct {
	code, name string
	cost, sale string
	stock, min int64
}

type categorySeed struct {
	name     string
	products []productSeed
}

var demoCatalog = []categorySeed{
	{"Bebidas", []productSeed{
		{"BEB-001", "Agua mineral 625ml", "0.80", "1.50", 120, 24},
		{"BEB-002", "Gaseosa cola 500ml", "1.20", "2.50", 80, 24},
		{"BEB-003", "Jugo de naranja 1L", "2.60", "4.90", 30, 10},
	}},
	{"Abarrotes", []productSeed{
		{"ABA-001", "Arroz extra 5kg", "16.50", "22.90", 40, 10},
		{"ABA-002", "Aceite vegetal 1L", "6.80", "9.50", 36, 12},
		{"ABA-003", "Azúcar rubia 1kg", "3.10", "4.20", 50, 15},
	}},
	{"Limpieza", []productSeed{
		{"LIM-001", "Detergente 900g", "7.40", "10.90", 25, 8},
		{"LIM-002", "Lejía 1L", "2.10", "3.50", 4, 6},
	}},
}

func seedDemoData(ctx context.Context, services *app.Services, adminID id.ID, log *logger.Logger) error {
	filter := domain.DefaultListFilter()
	filter.Limit = 1
	existing, err := services.Products.List(ctx, filter)
	if err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if existing.TotalCount > 0 {
		log.Infow("products already present, skipping demo data", "products", existing.TotalCount)
		return nil
	}

	log.Info("seeding demo data...")

	var firstProducts []*product.Product
	for _, cs := range demoCatalog {
		c := category.NewCategory(cs.name, "")
		if err := services.Categories.Create(ctx, c); err != nil {
			return fmt.Errorf("create category %s: %w", cs.name, err)
		}

		for _, ps := range cs.products {
			p := product.NewProduct(ps.code, ps.name, types.MustMoney(ps.cost), types.MustMoney(ps.sale))
			p.CategoryID = &c.ID
			p.Stock = ps.stock
			p.StockMinimum = ps.min
			if err := services.Products.Create(ctx, p); err != nil {
				return fmt.Errorf("create product %s: %w", ps.code, err)
			}
			if len(firstProducts) < 2 {
				firstProducts = append(firstProducts, p)
			}
		}
		log.Infow("seeded category", "name", cs.name, "products", len(cs.products))
	}

	s := supplier.NewSupplier("Distribuidora Central")
	s.TaxID = "20123456789"
	s.Phone = "01-555-0101"
	if err := services.Suppliers.Create(ctx, s); err != nil {
		return fmt.Errorf("create supplier: %w", err)
	}

	items := make([]purchase.Item, 0, len(firstProducts))
	for _, p := range firstProducts {
		items = append(items, purchase.Item{ProductID: p.ID, Quantity: 24, UnitCost: p.CostPrice})
	}
	receipt, err := services.Purchases.Create(ctx, purchase.Request{
		InvoiceNumber: "F001-000001",
		SupplierID:    s.ID,
		ActorID:       adminID,
		Items:         items,
		Notes:         "Compra inicial de demostración",
	})
	if err != nil {
		return fmt.Errorf("create demo purchase: %w", err)
	}

	log.Infow("demo data seeded", "supplier_id", s.ID, "purchase_id", receipt.PurchaseID, "purchase_total", receipt.Total)
	return nil
}

func issueToken(secret string, u *auth.User) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("JWT_SECRET is empty")
	}
	now := time.Now()
	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
		},
		UserID: u.ID.String(),
		Name:   u.FullName,
		Role:   int16(u.RoleID),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
