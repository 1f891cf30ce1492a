package dto

import (
	"revengepos/internal/core/apperror"
	"revengepos/internal/core/id"
	"revengepos/internal/core/types"
	"revengepos/internal/domain/auth"
	"revengepos/internal/domain/catalogs/category"
	"revengepos/internal/domain/catalogs/payment"
	"revengepos/internal/domain/catalogs/product"
	"revengepos/internal/domain/catalogs/supplier"
)

// --- Products ---

// CreateProductRequest creates a product. Stock is the opening stock.
type CreateProductRequest struct {
	Code         string      `json:"code" binding:"required,max=64"`
	Name         string      `json:"name" binding:"required,max=200"`
	Description  string      `json:"description"`
	CategoryID   *string     `json:"categoryId"`
	CostPrice    types.Money `json:"costPrice" binding:"money"`
	SalePrice    types.Money `json:"salePrice" binding:"money"`
	Stock        int64       `json:"stock" binding:"min=0"`
	StockMinimum int64       `json:"stockMinimum" binding:"min=0"`
}

// ToEntity converts the request to a product.
func (r *CreateProductRequest) ToEntity() (*product.Product, error) {
	categoryID, err := ParseOptionalID("categoryId", r.CategoryID)
	if err != nil {
		return nil, err
	}
	p := product.NewProduct(r.Code, r.Name, r.CostPrice, r.SalePrice)
	p.Description = r.Description
	p.CategoryID = categoryID
	p.Stock = r.Stock
	p.StockMinimum = r.StockMinimum
	return p, nil
}

// UpdateProductRequest changes product attributes. Stock is not editable here.
type UpdateProductRequest struct {
	Code         *string      `json:"code" binding:"omitempty,max=64"`
	Name         *string      `json:"name" binding:"omitempty,max=200"`
	Description  *string      `json:"description"`
	CategoryID   *string      `json:"categoryId"`
	CostPrice    *types.Money `json:"costPrice" binding:"omitempty,money"`
	SalePrice    *types.Money `json:"salePrice" binding:"omitempty,money"`
	StockMinimum *int64       `json:"stockMinimum" binding:"omitempty,min=0"`
}

// ApplyTo copies the set fields onto p. An empty categoryId clears the category.
func (r *UpdateProductRequest) ApplyTo(p *product.Product) error {
	if r.Code != nil {
		p.Code = *r.Code
	}
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.CategoryID != nil {
		categoryID, err := ParseOptionalID("categoryId", r.CategoryID)
		if err != nil {
			return err
		}
		p.CategoryID = categoryID
	}
	if r.CostPrice != nil {
		p.CostPrice = *r.CostPrice
	}
	if r.SalePrice != nil {
		p.SalePrice = *r.SalePrice
	}
	if r.StockMinimum != nil {
		p.StockMinimum = *r.StockMinimum
	}
	return nil
}

// AdjustStockRequest is a manual stock correction.
type AdjustStockRequest struct {
	Kind     string `json:"kind" binding:"required,oneof=entrada salida ajuste"`
	Quantity int64  `json:"quantity" binding:"min=0"`
	Reason   string `json:"reason" binding:"required,max=500"`
}

// ToDomain converts the request for productID.
func (r *AdjustStockRequest) ToDomain(productID id.ID, actorID *id.ID) product.AdjustRequest {
	return product.AdjustRequest{
		ProductID: productID,
		Kind:      product.AdjustKind(r.Kind),
		Quantity:  r.Quantity,
		Reason:    r.Reason,
		ActorID:   actorID,
	}
}

// --- Categories ---

// CategoryRequest creates or replaces a category.
type CategoryRequest struct {
	Name        string `json:"name" binding:"required,max=120"`
	Description string `json:"description"`
}

// ToEntity converts the request to a category.
func (r *CategoryRequest) ToEntity() *category.Category {
	return category.NewCategory(r.Name, r.Description)
}

// ApplyTo copies the request onto c.
func (r *CategoryRequest) ApplyTo(c *category.Category) {
	fresh := r.ToEntity()
	c.Name = fresh.Name
	c.Description = fresh.Description
}

// --- Suppliers ---

// SupplierRequest creates or replaces a supplier.
type SupplierRequest struct {
	Name    string `json:"name" binding:"required,max=200"`
	TaxID   string `json:"taxId" binding:"max=32"`
	Phone   string `json:"phone" binding:"max=32"`
	Email   string `json:"email" binding:"omitempty,email"`
	Address string `json:"address"`
}

// ToEntity converts the request to a supplier.
func (r *SupplierRequest) ToEntity() *supplier.Supplier {
	s := supplier.NewSupplier(r.Name)
	r.ApplyTo(s)
	return s
}

// ApplyTo copies the request onto s.
func (r *SupplierRequest) ApplyTo(s *supplier.Supplier) {
	s.Name = r.Name
	s.TaxID = r.TaxID
	s.Phone = r.Phone
	s.Email = r.Email
	s.Address = r.Address
}

// --- Payment methods ---

// PaymentMethodRequest creates or renames a payment method.
type PaymentMethodRequest struct {
	Name string `json:"name" binding:"required,max=80"`
}

// ToEntity converts the request to a payment method.
func (r *PaymentMethodRequest) ToEntity() *payment.Method {
	return payment.NewMethod(r.Name)
}

// ApplyTo copies the request onto m.
func (r *PaymentMethodRequest) ApplyTo(m *payment.Method) {
	m.Name = payment.NewMethod(r.Name).Name
}

// --- Users ---

// UserRequest creates or replaces a staff user.
type UserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	FullName string `json:"fullName" binding:"required,max=200"`
	Role     string `json:"role" binding:"required,oneof=admin cashier stock_worker"`
}

func (r *UserRequest) role() (auth.Role, error) {
	role, ok := auth.ParseRole(r.Role)
	if !ok {
		return 0, apperror.NewValidation("unknown role").WithDetail("field", "role")
	}
	return role, nil
}

// ToEntity converts the request to a user.
func (r *UserRequest) ToEntity() (*auth.User, error) {
	role, err := r.role()
	if err != nil {
		return nil, err
	}
	return auth.NewUser(r.Username, r.FullName, role), nil
}

// ApplyTo copies the request onto u.
func (r *UserRequest) ApplyTo(u *auth.User) error {
	role, err := r.role()
	if err != nil {
		return err
	}
	fresh := auth.NewUser(r.Username, r.FullName, role)
	u.Username = fresh.Username
	u.FullName = fresh.FullName
	u.RoleID = role
	return nil
}
