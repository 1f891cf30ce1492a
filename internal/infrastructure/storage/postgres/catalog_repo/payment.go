package catalog_repo

import (
	"revengepos/internal/domain/catalogs/payment"
	"revengepos/internal/infrastructure/storage/postgres"
)

const paymentMethodTable = "payment_methods"

// PaymentMethodRepo implements payment.Repository. Sales reference only
// active methods, see ExistsActive.
type PaymentMethodRepo struct {
	*BaseCatalogRepo[*payment.Method]
}

// NewPaymentMethodRepo creates a new payment method repository.
func NewPaymentMethodRepo(txManager *postgres.TxManager) *PaymentMethodRepo {
	return &PaymentMethodRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			paymentMethodTable,
			postgres.ExtractDBColumns[payment.Method](),
			func() *payment.Method { return &payment.Method{} },
			"lifecycle",
		),
	}
}
