package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revengepos/internal/core/apperror"
	"revengepos/internal/core/id"
	"revengepos/internal/core/types"
)

func validate(t *testing.T, raw string, dst any) error {
	t.Helper()
	require.NoError(t, RegisterValidators())
	require.NoError(t, json.Unmarshal([]byte(raw), dst))
	return binding.Validator.ValidateStruct(dst)
}

func TestMoneyValidator(t *testing.T) {
	productID := id.New().String()
	paymentID := id.New().String()

	tests := []struct {
		name    string
		item    string
		wantErr bool
	}{
		{"plain", `{"productId":"` + productID + `","quantity":2}`, false},
		{"explicit price", `{"productId":"` + productID + `","quantity":2,"unitPrice":"12.50"}`, false},
		{"three decimals", `{"productId":"` + productID + `","quantity":2,"unitPrice":"12.505"}`, true},
		{"negative discount", `{"productId":"` + productID + `","quantity":2,"unitDiscount":"-1"}`, true},
		{"zero quantity", `{"productId":"` + productID + `","quantity":0}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req CreateSaleRequest
			err := validate(t, `{"paymentMethodId":"`+paymentID+`","items":[`+tt.item+`]}`, &req)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateSaleRequest_EmptyCart(t *testing.T) {
	var req CreateSaleRequest
	err := validate(t, `{"paymentMethodId":"`+id.New().String()+`","items":[]}`, &req)
	assert.Error(t, err)
}

func TestCreateSaleRequest_ToDomain(t *testing.T) {
	productID := id.New()
	paymentID := id.New()
	cashierID := id.New()
	price := types.MustMoney("3.50")

	req := CreateSaleRequest{
		Items: []SaleItemRequest{
			{ProductID: productID.String(), Quantity: 2, UnitPrice: &price},
		},
		PaymentMethodID: paymentID.String(),
		Discount:        types.MustMoney("1.00"),
		Notes:           "mesa 4",
	}

	out, err := req.ToDomain(cashierID)
	require.NoError(t, err)
	assert.Equal(t, cashierID, out.CashierID)
	assert.Equal(t, paymentID, out.PaymentMethodID)
	require.Len(t, out.Items, 1)
	assert.Equal(t, productID, out.Items[0].ProductID)
	assert.True(t, out.Items[0].UnitPrice.Equal(price))
	assert.Nil(t, out.Tax)

	req.Items[0].ProductID = "nope"
	_, err = req.ToDomain(cashierID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 1, appErr.Details["lineNo"])
}

func TestCreatePurchaseRequest_ToDomain(t *testing.T) {
	actorID := id.New()
	req := CreatePurchaseRequest{
		InvoiceNumber: "F001-42",
		SupplierID:    id.New().String(),
		Items: []PurchaseItemRequest{
			{ProductID: id.New().String(), Quantity: 10, UnitCost: types.MustMoney("2.40")},
		},
	}

	out, err := req.ToDomain(actorID)
	require.NoError(t, err)
	assert.Equal(t, actorID, out.ActorID)
	assert.Equal(t, "F001-42", out.InvoiceNumber)
	assert.EqualValues(t, 10, out.Items[0].Quantity)

	req.SupplierID = ""
	_, err = req.ToDomain(actorID)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestParseDateRange(t *testing.T) {
	from, to, err := ParseDateRange("2025-03-01", "2025-03-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), *from)
	// "to" is inclusive, so the exclusive bound is the next midnight.
	assert.Equal(t, time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC), *to)

	from, to, err = ParseDateRange("", "")
	require.NoError(t, err)
	assert.Nil(t, from)
	assert.Nil(t, to)

	_, _, err = ParseDateRange("2025-03-15", "2025-03-01")
	assert.Error(t, err)

	_, _, err = ParseDateRange("15/03/2025", "")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestSetLifecycleRequest(t *testing.T) {
	var req SetLifecycleRequest
	assert.NoError(t, validate(t, `{"lifecycle":"inactive"}`, &req))
	assert.Equal(t, "inactive", string(req.Value()))

	req = SetLifecycleRequest{}
	assert.Error(t, validate(t, `{"lifecycle":"archived"}`, &req))
}

func TestCommissionQuery_ParseRate(t *testing.T) {
	q := CommissionQuery{}
	rate, err := q.ParseRate()
	require.NoError(t, err)
	assert.True(t, rate.IsZero())

	q.Rate = "0.035"
	rate, err = q.ParseRate()
	require.NoError(t, err)
	assert.Equal(t, "0.035", rate.String())

	q.Rate = "-0.1"
	_, err = q.ParseRate()
	assert.Error(t, err)
}

func TestTurnoverQuery_ToFilter(t *testing.T) {
	productID := id.New()
	q := TurnoverQuery{From: "2025-01-01", To: "2025-01-31", ProductIDs: []string{productID.String()}, IncludeZero: true}

	f, err := q.ToFilter()
	require.NoError(t, err)
	assert.Equal(t, []id.ID{productID}, f.ProductIDs)
	assert.True(t, f.IncludeZero)
	assert.Equal(t, 31, f.Period.To.Day())

	q.ProductIDs = []string{"bad"}
	_, err = q.ToFilter()
	assert.Error(t, err)
}
