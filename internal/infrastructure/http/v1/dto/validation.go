package dto

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"revengepos/internal/core/entity"
	"revengepos/internal/core/types"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags on gin's validator:
//
//	money      non-negative amount with at most two decimals
//	lifecycle  active, inactive or deleted
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
		if err = v.RegisterValidation("money", validateMoney); err != nil {
			return
		}
		err = v.RegisterValidation("lifecycle", validateLifecycle)
	})
	return err
}

// decimalValue lets tags see a decimal as its canonical string.
func decimalValue(field reflect.Value) any {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

func validateMoney(fl validator.FieldLevel) bool {
	raw := fl.Field()
	if raw.Kind() != reflect.String {
		return false
	}
	d, err := types.NewMoneyFromString(raw.String())
	if err != nil {
		return false
	}
	return !d.IsNegative() && d.Equal(d.Round(types.MoneyPlaces))
}

func validateLifecycle(fl validator.FieldLevel) bool {
	_, err := entity.ParseLifecycle(fl.Field().String())
	return err == nil
}
