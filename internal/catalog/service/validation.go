package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	cerrors "github.com/unabstore/shop/internal/catalog/errors"
)

// Messages shown for invalid products.
const (
	MsgNameRequired     = "El nombre es obligatorio"
	MsgNameTooLong      = "El nombre no puede superar 100 caracteres"
	MsgDescriptionLong  = "La descripción no puede superar 500 caracteres"
	MsgPriceRequired    = "El precio es obligatorio"
	MsgPriceNotNumber   = "El precio debe ser un número válido"
	MsgPricePositive    = "El precio debe ser mayor que cero"
	MsgPriceScale       = "El precio admite como máximo dos decimales"
	MsgPriceTooHigh     = "El precio no puede superar 9999999999,99"
	MsgIDRequired       = "El id es obligatorio"
	MsgProductAdded     = "Producto agregado correctamente"
	msgInvalidFieldText = "Valor inválido"
)

// Prices are stored as NUMERIC(12, 2).
const priceDecimals = 2

var maxPrice = decimal.New(1, 10)

// fieldMessages maps "field.tag" to the message shown for it.
var fieldMessages = map[string]string{
	"name.notblank":      MsgNameRequired,
	"name.max":           MsgNameTooLong,
	"description.max":    MsgDescriptionLong,
	"price.required":     MsgPriceRequired,
	"price.price_number": MsgPriceNotNumber,
	"price.price_gt0":    MsgPricePositive,
	"price.price_scale":  MsgPriceScale,
	"price.price_max":    MsgPriceTooHigh,
}

// newValidator builds a validator that knows the catalog rules and reports JSON field names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("price_number", func(fl validator.FieldLevel) bool {
		_, err := PriceText(fl.Field().String()).Decimal()
		return err == nil
	})
	_ = v.RegisterValidation("price_gt0", func(fl validator.FieldLevel) bool {
		d, err := PriceText(fl.Field().String()).Decimal()
		return err == nil && d.IsPositive()
	})
	_ = v.RegisterValidation("price_scale", func(fl validator.FieldLevel) bool {
		d, err := PriceText(fl.Field().String()).Decimal()
		return err == nil && d.Equal(d.Truncate(priceDecimals))
	})
	_ = v.RegisterValidation("price_max", func(fl validator.FieldLevel) bool {
		d, err := PriceText(fl.Field().String()).Decimal()
		return err == nil && d.LessThan(maxPrice)
	})
	return v
}

// validateProduct runs the struct rules and returns the parsed price.
// Rule failures are reported as a ValidationError.
func validateProduct(v *validator.Validate, dto ProductCreateDto) (decimal.Decimal, error) {
	err := v.Struct(dto)
	if err == nil {
		return dto.Price.Decimal()
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return decimal.Decimal{}, err
	}
	verr := &cerrors.ValidationError{}
	for _, fieldErr := range validationErrors {
		msg, ok := fieldMessages[fieldErr.Field()+"."+fieldErr.Tag()]
		if !ok {
			msg = msgInvalidFieldText
		}
		verr.Fields = append(verr.Fields, cerrors.FieldError{Field: fieldErr.Field(), Message: msg})
	}
	return decimal.Decimal{}, verr
}
