package dto

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Nombres de campo según la etiqueta json para que el detalle coincida con el body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	// decimal.Decimal como numérico: permite gt=0, gte=0 sin "Bad field type".
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	v.RegisterStructValidation(scaleValidation,
		CreateItemRequest{}, UpdateItemRequest{}, AdjustRequest{}, ConsumeRequest{}, ExitRequest{})

	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return entity.IsValidCategory(fl.Field().String())
	})
	_ = v.RegisterValidation("unit", func(fl validator.FieldLevel) bool {
		return entity.IsValidUnit(fl.Field().String())
	})
	_ = v.RegisterValidation("exit_kind", func(fl validator.FieldLevel) bool {
		return entity.IsValidExitKind(fl.Field().String())
	})
	return v
}

// scaleValidation rechaza cantidades y precios con más decimales de los que se almacenan:
// redondearlos en la base rompería la reproducción del libro.
func scaleValidation(sl validator.StructLevel) {
	check := func(d *decimal.Decimal, field, structField string) {
		if d != nil && !entity.FitsScale(*d) {
			sl.ReportError(*d, field, structField, "scale", strconv.Itoa(entity.QuantityScale))
		}
	}
	switch r := sl.Current().Interface().(type) {
	case CreateItemRequest:
		check(&r.UnitPrice, "unit_price", "UnitPrice")
		check(&r.Quantity, "quantity", "Quantity")
		check(&r.CriticalThreshold, "critical_threshold", "CriticalThreshold")
	case UpdateItemRequest:
		check(r.UnitPrice, "unit_price", "UnitPrice")
		check(r.CriticalThreshold, "critical_threshold", "CriticalThreshold")
	case AdjustRequest:
		check(&r.Delta, "delta", "Delta")
	case ConsumeRequest:
		check(&r.Quantity, "quantity", "Quantity")
	case ExitRequest:
		check(&r.Quantity, "quantity", "Quantity")
	}
}

// Validate aplica las etiquetas validate de la petición y devuelve *domain.ValidationError
// con el detalle por campo (clave = nombre json, valor = regla incumplida).
func Validate(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.NewValidationError("body", err.Error())
	}
	ve := &domain.ValidationError{}
	for _, fe := range verrs {
		reason := fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		ve.Add(fieldPath(fe), reason)
	}
	return ve
}

// fieldPath quita el nombre del struct raíz: "CreateItemRequest.name" → "name".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}
