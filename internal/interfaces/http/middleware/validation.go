package middleware

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/erp/focco-sync/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// erpCodePattern matches the codes Focco accepts for products, order types,
// payment terms and warehouses.
var erpCodePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._/-]*$`)

// SetupValidator configures gin's validator for the request payloads.
// Error fields are named after json tags and decimal.Decimal validates by
// value. The "erpcode" tag checks Focco code syntax; empty codes pass it.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(jsonFieldName)
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("erpcode", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || erpCodePattern.MatchString(s)
	})
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// ValidationDetails turns a binding error into per-field messages. Fields
// of nested items are reported by path, e.g. "items[1].quantity".
// Errors that are not validator errors (malformed JSON) yield nil.
func ValidationDetails(err error) []dto.FieldError {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}
	details := make([]dto.FieldError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, dto.FieldError{
			Field:   fieldPath(fe),
			Message: fieldMessage(fe),
		})
	}
	return details
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	if _, path, ok := strings.Cut(fe.Namespace(), "."); ok {
		return path
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return "Must be at least " + fe.Param() + unit
	case "max":
		return "Must be at most " + fe.Param() + unit
	case "len":
		return "Must be exactly " + fe.Param() + unit
	case "gt":
		return "Must be greater than " + fe.Param()
	case "erpcode":
		return "Must be a code of letters, digits and . _ / -"
	}
	return "Invalid value"
}
