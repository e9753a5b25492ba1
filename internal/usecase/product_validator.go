package usecase

import (
	"reflect"

	"github.com/ecofinder/backend/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var productValidate *validator.Validate

func init() {
	productValidate = validator.New()
	productValidate.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	productValidate.RegisterValidation("category", validateCategory)
	productValidate.RegisterStructValidation(validateReviewConvention, domain.Product{})
}

// decimalValue lets numeric tags like gte/lte apply to decimal fields
func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

func validateCategory(fl validator.FieldLevel) bool {
	return domain.Category(fl.Field().String()).IsKnown()
}

// validateReviewConvention rejects a rating on a product nobody has reviewed
func validateReviewConvention(sl validator.StructLevel) {
	p := sl.Current().Interface().(domain.Product)
	if p.ReviewCount == 0 && !p.Rating.IsZero() {
		sl.ReportError(p.Rating, "Rating", "Rating", "unreviewed", "")
	}
}

// ValidateProduct checks a product against the catalog invariants
func ValidateProduct(p domain.Product) error {
	return productValidate.Struct(p)
}
