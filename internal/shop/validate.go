package shop

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MinRating = 1
	MaxRating = 5
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func checkRequired(v any, msg string) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return validationError(msg)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return validationError(msg + ": " + strings.Join(fields, ", "))
}

// Validate checks an order submission before any session is touched.
func (in PlaceOrderInput) Validate() error {
	if err := checkRequired(in, "missing required order fields"); err != nil {
		return err
	}
	for _, p := range in.Products {
		if p.Quantity != nil && *p.Quantity < 0 {
			return validationError("product quantity must not be negative")
		}
	}
	return nil
}

// Validate checks a review submission before any session is touched.
func (in SubmitReviewInput) Validate() error {
	if err := checkRequired(in, "missing required review fields"); err != nil {
		return err
	}
	if !in.Rating.Valid || in.Rating.Value < MinRating || in.Rating.Value > MaxRating {
		return validationError("rating must be a number from 1 to 5")
	}
	return nil
}
