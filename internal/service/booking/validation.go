package booking

import (
	"errors"
	"reflect"
	"strings"

	"github.com/Domenick1991/chauffeur/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.Split(f.Tag.Get("json"), ",")[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateContact checks the contact step. The billing address is only
// required when the customer pays by card.
func validateContact(billing domain.BillingInfo, extras domain.Extras, corporate bool) error {
	verr := &domain.ValidationError{}
	collect(verr, validate.Struct(billing.Contact))
	collect(verr, validate.Struct(extras))
	if billing.Address != nil {
		collect(verr, validate.Struct(billing.Address))
	} else if !corporate {
		verr.Add("address", "is required")
	}
	return verr.OrNil()
}

func collect(verr *domain.ValidationError, err error) {
	if err == nil {
		return
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		verr.Add("request", err.Error())
		return
	}
	for _, fe := range fieldErrors {
		verr.Add(fe.Field(), message(fe))
	}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "e164":
		return "must be an international phone number, e.g. +962790000000"
	case "iso3166_1_alpha2":
		return "must be a two-letter country code"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}
