package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// Repayment method validation
	validate.RegisterValidation("payment_method", func(fl validator.FieldLevel) bool {
		method := fl.Field().String()
		validMethods := []string{"BANK_TRANSFER", "MOBILE_MONEY", "CASH", "CARD"}
		for _, m := range validMethods {
			if method == m {
				return true
			}
		}
		return false
	})

	// Fuel type validation for station records
	validate.RegisterValidation("fuel_type", func(fl validator.FieldLevel) bool {
		fuel := fl.Field().String()
		validTypes := []string{"petrol", "diesel", ""}
		for _, t := range validTypes {
			if fuel == t {
				return true
			}
		}
		return false
	})
}

// Struct validates a struct and returns field-level errors keyed by JSON name
func Struct(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	details := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fe := range validationErrors {
			details[fe.Field()] = messageFor(fe)
		}
	} else {
		details["request"] = err.Error()
	}
	return details
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "uuid":
		return "must be a valid UUID"
	case "gt":
		return "must be greater than " + fe.Param()
	case "payment_method":
		return "must be one of BANK_TRANSFER, MOBILE_MONEY, CASH, CARD"
	case "fuel_type":
		return "must be one of petrol, diesel"
	default:
		return "is invalid"
	}
}
