package checkoutapi

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	RuleRequired = "notblank"
	RuleEmail    = "email"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// field names as the shopper knows them
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if label := fld.Tag.Get("label"); label != "" {
			return label
		}
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	err := v.RegisterValidation(RuleRequired, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	if err != nil {
		panic(err)
	}
	return v
}

// FieldProblem is a field that breaks the rule in its validate tag.
type FieldProblem struct {
	Field string
	Rule  string
}

// CheckFields validates the tagged fields of a customer or address. Problems are listed in declaration order.
func CheckFields(value any) []FieldProblem {
	err := validate.Struct(value)
	if err == nil {
		return nil
	}

	validationErrors := validator.ValidationErrors{}
	if !errors.As(err, &validationErrors) {
		return []FieldProblem{{Rule: err.Error()}}
	}

	problems := make([]FieldProblem, 0, len(validationErrors))
	for _, fe := range validationErrors {
		problems = append(problems, FieldProblem{Field: fe.Field(), Rule: fe.Tag()})
	}
	return problems
}

// MissingFields lists the fields of a customer or address that are required but blank.
func MissingFields(value any) []string {
	missing := []string{}
	for _, p := range CheckFields(value) {
		if p.Rule == RuleRequired {
			missing = append(missing, p.Field)
		}
	}
	return missing
}
