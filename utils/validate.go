package utils

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/eventatlas/eventatlas/pkg/errs"
	"github.com/go-playground/validator/v10"
)

var countryCodeRegex = regexp.MustCompile(`^[A-Z]{2}$`)

var validate = newValidator()

var messages = map[string]string{
	"required":     "required field missing",
	"oneof":        "invalid value: %[1]v",
	"country_alpha2": "invalid country code: %[1]v",
	"gt":           "value must be > %[2]s",
	"gte":          "value must be >= %[2]s",
	"lt":           "value must be < %[2]s",
	"lte":          "value must be <= %[2]s",
	"min":          "length must be at least %[2]s",
	"max":          "length must be at most %[2]s",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(tagName)
	// validator ships a country_code alias accepting alpha-3 and numeric codes
	if err := v.RegisterValidation("country_alpha2", func(fl validator.FieldLevel) bool {
		return IsCountryCode(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// tagName reports fields by their wire name so errors match request bodies
func tagName(field reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		if name, _, _ := strings.Cut(field.Tag.Get(tag), ","); name != "" && name != "-" {
			return name
		}
	}
	return field.Name
}

// IsCountryCode reports whether s is an uppercase ISO 3166-1 alpha-2 code
func IsCountryCode(s string) bool {
	return countryCodeRegex.MatchString(s)
}

// Validate checks v against its validate tags. Failures are returned as an
// *errs.ValidateError whose fields mirror the struct nesting.
func Validate(v interface{}) error {
	err := validate.Struct(v)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	validateErr := errs.NewValidateError(errs.ErrRequestValidate)
	for _, fe := range fieldErrs {
		path := strings.Split(fe.Namespace(), ".")[1:]
		node := validateErr.Fields
		for _, segment := range path[:len(path)-1] {
			name, _ := splitIndex(segment)
			child, ok := node[name].(map[string]interface{})
			if !ok {
				child = make(map[string]interface{})
				node[name] = child
			}
			node = child
		}
		name, index := splitIndex(path[len(path)-1])
		msg := message(fe)
		if index != "" {
			msg = fmt.Sprintf("[%s] %s", index, msg)
		}
		node[name] = msg
	}
	return validateErr
}

func message(fe validator.FieldError) string {
	format, ok := messages[fe.Tag()]
	if !ok {
		return fe.Error()
	}
	if !strings.Contains(format, "%") {
		return format
	}
	return fmt.Sprintf(format, fe.Value(), fe.Param())
}

// splitIndex splits "type[1]" into "type" and "1"
func splitIndex(s string) (string, string) {
	name, rest, found := strings.Cut(s, "[")
	if !found {
		return s, ""
	}
	return name, strings.TrimSuffix(rest, "]")
}
