package render

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

func newValidator() *validator.Validate {
	validate := validator.New()
	configureValidator(validate)
	return validate
}

func configureValidator(validate *validator.Validate) {
	_ = validate.RegisterValidation("username", validateUsername)
	validate.RegisterTagNameFunc(useJSONTagNames)
}

// Return on 'TagName' json tag instead of struct name
// Look at documentation of 'RegisterTagNameFunc' for more details
func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

// Username is a login too, so it must not look like email or contain spaces
func validateUsername(fl validator.FieldLevel) bool {
	username := fl.Field().String()

	if strings.Contains(username, "@") {
		return false
	}
	return !strings.ContainsFunc(username, unicode.IsSpace)
}
