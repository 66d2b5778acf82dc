package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Register adds the custom binding rules to gin's validator engine.
// Call once at startup before routes are served.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return v.RegisterValidation("notblank", notBlank)
}

// notBlank fails strings that are empty or only whitespace. Nil pointers pass so optional fields can use it with omitempty semantics.
func notBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	switch field.Kind() {
	case reflect.String:
		return strings.TrimSpace(field.String()) != ""
	case reflect.Ptr:
		if field.IsNil() {
			return true
		}
		if field.Elem().Kind() == reflect.String {
			return strings.TrimSpace(field.Elem().String()) != ""
		}
		return true
	default:
		return true
	}
}
