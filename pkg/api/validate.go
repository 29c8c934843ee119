package api

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	v    *validator.Validate
	once sync.Once
)

// V returns the shared validator with the custom tags registered.
func V() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		// report json field names instead of Go field names
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		v.RegisterValidation("noSpaces", noSpacesValidator)
	})
	return v
}

func noSpacesValidator(fl validator.FieldLevel) bool {
	return !strings.ContainsAny(fl.Field().String(), " \t\n")
}

// Validate checks s against its validate tags and returns one readable
// message per failed field.
func Validate(s any) []string {
	err := V().Struct(s)
	if err == nil {
		return nil
	}
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	var msgs []string
	for _, e := range ve {
		field := e.Namespace()
		// drop the struct name
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "uuid":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid UUID", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", field, e.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s exceeds maximum length %s", field, e.Param()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must have at least %s entries", field, e.Param()))
		case "noSpaces":
			msgs = append(msgs, fmt.Sprintf("%s must not contain spaces", field))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed validation (%s)", field, e.Tag()))
		}
	}
	return msgs
}
