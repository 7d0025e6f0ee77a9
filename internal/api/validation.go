package api

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator checks request bodies against their `validate` tags and reports
// failures with the message in each field's `msg` tag.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	// notblank rejects strings that are empty after trimming whitespace.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return &Validator{validate: v}
}

// Struct validates req and returns one FieldError per violated field, or nil.
func (v *Validator) Struct(req any) []FieldError {
	err := v.validate.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return []FieldError{{Msg: err.Error(), Location: "body"}}
	}

	t := reflect.TypeOf(req)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	out := make([]FieldError, 0, len(validationErrs))
	for _, fe := range validationErrs {
		msg := "Invalid value"
		if sf, ok := t.FieldByName(fe.StructField()); ok {
			if tagged := sf.Tag.Get("msg"); tagged != "" {
				msg = tagged
			}
		}
		out = append(out, FieldError{
			Msg:      msg,
			Param:    fe.Field(),
			Location: "body",
			Value:    fe.Value(),
		})
	}
	return out
}
