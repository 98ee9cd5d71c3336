// Package validate checks form input with struct tags and reports per-field messages.
package validate

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	requiredTag  = "required"
	requiredText = "this field is required"

	eqFieldTag  = "eqfield"
	eqFieldText = "{0} does not match"

	std        *validator.Validate
	translator ut.Translator
)

func init() {
	enLocale := en.New()
	translator, _ = ut.New(enLocale, enLocale).GetTranslator("en")

	std = validator.New(validator.WithRequiredStructEnabled())
	_ = en_translations.RegisterDefaultTranslations(std, translator)

	// Use JSON tag names for errors instead of Go struct names.
	std.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerTranslation(requiredTag, requiredText)
	registerTranslation(eqFieldTag, eqFieldText)
}

func registerTranslation(tag, text string) {
	_ = std.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Struct validates s against its `validate` tags. Failures come back as *Error.
func Struct(s any) error {
	err := std.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Error: fe.Translate(translator)})
	}
	return &Error{Err: ErrInvalid, Fields: fields}
}

// Var validates a single value against tag, reporting failures under field.
func Var(field string, value any, tag string) error {
	err := std.Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	if verrs[0].Tag() == requiredTag {
		return Fail(FieldError{Field: field, Error: requiredText})
	}
	// Var has no field name, so the translation starts with the bare predicate.
	msg := strings.TrimSpace(verrs[0].Translate(translator))
	return Fail(FieldError{Field: field, Error: field + " " + msg})
}
