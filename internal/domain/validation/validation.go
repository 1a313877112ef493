// Package validation checks user input against the per-field rules declared on the
// domain structs and turns failures into ordered, human-readable violations.
package validation

import (
	"errors"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Violation is a single failed rule for one input field.
type Violation struct {
	Field   string
	Message string
}

// Violations is the ordered list of rule failures for one input.
// It is returned as an error so callers can abort a write with errors.As.
type Violations []Violation

// Error joins all messages.
func (v Violations) Error() string {
	return strings.Join(v.Messages(), "; ")
}

// Messages returns the violation messages in field order.
func (v Violations) Messages() []string {
	out := make([]string, 0, len(v))
	for _, viol := range v {
		out = append(out, viol.Message)
	}
	return out
}

// Add appends a violation for field.
func (v *Violations) Add(field, message string) {
	*v = append(*v, Violation{Field: field, Message: message})
}

// Messages maps "<field>.<tag>" to the text shown to the user for that failure.
// Failures without an entry fall back to the English translation.
type Messages map[string]string

var (
	validate   *validator.Validate
	translator ut.Translator

	notBlankTag = "notblank"
	finiteTag   = "finite"
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report fields by their form names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		if str, ok := fl.Field().Interface().(string); ok {
			return strings.TrimSpace(str) != ""
		}
		return false
	})
	_ = validate.RegisterTranslation(notBlankTag, translator,
		func(ut.Translator) error { return nil },
		func(_ ut.Translator, fe validator.FieldError) string {
			return fe.Field() + " cannot be blank"
		},
	)

	// Infinities parse as floats but cannot be stored as JSON numbers.
	_ = validate.RegisterValidation(finiteTag, func(fl validator.FieldLevel) bool {
		switch fl.Field().Kind() {
		case reflect.Float32, reflect.Float64:
			f := fl.Field().Float()
			return !math.IsInf(f, 0) && !math.IsNaN(f)
		}
		return true
	})
	_ = validate.RegisterTranslation(finiteTag, translator,
		func(ut.Translator) error { return nil },
		func(_ ut.Translator, fe validator.FieldError) string {
			return fe.Field() + " must be a number"
		},
	)
}

// Struct validates v against its `validate` tags.
// PRE: v is a struct or pointer to struct
// POST: Returns nil, a Violations error (in field order), or a programming error
func Struct(v any, messages Messages) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	var out Violations
	for _, fe := range fieldErrs {
		msg, ok := messages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = fe.Translate(translator)
		}
		out.Add(fe.Field(), msg)
	}
	return out
}

// Merge combines violations from several sources, returning nil when there are none.
// Non-violation errors take precedence.
func Merge(errs ...error) error {
	var out Violations
	for _, err := range errs {
		if err == nil {
			continue
		}
		var v Violations
		if !errors.As(err, &v) {
			return err
		}
		out = append(out, v...)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
