package validation

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

// Validator wraps validator/v10 with English message translation.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// New creates a Validator with struct tag validation and en translations.
func New() (*Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	// Report field errors under their json names so they line up with the
	// request body keys.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	translator, _ := uni.GetTranslator("en")

	if err := entranslations.RegisterDefaultTranslations(validate, translator); err != nil {
		return nil, err
	}

	return &Validator{
		validate:   validate,
		translator: translator,
	}, nil
}

// Struct validates a struct by its validate tags. On failure it returns the
// per-field translated messages.
func (v *Validator) Struct(s any) (map[string]string, error) {
	err := v.validate.Struct(s)
	if err == nil {
		return nil, nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil, err
	}

	fields := make(map[string]string, len(validationErrs))
	for _, fe := range validationErrs {
		fields[fe.Field()] = fe.Translate(v.translator)
	}

	return fields, nil
}
