package validator

import (
	"encoding/json"
	"errors"
	"log/slog"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/shandysiswandi/gotp/internal/pkg/strcase"
)

// ErrTranslatorNotFound indicates the requested translator is unavailable.
var ErrTranslatorNotFound = errors.New("translator not found")

// tagNames are consulted in order to name a field in errors. Request bodies
// carry json tags, configuration structs carry mapstructure tags.
var tagNames = []string{"json", "mapstructure"}

// V10Validator implements Validator using go-playground/validator v10.
type V10Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// V10ValidationError maps a field path to its message.
//
// Paths use the wire name of each field ("target.value",
// "schemas[0].otp.length"). Untagged fields fall back to snake_case.
type V10ValidationError map[string]string

func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation error"
	}

	b, _ := json.Marshal(map[string]string(vs))
	return string(b)
}

// Values returns the field error map.
func (vs V10ValidationError) Values() map[string]string {
	return vs
}

// NewV10Validator constructs a V10Validator with English translations and
// the regexp and charset rules registered.
func NewV10Validator() (*V10Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(wireName)

	enLang := en.New()
	uni := ut.New(enLang, enLang)
	enTrans, ok := uni.GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}

	if err := enTranslations.RegisterDefaultTranslations(validate, enTrans); err != nil {
		return nil, err
	}

	if err := registerRules(validate, enTrans); err != nil {
		return nil, err
	}

	return &V10Validator{
		validate:   validate,
		translator: enTrans,
	}, nil
}

func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(V10ValidationError, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[fieldPath(fe.Namespace())] = fe.Translate(v.translator)
	}

	return out
}

// wireName returns "" for untagged fields so the validator keeps the Go name.
func wireName(f reflect.StructField) string {
	for _, key := range tagNames {
		name, _, _ := strings.Cut(f.Tag.Get(key), ",")
		switch name {
		case "-":
			return ""
		case "":
			continue
		default:
			return name
		}
	}

	return ""
}

// fieldPath drops the root struct name and snake cases what is left.
func fieldPath(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		rest = namespace
	}

	parts := strings.Split(rest, ".")
	for i, p := range parts {
		parts[i] = strcase.ToLowerSnake(p)
	}

	return strings.Join(parts, ".")
}

type rule struct {
	tag     string
	message string
	fn      validator.Func
}

var rules = []rule{
	{
		tag:     "regexp",
		message: "{0} must be a valid regular expression",
		fn: func(fl validator.FieldLevel) bool {
			_, err := regexp.Compile(fl.Field().String())
			return err == nil
		},
	},
	{
		// charset entries are alias names or literal symbol sets, never blank
		tag:     "charset",
		message: "{0} must not contain blank entries",
		fn: func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		},
	},
}

func registerRules(validate *validator.Validate, trans ut.Translator) error {
	for _, r := range rules {
		if err := validate.RegisterValidation(r.tag, r.fn); err != nil {
			return err
		}

		message := r.message
		register := func(t ut.Translator) error { return t.Add(r.tag, message, false) }
		translate := func(t ut.Translator, fe validator.FieldError) string {
			msg, err := t.T(fe.Tag(), fe.Field())
			if err != nil {
				slog.Warn("failed to translate validation error", "tag", fe.Tag(), "error", err)
				return fe.Error()
			}
			return msg
		}

		if err := validate.RegisterTranslation(r.tag, trans, register, translate); err != nil {
			return err
		}
	}

	return nil
}
