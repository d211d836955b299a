package models

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	slugTag   = "slug"
	slugText  = "{0} may only contain lowercase letters, digits and hyphens"
	slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

	urlPathTag   = "urlpath"
	urlPathText  = "{0} must be an absolute path such as /best-tips"
	urlPathRegex = regexp.MustCompile(`^/[a-z0-9\-_/]*$`)

	requiredText = "{0} is required"

	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
)

func init() {
	locale := en.New()
	translator, _ = ut.New(locale, locale).GetTranslator("en")

	validate = validator.New()
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(slugTag, func(fl validator.FieldLevel) bool {
		return slugRegex.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation(urlPathTag, func(fl validator.FieldLevel) bool {
		p := fl.Field().String()
		return urlPathRegex.MatchString(p) && !strings.Contains(p, "//")
	})

	registerTranslation(slugTag, slugText, false)
	registerTranslation(urlPathTag, urlPathText, false)
	registerTranslation("required", requiredText, true)
}

func registerTranslation(tag, text string, override bool) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, override) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// FieldError is used to indicate an error with a specific field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError carries per-field messages for form and API responses.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

// NewValidationError wraps err, optionally pointing at specific fields.
func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return "validation failed"
	}
	return e.Err.Error()
}

// FieldMap returns the field errors keyed by field name.
func (e *ValidationError) FieldMap() map[string]string {
	m := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		m[f.Field] = f.Error
	}
	return m
}

// ValidateStruct runs the struct tags of s and converts failures into a *ValidationError.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	flds := make([]FieldError, 0, len(verrs))
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fe.Translate(translator)
		flds = append(flds, FieldError{Field: fe.Field(), Error: msg})
		msgs = append(msgs, msg)
	}
	return &ValidationError{Err: validationSummary(msgs), Fields: flds}
}

type validationSummary []string

func (v validationSummary) Error() string { return strings.Join(v, "; ") }

// Slugify lowercases s and joins its alphanumeric runs with hyphens.
func Slugify(s string) string {
	s = nonSlugChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	return strings.Trim(s, "-")
}

// CleanString trims s and collapses inner whitespace; lower also lowercases it.
func CleanString(s string, lower ...bool) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(lower) > 0 && lower[0] {
		s = strings.ToLower(s)
	}
	return s
}
