package mapper

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"lcm-hq/intellimap/pkg/records"
)

// Invocation is one mapping request: the raw records, the Azure deployment
// to call and the catalog of fields to map onto.
type Invocation struct {
	Input records.RawInput

	Endpoint   string `validate:"notblank,url"`
	APIKey     string `validate:"notblank"`
	Deployment string `validate:"notblank"`
	APIVersion string `validate:"notblank"`

	// UserPrompt is the free-form instruction placed before the catalog.
	UserPrompt string `validate:"notblank"`

	// TargetFields are "code:name" or "code - name" entries.
	TargetFields []string `validate:"required,min=1"`

	// ClientID overrides the generated rate-limit identity.
	ClientID string
}

var fieldMessages = map[string]string{
	"Input":        "Input records are required",
	"Endpoint":     "Azure OpenAI endpoint is required",
	"APIKey":       "Azure OpenAI key is required",
	"Deployment":   "Azure OpenAI deployment name is required",
	"APIVersion":   "Azure OpenAI API version is required",
	"TargetFields": "Target fields are required",
	"UserPrompt":   "User prompt is required",
}

var fieldNames = map[string]string{
	"Input":        "input",
	"Endpoint":     "endpoint",
	"APIKey":       "api_key",
	"Deployment":   "deployment",
	"APIVersion":   "api_version",
	"TargetFields": "target_fields",
	"UserPrompt":   "user_prompt",
}

// invocationValidator caches struct metadata and is safe for concurrent use.
var invocationValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("notblank", validateNotBlank)
	v.RegisterStructValidation(validateInput, Invocation{})
	return v
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func validateInput(sl validator.StructLevel) {
	inv := sl.Current().Interface().(Invocation)
	if inputEmpty(inv.Input) {
		sl.ReportError(inv.Input, "Input", "Input", "required", "")
	}
}

func inputEmpty(in records.RawInput) bool {
	if in.Kind() == records.KindText {
		return strings.TrimSpace(in.Text()) == ""
	}
	for _, m := range in.Maps() {
		if len(m) > 0 {
			return false
		}
	}
	return true
}

// Validate checks that every required field is present. The error is a
// *ValidationError listing each missing field.
func (inv Invocation) Validate() error {
	return validateWith(invocationValidator, inv)
}

func validateWith(v *validator.Validate, inv Invocation) error {
	err := v.Struct(inv)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Errors: []FieldError{{Field: "invocation", Message: err.Error()}}}
	}

	out := &ValidationError{}
	seen := make(map[string]bool)
	for _, fe := range verrs {
		name := fe.StructField()
		if seen[name] {
			continue
		}
		seen[name] = true
		out.Errors = append(out.Errors, FieldError{Field: fieldName(name), Message: fieldMessage(name, fe.Tag())})
	}
	return out
}

func fieldName(structField string) string {
	if n, ok := fieldNames[structField]; ok {
		return n
	}
	return strings.ToLower(structField)
}

func fieldMessage(structField, tag string) string {
	if structField == "Endpoint" && tag == "url" {
		return "Azure OpenAI endpoint must be a valid URL"
	}
	if msg, ok := fieldMessages[structField]; ok {
		return msg
	}
	return structField + " is invalid"
}
