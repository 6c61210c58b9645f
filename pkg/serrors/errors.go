package serrors

import "fmt"

// BaseError is a structured error carrying a stable machine code alongside
// the human-readable message. LocaleKey and TemplateData feed the
// presentation layer's translation lookup and may be empty.
type BaseError struct {
	Code         string
	Message      string
	LocaleKey    string
	TemplateData map[string]string
}

func (e *BaseError) Error() string {
	return e.Message
}

// WithTemplateData attaches substitution values for localized rendering.
func (e *BaseError) WithTemplateData(data map[string]string) *BaseError {
	e.TemplateData = data
	return e
}

func NewError(code, message, localeKey string) *BaseError {
	return &BaseError{
		Code:      code,
		Message:   message,
		LocaleKey: localeKey,
	}
}

// NewFieldRequiredError standardizes "required field missing" validation errors.
func NewFieldRequiredError(field, localeKey string) *BaseError {
	return NewError(
		"FIELD_REQUIRED",
		fmt.Sprintf("field %q is required", field),
		localeKey,
	).WithTemplateData(map[string]string{"field": field})
}
