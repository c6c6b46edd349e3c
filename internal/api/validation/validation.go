package validation

import (
	"errors"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/hugh/lead-hunter/internal/database/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their json names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("lead_source", func(fl validator.FieldLevel) bool {
		return models.LeadSource(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("lead_status", func(fl validator.FieldLevel) bool {
		return models.LeadStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return IsValidUsername(fl.Field().String())
	})

	return v
}

// Struct validates s and returns a field to message map, or nil when s is valid.
func Struct(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fieldPath(fe)
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = message(fe)
	}
	return out
}

// fieldPath drops the root struct name, keeping slice indexes for nested
// elements such as leads[2].email.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	if ns == "" {
		return fe.Field()
	}
	return ns
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		if fe.Kind() == reflect.String {
			return field + " must be at least " + param + " characters"
		}
		if fe.Kind() == reflect.Slice {
			return field + " must contain at least " + param + " items"
		}
		return field + " must be at least " + param
	case "max":
		if fe.Kind() == reflect.String {
			return field + " must be at most " + param + " characters"
		}
		if fe.Kind() == reflect.Slice {
			return field + " must contain at most " + param + " items"
		}
		return field + " must be at most " + param
	case "gte":
		return field + " must be greater than or equal to " + param
	case "lte":
		return field + " must be less than or equal to " + param
	case "lead_source":
		return field + " must be one of " + joinSources()
	case "lead_status":
		return field + " must be one of " + joinStatuses()
	case "username":
		return field + " may only contain letters, digits, '.', '_' and '-'"
	default:
		return field + " is invalid"
	}
}

func joinSources() string {
	parts := make([]string, len(models.LeadSources))
	for i, s := range models.LeadSources {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

func joinStatuses() string {
	parts := make([]string, len(models.LeadStatuses))
	for i, s := range models.LeadStatuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// IsValidUsername allows letters, digits, dot, underscore and dash.
func IsValidUsername(username string) bool {
	if username == "" {
		return false
	}
	for _, r := range username {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '_' && r != '-' {
			return false
		}
	}
	return true
}

// SanitizeString removes null bytes and control characters except newlines and tabs
func SanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")

	var result strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || !unicode.IsControl(r) {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}
