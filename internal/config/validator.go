package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidateConfig performs validation on the GlobalConfig structure and
// reports every failed rule in a single *ConfigError.
func ValidateConfig(cfg *GlobalConfig) error {
	validate := newValidator()

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return NewConfigError(cfg.SourcePath, "", "configuration validation error", err)
	}

	var messages []string
	for _, e := range errs {
		messages = append(messages, describeFieldError(e))
	}
	return NewConfigError(cfg.SourcePath, fieldPath(errs[0]), strings.Join(messages, "; "), nil)
}

func newValidator() *validator.Validate {
	validate := validator.New()

	// Report fields by their configuration key instead of the Go name
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	_ = validate.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "debug", "info", "warn", "warning", "error", "critical", "fatal":
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("logformat", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "console", "text", "json":
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("outputnaming", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "", OutputNamingJobID, OutputNamingOverwrite, OutputNamingTimestamp:
			return true
		default:
			return false
		}
	})

	return validate
}

// fieldPath drops the root struct name: "GlobalConfig.folders[0].endpoint.url" -> "folders[0].endpoint.url"
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}

func describeFieldError(e validator.FieldError) string {
	field := fieldPath(e)
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("'%s' is required", field)
	case "url":
		return fmt.Sprintf("'%s' must be a valid URL, got '%v'", field, e.Value())
	case "min":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("'%s' must contain at least %s entries", field, e.Param())
		}
	}

	msg := fmt.Sprintf("'%s' failed rule '%s'", field, e.Tag())
	if e.Param() != "" {
		msg += fmt.Sprintf(" (expected: %s)", e.Param())
	}
	if e.Value() != nil && e.Value() != "" {
		msg += fmt.Sprintf(", actual: '%v'", e.Value())
	}
	return msg
}
