package config

import (
	"fmt"

	"github.com/elee1766/deskpilot/src/capability"
	"github.com/go-playground/validator/v10"
)

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Validator validates configuration values using go-playground/validator.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterValidation("capability", validateCapability)
	return &Validator{validate: v}
}

// Validate validates a complete configuration, including cross-field rules
// the struct tags cannot express.
func (v *Validator) Validate(cfg *Config) error {
	if err := v.validate.Struct(cfg); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, e := range validationErrors {
				return ValidationError{
					Field:   e.Field(),
					Message: fmt.Sprintf("validation failed on tag '%s' with value '%v'", e.Tag(), e.Value()),
					Value:   e.Value(),
				}
			}
		}
		return err
	}

	return v.validateReferences(cfg)
}

// validateReferences checks name references between sections.
func (v *Validator) validateReferences(cfg *Config) error {
	providers := map[string]bool{}
	for _, p := range cfg.Model.Providers {
		if providers[p.Name] {
			return ValidationError{Field: "Providers", Message: fmt.Sprintf("duplicate provider name %q", p.Name), Value: p.Name}
		}
		providers[p.Name] = true
	}
	if cfg.Model.Primary != "" && len(cfg.Model.Providers) > 0 && !providers[cfg.Model.Primary] {
		return ValidationError{Field: "Primary", Message: fmt.Sprintf("unknown provider %q", cfg.Model.Primary), Value: cfg.Model.Primary}
	}
	if cfg.Model.Secondary != "" && !providers[cfg.Model.Secondary] {
		return ValidationError{Field: "Secondary", Message: fmt.Sprintf("unknown provider %q", cfg.Model.Secondary), Value: cfg.Model.Secondary}
	}

	backends := map[string]bool{}
	for _, b := range cfg.Backends {
		if backends[b.Name] {
			return ValidationError{Field: "Backends", Message: fmt.Sprintf("duplicate backend name %q", b.Name), Value: b.Name}
		}
		backends[b.Name] = true

		if b.Type == "webhook" && b.Capability == "" {
			return ValidationError{Field: "Capability", Message: fmt.Sprintf("webhook backend %q requires a capability", b.Name), Value: b.Name}
		}
		if (b.Type == "jira" || b.Type == "webhook") && b.URL == "" {
			return ValidationError{Field: "URL", Message: fmt.Sprintf("backend %q requires a url", b.Name), Value: b.Name}
		}
	}

	return nil
}

// validateCapability accepts any member of the closed capability set.
func validateCapability(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, err := capability.Parse(value)
	return err == nil
}
